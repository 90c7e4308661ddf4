package notifications

import (
	"context"

	"ticketing/pkg/logger"
)

// Publisher emits ticket lifecycle messages. Publishing is best effort:
// callers log failures and never roll back the ticket write.
type Publisher interface {
	Publish(ctx context.Context, event *TicketLifecycleEvent) error
	Close() error
}

// NopPublisher is used when Kafka is disabled
type NopPublisher struct {
	log *logger.Logger
}

func NewNopPublisher() *NopPublisher {
	return &NopPublisher{log: logger.GetDefault()}
}

func (p *NopPublisher) Publish(ctx context.Context, event *TicketLifecycleEvent) error {
	p.log.DebugContext(ctx, "Lifecycle event dropped, publisher disabled",
		"type", string(event.Type),
		"reservation_id", event.ReservationID,
	)
	return nil
}

func (p *NopPublisher) Close() error { return nil }
