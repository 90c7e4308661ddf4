package notifications

import (
	"context"
	"errors"
	"fmt"

	"ticketing/internal/shared/config"
	"ticketing/pkg/logger"
)

// Service owns the lifecycle publisher and, when Kafka is enabled, the
// workers that turn published messages into emails.
type Service struct {
	publisher Publisher
	consumer  *Consumer
	log       *logger.Logger
}

func NewService(cfg *config.Config) (*Service, error) {
	log := logger.GetDefault()
	if !cfg.Kafka.Enabled {
		log.Info("Kafka disabled, lifecycle events will not be published")
		return NewNopService(), nil
	}

	publisher, err := NewKafkaPublisher(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	return withConsumer(publisher, func() (*Consumer, error) {
		return NewConsumer(cfg.Kafka, NewMailer(cfg.Email))
	}, log)
}

// withConsumer closes publisher when the consumer cannot be built
func withConsumer(publisher Publisher, build func() (*Consumer, error), log *logger.Logger) (*Service, error) {
	consumer, err := build()
	if err != nil {
		if closeErr := publisher.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("closing publisher: %w", closeErr))
		}
		return nil, err
	}
	return &Service{publisher: publisher, consumer: consumer, log: log}, nil
}

// NewNopService publishes nothing and runs no workers
func NewNopService() *Service {
	return &Service{publisher: NewNopPublisher(), log: logger.GetDefault()}
}

func (s *Service) Publisher() Publisher { return s.publisher }

func (s *Service) Start(ctx context.Context) {
	if s.consumer == nil {
		s.log.Debug("No notification workers to start")
		return
	}
	s.consumer.Start(ctx)
}

func (s *Service) Stop() error {
	var consumerErr error
	if s.consumer != nil {
		consumerErr = s.consumer.Stop()
	}
	if consumerErr != nil {
		consumerErr = fmt.Errorf("notification workers: %w", consumerErr)
	}
	return errors.Join(consumerErr, s.publisher.Close())
}
