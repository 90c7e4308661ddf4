package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"ticketing/internal/shared/config"
	"ticketing/pkg/logger"
)

// Consumer runs the notification workers of the lifecycle topic
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	workers int
	handler *Handler
	log     *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(cfg config.KafkaConfig, mailer Mailer) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = 5 * time.Minute
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		group:   group,
		topics:  []string{cfg.Topic},
		workers: workers,
		handler: NewHandler(mailer, cfg.ConsumerRetry, cfg.RetryBackoff),
		log:     logger.GetDefault(),
	}, nil
}

func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.log.Error("Consumer group error", "error", err)
		}
	}()

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.run(ctx, workerID)
		}(i)
	}
	c.log.Info("Notification workers started", "workers", c.workers, "topics", c.topics)
}

func (c *Consumer) run(ctx context.Context, workerID int) {
	for {
		err := c.group.Consume(ctx, c.topics, c.handler)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return
		}
		if err != nil {
			c.log.Warn("Consume failed, retrying", "worker", workerID, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.group.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.log.Info("Notification workers stopped")
	return nil
}

// Handler turns lifecycle messages into emails, one per distinct recipient
type Handler struct {
	mailer     Mailer
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func NewHandler(mailer Mailer, maxRetries int, backoff time.Duration) *Handler {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Handler{mailer: mailer, maxRetries: maxRetries, backoff: backoff, log: logger.GetDefault()}
}

func (h *Handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *Handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			// retries happen inside Handle; a failure here is final
			if err := h.Handle(session.Context(), message.Value); err != nil {
				h.log.Error("Lifecycle message not delivered",
					"topic", message.Topic,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err,
				)
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Handle delivers one encoded lifecycle message. Malformed and unknown
// messages are dropped without error so they do not block the partition.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event TicketLifecycleEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.log.Warn("Dropping malformed lifecycle message", "error", err)
		return nil
	}
	switch event.Type {
	case TypeTicketIssued, TypeTicketValidated, TypeTicketCancelled:
	default:
		h.log.Warn("Dropping lifecycle message of unknown type", "type", string(event.Type))
		return nil
	}

	var errs []error
	for _, to := range event.Recipients {
		if to.Email == "" {
			continue
		}
		htmlBody, textBody, err := RenderEmail(&event, to)
		if err != nil {
			return err
		}
		if err := h.sendWithRetry(ctx, to, event.Subject(), htmlBody, textBody); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to.Email, err))
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) sendWithRetry(ctx context.Context, to Recipient, subject, htmlBody, textBody string) error {
	for attempt := 0; ; attempt++ {
		err := h.mailer.Send(ctx, to, subject, htmlBody, textBody)
		if err == nil {
			return nil
		}
		if attempt == h.maxRetries {
			return err
		}

		delay := h.backoff * time.Duration(1<<attempt)
		h.log.Debug("Retrying email", "to", to.Email, "attempt", attempt+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
