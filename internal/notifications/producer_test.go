package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() *TicketLifecycleEvent {
	event := NewTicketLifecycleEvent(TypeTicketIssued, "RES-1A2B3C4D", uuid.New())
	event.EventName = "Spring Gala"
	event.ZoneName = "Floor"
	event.TicketIDs = []uuid.UUID{uuid.New(), uuid.New()}
	event.Recipients = []Recipient{{Email: "ada@example.com", Name: "Ada Lovelace"}}
	return event
}

func mockConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

func TestKafkaPublisherSendsEncodedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mockConfig())
	event := sampleEvent()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got TicketLifecycleEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.ID != event.ID || got.ReservationID != event.ReservationID {
			return errors.New("unexpected payload")
		}
		return nil
	})

	publisher := newKafkaPublisher(producer, "ticket-lifecycle")
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherReportsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mockConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := newKafkaPublisher(producer, "ticket-lifecycle")
	err := publisher.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestPartitionKey(t *testing.T) {
	event := sampleEvent()
	assert.Equal(t, "RES-1A2B3C4D", event.PartitionKey())

	event.ReservationID = ""
	assert.Equal(t, event.TicketIDs[0].String(), event.PartitionKey())

	event.TicketIDs = nil
	assert.Equal(t, event.ID.String(), event.PartitionKey())
}
