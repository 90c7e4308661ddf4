package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/pkg/logger"
)

type closingPublisher struct {
	closed   int
	closeErr error
}

func (p *closingPublisher) Publish(context.Context, *TicketLifecycleEvent) error { return nil }

func (p *closingPublisher) Close() error {
	p.closed++
	return p.closeErr
}

func TestConsumerFailureClosesPublisher(t *testing.T) {
	buildErr := errors.New("no brokers")
	failing := func() (*Consumer, error) { return nil, buildErr }

	t.Run("close succeeds", func(t *testing.T) {
		pub := &closingPublisher{}
		svc, err := withConsumer(pub, failing, logger.GetDefault())
		assert.Nil(t, svc)
		assert.Equal(t, buildErr, err)
		assert.Equal(t, 1, pub.closed)
	})

	t.Run("close fails too", func(t *testing.T) {
		closeErr := errors.New("producer stuck")
		pub := &closingPublisher{closeErr: closeErr}
		_, err := withConsumer(pub, failing, logger.GetDefault())
		require.Error(t, err)
		assert.ErrorIs(t, err, buildErr)
		assert.ErrorIs(t, err, closeErr)
		assert.Equal(t, 1, pub.closed)
	})
}

func TestNopServiceStops(t *testing.T) {
	svc := NewNopService()
	svc.Start(context.Background())
	assert.NoError(t, svc.Stop())
}
