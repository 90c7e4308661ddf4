package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return NewService(client)
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestService_SetGetDelete(t *testing.T) {
	skipIfNoIntegration(t)
	svc := newTestService(t)
	ctx := context.Background()

	var got payload
	assert.ErrorIs(t, svc.Get(ctx, "ticketing:test:a", &got), ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, "ticketing:test:a", payload{Name: "a", Count: 1}, time.Minute))
	require.NoError(t, svc.Get(ctx, "ticketing:test:a", &got))
	assert.Equal(t, payload{Name: "a", Count: 1}, got)

	require.NoError(t, svc.Set(ctx, "ticketing:test:b", payload{Name: "b"}, time.Minute))
	require.NoError(t, svc.DeletePattern(ctx, "ticketing:test:*"))
	assert.ErrorIs(t, svc.Get(ctx, "ticketing:test:b", &got), ErrCacheMiss)
}

func TestService_GetOrSetCollapsesConcurrentMisses(t *testing.T) {
	skipIfNoIntegration(t)
	svc := newTestService(t)
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return payload{Name: "stats", Count: 7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got payload
			assert.NoError(t, svc.GetOrSet(ctx, "ticketing:test:stats", time.Minute, fetch, &got))
			assert.Equal(t, 7, got.Count)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNoopService_GetOrSetAlwaysFetches(t *testing.T) {
	svc := NewNoopService()
	ctx := context.Background()

	var calls int
	fetch := func(ctx context.Context) (interface{}, error) {
		calls++
		return payload{Name: "x", Count: calls}, nil
	}

	var got payload
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetch, &got))
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetch, &got))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, got.Count)
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrCacheMiss)
}
