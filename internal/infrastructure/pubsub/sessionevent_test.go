package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type eventRecorder struct {
	mu     sync.Mutex
	events []SessionRevokedEvent
}

func (r *eventRecorder) handle(e SessionRevokedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) snapshot() []SessionRevokedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionRevokedEvent(nil), r.events...)
}

func TestRedisSessionEventBus_PublishSubscribe(t *testing.T) {
	client := setupTestRedis(t)
	publisher := NewRedisSessionEventBus(client, logger.NewNop())
	subscriber := NewRedisSessionEventBus(client, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &eventRecorder{}
	done := make(chan error, 1)
	go func() { done <- subscriber.SubscribeRevoked(ctx, rec.handle) }()

	// Publish until the subscription is live; earlier messages are dropped by Redis.
	require.Eventually(t, func() bool {
		_ = publisher.PublishRevoked(ctx, SessionRevokedEvent{SessionID: "s1", UserID: "u1", Reason: ReasonSignOut})
		return len(rec.snapshot()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	got := rec.snapshot()[0]
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, ReasonSignOut, got.Reason)
	assert.NotZero(t, got.Timestamp)
	assert.Equal(t, publisher.instanceID, got.InstanceID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestLocalSessionEventBus(t *testing.T) {
	bus := NewLocalSessionEventBus(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	rec := &eventRecorder{}
	done := make(chan struct{})
	go func() {
		_ = bus.SubscribeRevoked(ctx, rec.handle)
		close(done)
	}()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.handlers) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.PublishRevoked(ctx, SessionRevokedEvent{SessionID: "s1", Reason: ReasonPasswordReset}))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, ReasonPasswordReset, rec.snapshot()[0].Reason)

	cancel()
	<-done
	bus.mu.RLock()
	assert.Empty(t, bus.handlers)
	bus.mu.RUnlock()
}
