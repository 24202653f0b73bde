// Package pubsub relays auth session revocations between server instances
// and connected clients.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/goroutine"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

const sessionRevokedChannel = "helpdesk:auth:session:revoked"

type RevocationReason string

const (
	ReasonSignOut       RevocationReason = "sign_out"
	ReasonPasswordReset RevocationReason = "password_reset"
	ReasonRotated       RevocationReason = "rotated"
)

// SessionRevokedEvent announces that a session's tokens are no longer valid.
type SessionRevokedEvent struct {
	SessionID  string           `json:"session_id"`
	UserID     string           `json:"user_id"`
	Reason     RevocationReason `json:"reason"`
	Timestamp  int64            `json:"timestamp"`
	InstanceID string           `json:"instance_id,omitempty"`
}

type SessionEventPublisher interface {
	PublishRevoked(ctx context.Context, event SessionRevokedEvent) error
}

type SessionEventSubscriber interface {
	// SubscribeRevoked blocks, delivering events to handler until ctx is done.
	SubscribeRevoked(ctx context.Context, handler func(event SessionRevokedEvent)) error
}

// SessionEventBus combines publisher and subscriber interfaces.
type SessionEventBus interface {
	SessionEventPublisher
	SessionEventSubscriber
}

// RedisSessionEventBus implements SessionEventBus using Redis Pub/Sub.
type RedisSessionEventBus struct {
	client     *redis.Client
	logger     logger.Interface
	instanceID string
}

func NewRedisSessionEventBus(client *redis.Client, logger logger.Interface) *RedisSessionEventBus {
	return &RedisSessionEventBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

func (b *RedisSessionEventBus) PublishRevoked(ctx context.Context, event SessionRevokedEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = biztime.NowUTC().UnixMilli()
	}
	event.InstanceID = b.instanceID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session revoked event: %w", err)
	}

	if err := b.client.Publish(ctx, sessionRevokedChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish session revocation",
			"session_id", event.SessionID,
			"error", err,
		)
		return fmt.Errorf("failed to publish session revocation: %w", err)
	}

	b.logger.Debugw("session revocation published",
		"session_id", event.SessionID,
		"reason", event.Reason,
	)
	return nil
}

// SubscribeRevoked delivers events from every instance, including this one,
// so that in-process clients see their own sign-outs.
func (b *RedisSessionEventBus) SubscribeRevoked(ctx context.Context, handler func(event SessionRevokedEvent)) error {
	return b.subscribeWithReconnect(ctx, sessionRevokedChannel, func(payload string) {
		var event SessionRevokedEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			b.logger.Warnw("failed to unmarshal session revoked event",
				"payload", payload,
				"error", err,
			)
			return
		}
		handler(event)
	})
}

// subscribeWithReconnect wraps subscribe with automatic reconnection and exponential backoff.
func (b *RedisSessionEventBus) subscribeWithReconnect(ctx context.Context, channel string, handler func(payload string)) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, channel, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("session subscription disconnected, reconnecting",
			"channel", channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisSessionEventBus) subscribe(ctx context.Context, channel string, handler func(payload string)) error {
	ps := b.client.Subscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	b.logger.Infow("subscribed to session event channel", "channel", channel)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("session event subscriber stopped",
				"channel", channel,
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("session event channel closed", "channel", channel)
				return nil
			}
			goroutine.SafeGo(b.logger, "session-event-handler", func() {
				handler(msg.Payload)
			})
		}
	}
}

// LocalSessionEventBus delivers events within one process, for deployments
// without Redis.
type LocalSessionEventBus struct {
	logger   logger.Interface
	mu       sync.RWMutex
	handlers map[int]func(SessionRevokedEvent)
	nextID   int
}

func NewLocalSessionEventBus(logger logger.Interface) *LocalSessionEventBus {
	return &LocalSessionEventBus{
		logger:   logger,
		handlers: make(map[int]func(SessionRevokedEvent)),
	}
}

func (b *LocalSessionEventBus) PublishRevoked(ctx context.Context, event SessionRevokedEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = biztime.NowUTC().UnixMilli()
	}

	b.mu.RLock()
	handlers := make([]func(SessionRevokedEvent), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		goroutine.SafeGo(b.logger, "session-event-handler", func() {
			h(event)
		})
	}
	return nil
}

func (b *LocalSessionEventBus) SubscribeRevoked(ctx context.Context, handler func(event SessionRevokedEvent)) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
	return ctx.Err()
}
