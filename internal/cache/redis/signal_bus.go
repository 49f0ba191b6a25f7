package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// SignalBus implements domain.SignalBus on Redis Pub/Sub. Broadcast traffic
// is ephemeral by design: a client that reconnects gets the next full
// snapshot within seconds, so there is nothing to replay.
type SignalBus struct {
	rdb *redis.Client
}

var _ domain.SignalBus = (*SignalBus)(nil)

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends a raw byte payload to a Pub/Sub channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe creates a Pub/Sub subscription covering the given channels or
// glob patterns and returns a read-only channel of messages. The
// subscription closes with the context; the returned channel is closed at
// that point as well.
func (sb *SignalBus) Subscribe(ctx context.Context, patterns ...string) (<-chan domain.BusMessage, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("redis: subscribe: no channels given")
	}

	var pubsub *redis.PubSub
	if hasPattern(patterns...) {
		pubsub = sb.rdb.PSubscribe(ctx, patterns...)
	} else {
		pubsub = sb.rdb.Subscribe(ctx, patterns...)
	}

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", strings.Join(patterns, ","), err)
	}

	out := make(chan domain.BusMessage, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- domain.BusMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op; the underlying connection belongs to the Client.
func (sb *SignalBus) Close() error {
	return nil
}

// hasPattern reports whether any channel name includes glob-style wildcards,
// in which case PSubscribe must be used instead of Subscribe.
func hasPattern(channels ...string) bool {
	for _, c := range channels {
		if strings.ContainsAny(c, "*?[") {
			return true
		}
	}
	return false
}
