// Package broadcast fans cache changes out to every connected screen. The
// engine publishes onto the signal bus; any number of API processes
// subscribe and relay to their WebSocket clients.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// Bus channels. The ws hub subscribes to ch:event:* and ch:events:snapshot.
const (
	ChannelEventUpdate   = "ch:event:update"
	ChannelEventRemoved  = "ch:event:removed"
	ChannelEventSnapshot = "ch:events:snapshot"
)

// Envelope is the wire frame for every broadcast message.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// RemovalPayload tells clients to drop a row immediately instead of waiting
// for it to go stale.
type RemovalPayload struct {
	EventID string `json:"event_id"`
	Removed bool   `json:"removed"`
}

// BusBroadcaster implements domain.Broadcaster on a signal bus. Publish
// failures are logged and swallowed: the refresh loop must never block or
// fail because a subscriber is unreachable.
type BusBroadcaster struct {
	bus    domain.SignalBus
	logger *slog.Logger
}

var _ domain.Broadcaster = (*BusBroadcaster)(nil)

// New wraps the bus in a Broadcaster.
func New(bus domain.SignalBus, logger *slog.Logger) *BusBroadcaster {
	return &BusBroadcaster{
		bus:    bus,
		logger: logger.With(slog.String("component", "broadcast")),
	}
}

// BroadcastUpdate publishes one updated record.
func (b *BusBroadcaster) BroadcastUpdate(ctx context.Context, rec domain.ActiveEventRecord) {
	b.publish(ctx, ChannelEventUpdate, "event_update", rec)
}

// BroadcastRemoval publishes an explicit removal marker for the event.
func (b *BusBroadcaster) BroadcastRemoval(ctx context.Context, eventID string) {
	b.publish(ctx, ChannelEventRemoved, "event_removed", RemovalPayload{
		EventID: eventID,
		Removed: true,
	})
}

// BroadcastSnapshot publishes the full active set.
func (b *BusBroadcaster) BroadcastSnapshot(ctx context.Context, recs []domain.ActiveEventRecord) {
	if recs == nil {
		recs = []domain.ActiveEventRecord{}
	}
	b.publish(ctx, ChannelEventSnapshot, "events_snapshot", recs)
}

func (b *BusBroadcaster) publish(ctx context.Context, channel, msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("marshal payload",
			slog.String("channel", channel),
			slog.Any("error", err),
		)
		return
	}
	frame, err := json.Marshal(Envelope{
		ID:      uuid.NewString(),
		Type:    msgType,
		SentAt:  time.Now().UTC(),
		Payload: raw,
	})
	if err != nil {
		b.logger.Error("marshal envelope",
			slog.String("channel", channel),
			slog.Any("error", err),
		)
		return
	}
	if err := b.bus.Publish(ctx, channel, frame); err != nil {
		b.logger.Warn("publish failed",
			slog.String("channel", channel),
			slog.Any("error", err),
		)
	}
}
