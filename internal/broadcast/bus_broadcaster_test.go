package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

type fakeBus struct {
	published map[string][][]byte
	err       error
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: make(map[string][][]byte)}
}

func (f *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, ...string) (<-chan domain.BusMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBus) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBroadcastUpdate(t *testing.T) {
	bus := newFakeBus()
	b := New(bus, discard())

	rec := domain.ActiveEventRecord{
		EventID:        "evt-1",
		AlertID:        "alert-1",
		ArrivedAt:      time.Now(),
		TradableSource: "book",
		Reference:      domain.EventSnapshot{EventID: "evt-1", Home: "A", Away: "B"},
	}
	b.BroadcastUpdate(context.Background(), rec)

	frames := bus.published[ChannelEventUpdate]
	if len(frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(frames))
	}
	var env Envelope
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.Type != "event_update" || env.ID == "" {
		t.Errorf("envelope = %+v", env)
	}
	var got domain.ActiveEventRecord
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got.EventID != "evt-1" {
		t.Errorf("payload EventID = %q", got.EventID)
	}
}

func TestBroadcastRemovalMarker(t *testing.T) {
	bus := newFakeBus()
	b := New(bus, discard())
	b.BroadcastRemoval(context.Background(), "evt-9")

	frames := bus.published[ChannelEventRemoved]
	if len(frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(frames))
	}
	var env Envelope
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	var payload RemovalPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.EventID != "evt-9" || !payload.Removed {
		t.Errorf("payload = %+v, want explicit removed marker", payload)
	}
}

func TestBroadcastSnapshotEmptySet(t *testing.T) {
	bus := newFakeBus()
	b := New(bus, discard())
	b.BroadcastSnapshot(context.Background(), nil)

	frames := bus.published[ChannelEventSnapshot]
	if len(frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(frames))
	}
	var env Envelope
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	// An empty snapshot must still be a JSON array, not null.
	if string(env.Payload) != "[]" {
		t.Errorf("payload = %s, want []", env.Payload)
	}
}

func TestPublishFailureSwallowed(t *testing.T) {
	bus := newFakeBus()
	bus.err = errors.New("bus down")
	b := New(bus, discard())

	// Must not panic or block.
	b.BroadcastUpdate(context.Background(), domain.ActiveEventRecord{EventID: "evt-1"})
	b.BroadcastRemoval(context.Background(), "evt-1")
	b.BroadcastSnapshot(context.Background(), nil)
}
