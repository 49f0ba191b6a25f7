package domain

import (
	"context"
	"time"
)

// EventStore is the live opportunity cache. Implementations must be safe for
// concurrent use and must return deep copies so callers never share mutable
// state with the store.
type EventStore interface {
	// Get returns a copy of the record, or ErrNotFound.
	Get(eventID string) (ActiveEventRecord, error)
	// GetAll returns copies of every record, dismissed ones included.
	GetAll() []ActiveEventRecord
	// Upsert inserts or replaces a record and fans the new state out to
	// every subscriber.
	Upsert(ctx context.Context, rec ActiveEventRecord)
	// Remove deletes a record and broadcasts an explicit removal marker.
	// Removing an absent id is a no-op and broadcasts nothing.
	Remove(ctx context.Context, eventID string) bool
	// MergeUpdate applies fn to the stored record under the store lock and
	// reports whether the record existed. fn must not block.
	MergeUpdate(eventID string, fn func(*ActiveEventRecord)) bool
	// Dismiss marks a record hidden without removing it.
	Dismiss(eventID string) bool
	// Undismiss restores a dismissed record to presentation.
	Undismiss(eventID string) bool
	// IsDismissed reports whether the id has been dismissed, even after the
	// record itself has been removed.
	IsDismissed(eventID string) bool
	// EventLock returns the per-event mutex serializing refresh work for one
	// event without blocking the whole store.
	EventLock(eventID string) *EventMutex
	// Len reports the number of cached records.
	Len() int
}

// EventMutex is the per-event lock handed out by EventLock.
type EventMutex struct {
	ch chan struct{}
}

// NewEventMutex returns an unlocked per-event mutex.
func NewEventMutex() *EventMutex {
	m := &EventMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

// Lock blocks until the mutex is held or the context is done.
func (m *EventMutex) Lock(ctx context.Context) error {
	select {
	case <-m.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock releases the mutex. Unlocking an unheld mutex panics.
func (m *EventMutex) Unlock() {
	select {
	case m.ch <- struct{}{}:
	default:
		panic("domain: unlock of unlocked event mutex")
	}
}

// Broadcaster fans state changes out to connected clients. Implementations
// must never block the caller on slow consumers; delivery failures are logged
// and swallowed.
type Broadcaster interface {
	// BroadcastUpdate publishes a single updated record.
	BroadcastUpdate(ctx context.Context, rec ActiveEventRecord)
	// BroadcastRemoval publishes an explicit removal marker for the id.
	BroadcastRemoval(ctx context.Context, eventID string)
	// BroadcastSnapshot publishes the full active set.
	BroadcastSnapshot(ctx context.Context, recs []ActiveEventRecord)
}

// ReferenceFetcher pulls the latest sharp-book odds for one event.
type ReferenceFetcher interface {
	FetchEventOdds(ctx context.Context, eventID string) (EventSnapshot, error)
}

// SignalBus is a lightweight pub/sub transport between the engine and any
// number of API processes.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers messages for the given channel patterns until ctx
	// is cancelled. The returned channel is closed on cancellation.
	Subscribe(ctx context.Context, patterns ...string) (<-chan BusMessage, error)
	Close() error
}

// BusMessage is one message delivered by a SignalBus subscription.
type BusMessage struct {
	Channel string
	Payload []byte
}

// RateLimiter gates the ingest endpoint per client key.
type RateLimiter interface {
	// Allow reports whether the key may proceed within the window. On
	// backend failure implementations fail open and return true.
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// Notifier pushes human-facing alerts to external channels.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, rec ActiveEventRecord)
	NotifyRemoval(ctx context.Context, eventID string)
}
