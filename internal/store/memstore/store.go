// Package memstore holds the live opportunity cache in process memory. The
// engine is the single writer; API handlers and the WebSocket hub read
// concurrently. Nothing here survives a restart, which is intentional: every
// record is refreshed from live feeds within seconds anyway.
package memstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// Store is an in-memory domain.EventStore. A coarse mutex guards the maps;
// it is never held across a broadcast or a fetch. Per-event mutexes serialize
// refresh work for one event without stalling the rest.
type Store struct {
	mu        sync.Mutex
	records   map[string]domain.ActiveEventRecord
	locks     map[string]*domain.EventMutex
	dismissed map[string]struct{}

	broadcaster domain.Broadcaster
	logger      *slog.Logger
}

var _ domain.EventStore = (*Store)(nil)

// New creates an empty store that fans changes out through the broadcaster.
func New(broadcaster domain.Broadcaster, logger *slog.Logger) *Store {
	return &Store{
		records:     make(map[string]domain.ActiveEventRecord),
		locks:       make(map[string]*domain.EventMutex),
		dismissed:   make(map[string]struct{}),
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "memstore")),
	}
}

// Get returns a copy of the record, or domain.ErrNotFound.
func (s *Store) Get(eventID string) (domain.ActiveEventRecord, error) {
	s.mu.Lock()
	rec, ok := s.records[eventID]
	s.mu.Unlock()
	if !ok {
		return domain.ActiveEventRecord{}, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

// GetAll returns copies of every record, sorted by arrival for stable API
// output. Dismissed records are included; presentation filters them.
func (s *Store) GetAll() []domain.ActiveEventRecord {
	s.mu.Lock()
	out := make([]domain.ActiveEventRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ArrivedAt.Equal(out[j].ArrivedAt) {
			return out[i].EventID < out[j].EventID
		}
		return out[i].ArrivedAt.Before(out[j].ArrivedAt)
	})
	return out
}

// Len reports the number of cached records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Upsert inserts or replaces a record and broadcasts the updated state. The
// broadcast happens outside the store lock.
func (s *Store) Upsert(ctx context.Context, rec domain.ActiveEventRecord) {
	stored := rec.Clone()
	s.mu.Lock()
	if _, dismissed := s.dismissed[rec.EventID]; dismissed {
		stored.Dismissed = true
	}
	s.records[rec.EventID] = stored
	s.mu.Unlock()

	s.broadcaster.BroadcastUpdate(ctx, stored.Clone())
}

// Remove deletes the record and broadcasts an explicit removal marker so
// clients drop the row instead of waiting for it to go stale. Removing an
// absent id is a no-op.
func (s *Store) Remove(ctx context.Context, eventID string) bool {
	s.mu.Lock()
	_, ok := s.records[eventID]
	if ok {
		delete(s.records, eventID)
		delete(s.locks, eventID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.logger.Info("event removed", slog.String("event_id", eventID))
	s.broadcaster.BroadcastRemoval(ctx, eventID)
	return true
}

// MergeUpdate applies fn to the stored record under the store lock. fn must
// not block. No broadcast happens here; callers follow up with Upsert when
// the change should reach clients.
func (s *Store) MergeUpdate(eventID string, fn func(*domain.ActiveEventRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[eventID]
	if !ok {
		return false
	}
	fn(&rec)
	s.records[eventID] = rec
	return true
}

// Dismiss hides the record from presentation without touching its refresh
// lifecycle. The id stays remembered after removal so a late re-ingest of
// the same event arrives pre-dismissed.
func (s *Store) Dismiss(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed[eventID] = struct{}{}
	rec, ok := s.records[eventID]
	if !ok {
		return false
	}
	rec.Dismissed = true
	s.records[eventID] = rec
	return true
}

// Undismiss returns a previously dismissed record to presentation and
// forgets the id, so a future re-ingest arrives visible again.
func (s *Store) Undismiss(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dismissed, eventID)
	rec, ok := s.records[eventID]
	if !ok {
		return false
	}
	rec.Dismissed = false
	s.records[eventID] = rec
	return true
}

// IsDismissed reports whether the id has ever been dismissed.
func (s *Store) IsDismissed(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dismissed[eventID]
	return ok
}

// EventLock returns the per-event mutex, creating it on first use. Locks
// persist for the lifetime of the record and are dropped with it.
func (s *Store) EventLock(eventID string) *domain.EventMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[eventID]
	if !ok {
		m = domain.NewEventMutex()
		s.locks[eventID] = m
	}
	return m
}
