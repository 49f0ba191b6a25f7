package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/store/memstore"
)

type fakeBroadcaster struct {
	mu        sync.Mutex
	updates   []string
	removals  []string
	snapshots int
}

func (b *fakeBroadcaster) BroadcastUpdate(_ context.Context, rec domain.ActiveEventRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, rec.EventID)
}

func (b *fakeBroadcaster) BroadcastRemoval(_ context.Context, eventID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removals = append(b.removals, eventID)
}

func (b *fakeBroadcaster) BroadcastSnapshot(_ context.Context, _ []domain.ActiveEventRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots++
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	snap  domain.EventSnapshot
	err   error
}

func (f *fakeFetcher) FetchEventOdds(_ context.Context, eventID string) (domain.EventSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.EventSnapshot{}, f.err
	}
	snap := f.snap.Clone()
	snap.EventID = eventID
	return snap, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freshSnapshot() domain.EventSnapshot {
	juiced := 100.0/110 + 1
	return domain.EventSnapshot{
		Home: "Boston Celtics",
		Away: "Los Angeles Lakers",
		Markets: []domain.Market{
			{
				Type:      domain.MarketMoneyline,
				Selection: domain.SelectionHome,
				Quotes:    map[string]domain.Quote{"sharp": {Source: "sharp", Decimal: juiced}},
			},
			{
				Type:      domain.MarketMoneyline,
				Selection: domain.SelectionAway,
				Quotes:    map[string]domain.Quote{"sharp": {Source: "sharp", Decimal: juiced}},
			},
		},
	}
}

// storedRecord builds a cached record whose home moneyline carries the given
// EV and a tradable quote from "book".
func storedRecord(id string, arrived time.Time, ev float64) domain.ActiveEventRecord {
	snap := freshSnapshot()
	snap.EventID = id
	for i := range snap.Markets {
		snap.Markets[i].Quotes["book"] = domain.Quote{Source: "book", Decimal: 2.1}
		snap.Markets[i].FairDecimal = 2.0
		snap.Markets[i].EV = -0.02
	}
	snap.Markets[0].EV = ev
	return domain.ActiveEventRecord{
		EventID:        id,
		AlertID:        "alert-" + id,
		ArrivedAt:      arrived,
		UpdatedAt:      arrived,
		Reference:      snap,
		TradableSource: "book",
	}
}

func newTestRefresher(t *testing.T, fetcher domain.ReferenceFetcher) (*Refresher, *memstore.Store, *fakeBroadcaster) {
	t.Helper()
	b := &fakeBroadcaster{}
	store := memstore.New(b, discard())
	r := New(Config{}, store, fetcher, b, discard())
	return r, store, b
}

func TestPassRefreshesLiveRecord(t *testing.T) {
	fetcher := &fakeFetcher{snap: freshSnapshot()}
	r, store, _ := newTestRefresher(t, fetcher)
	ctx := context.Background()

	arrived := time.Now()
	store.Upsert(ctx, storedRecord("evt-1", arrived, 0.05))

	later := arrived.Add(10 * time.Second)
	r.now = func() time.Time { return later }

	if err := r.pass(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.callCount())
	}

	got, err := store.Get("evt-1")
	if err != nil {
		t.Fatalf("record gone after refresh: %v", err)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
	if !got.ArrivedAt.Equal(arrived) {
		t.Errorf("ArrivedAt changed on refresh: %v", got.ArrivedAt)
	}
	// Tradable quotes carried over and repriced against the fresh book.
	home := got.Reference.Markets[0]
	if _, ok := home.Quotes["book"]; !ok {
		t.Error("tradable quote lost during refresh")
	}
	if home.FairDecimal < 1.99 || home.FairDecimal > 2.01 {
		t.Errorf("FairDecimal = %v, want ~2.0", home.FairDecimal)
	}
	if home.EV <= 0 {
		t.Errorf("EV = %v, want positive for 2.1 against 2.0", home.EV)
	}
}

func TestFetchFailureKeepsRecord(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("feed down")}
	r, store, b := newTestRefresher(t, fetcher)
	ctx := context.Background()

	arrived := time.Now()
	store.Upsert(ctx, storedRecord("evt-1", arrived, 0.05))
	r.now = func() time.Time { return arrived.Add(10 * time.Second) }

	if err := r.pass(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}
	got, err := store.Get("evt-1")
	if err != nil {
		t.Fatalf("record removed on fetch failure: %v", err)
	}
	if !got.UpdatedAt.Equal(arrived) {
		t.Error("UpdatedAt advanced despite failed fetch")
	}
	if len(b.removals) != 0 {
		t.Errorf("removals = %v, want none", b.removals)
	}
}

func TestNegativeRecordFrozenThenRemovedByForcedCleanup(t *testing.T) {
	fetcher := &fakeFetcher{snap: freshSnapshot()}
	r, store, b := newTestRefresher(t, fetcher)
	ctx := context.Background()

	arrived := time.Now()
	store.Upsert(ctx, storedRecord("evt-1", arrived, -0.05))
	r.now = func() time.Time { return arrived.Add(90 * time.Second) }

	// Regular passes skip the frozen record entirely: no fetch, no removal.
	for i := 0; i < 5; i++ {
		if err := r.pass(ctx); err != nil {
			t.Fatalf("pass: %v", err)
		}
	}
	if fetcher.callCount() != 0 {
		t.Errorf("frozen record was fetched %d times", fetcher.callCount())
	}
	if _, err := store.Get("evt-1"); err != nil {
		t.Fatal("frozen record removed outside forced cleanup")
	}

	// The forced pass is authoritative.
	r.iteration = r.cfg.CleanupEvery - 1
	if err := r.pass(ctx); err != nil {
		t.Fatalf("forced pass: %v", err)
	}
	if _, err := store.Get("evt-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("frozen record survived forced cleanup: %v", err)
	}
	if len(b.removals) != 1 || b.removals[0] != "evt-1" {
		t.Errorf("removals = %v, want exactly one for evt-1", b.removals)
	}
	if b.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1 after forced pass", b.snapshots)
	}
}

func TestNegativeRecordStillRefreshedInsideTTL(t *testing.T) {
	fetcher := &fakeFetcher{snap: freshSnapshot()}
	r, store, _ := newTestRefresher(t, fetcher)
	ctx := context.Background()

	arrived := time.Now()
	store.Upsert(ctx, storedRecord("evt-1", arrived, -0.05))
	r.now = func() time.Time { return arrived.Add(30 * time.Second) }

	if err := r.pass(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1 inside the fast TTL", fetcher.callCount())
	}
}

func TestPositiveRecordExpiresAfterLongTTL(t *testing.T) {
	fetcher := &fakeFetcher{snap: freshSnapshot()}
	r, store, _ := newTestRefresher(t, fetcher)
	ctx := context.Background()

	arrived := time.Now()
	store.Upsert(ctx, storedRecord("evt-1", arrived, 0.05))

	r.now = func() time.Time { return arrived.Add(170 * time.Second) }
	if err := r.pass(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if _, err := store.Get("evt-1"); err != nil {
		t.Fatal("positive record expired before its TTL")
	}
}

func TestPositiveRecordRemovedPastTTL(t *testing.T) {
	// Fetcher keeps the edge alive so the record stays positive-EV.
	fetcher := &fakeFetcher{err: errors.New("feed down")}
	r, store, b := newTestRefresher(t, fetcher)
	ctx := context.Background()

	arrived := time.Now()
	store.Upsert(ctx, storedRecord("evt-1", arrived, 0.05))

	r.now = func() time.Time { return arrived.Add(190 * time.Second) }
	if err := r.pass(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if _, err := store.Get("evt-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("record survived past the long TTL: %v", err)
	}
	if len(b.removals) != 1 {
		t.Errorf("removals = %v, want exactly one", b.removals)
	}
}

func TestCorruptRecordEvicted(t *testing.T) {
	fetcher := &fakeFetcher{snap: freshSnapshot()}
	r, store, b := newTestRefresher(t, fetcher)
	ctx := context.Background()

	rec := storedRecord("evt-1", time.Now(), 0.05)
	rec.TradableSource = ""
	store.Upsert(ctx, rec)

	if err := r.pass(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if _, err := store.Get("evt-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("corrupt record survived: %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Error("corrupt record was fetched before eviction")
	}
	if len(b.removals) != 1 {
		t.Errorf("removals = %v, want exactly one", b.removals)
	}
}
