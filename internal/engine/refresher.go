// Package engine drives the background refresh loop that keeps every cached
// opportunity priced against the live reference feed and expires the ones
// that stop being interesting.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/odds"
)

// Config controls the refresh loop cadence and expiry rules.
type Config struct {
	// Interval between refresh passes.
	Interval time.Duration
	// PositiveTTL is the lifetime of a record with at least one
	// positive-EV market.
	PositiveTTL time.Duration
	// NegativeTTL is the lifetime of a record whose every market is
	// non-positive EV. Past it the record is frozen, not refreshed, and
	// left for the next forced cleanup.
	NegativeTTL time.Duration
	// CleanupEvery forces a full cleanup pass every Nth iteration. The
	// forced pass is the only one that removes frozen records, and it
	// rebroadcasts the full active snapshot.
	CleanupEvery int
	// FetchTimeout bounds a single reference fetch.
	FetchTimeout time.Duration
	// Backoff is the pause after a pass fails outright.
	Backoff time.Duration
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.PositiveTTL <= 0 {
		c.PositiveTTL = domain.PositiveEVTTL
	}
	if c.NegativeTTL <= 0 {
		c.NegativeTTL = domain.NegativeEVTTL
	}
	if c.CleanupEvery <= 0 {
		c.CleanupEvery = 20
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.Backoff <= 0 {
		c.Backoff = 5 * time.Second
	}
}

// Refresher periodically re-fetches reference odds for every active event,
// recomputes fair prices and EV, and ages records out of the cache.
type Refresher struct {
	cfg         Config
	store       domain.EventStore
	fetcher     domain.ReferenceFetcher
	broadcaster domain.Broadcaster
	logger      *slog.Logger

	now       func() time.Time
	iteration int
}

// New builds a Refresher. Zero config fields take their defaults.
func New(cfg Config, store domain.EventStore, fetcher domain.ReferenceFetcher,
	broadcaster domain.Broadcaster, logger *slog.Logger) *Refresher {
	cfg.applyDefaults()
	return &Refresher{
		cfg:         cfg,
		store:       store,
		fetcher:     fetcher,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "refresher")),
		now:         time.Now,
	}
}

// Run executes refresh passes on the configured interval until the context
// is cancelled. A failed pass logs, backs off and continues; the loop itself
// only ends with the context.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("starting",
		slog.Duration("interval", r.cfg.Interval),
		slog.Duration("positive_ttl", r.cfg.PositiveTTL),
		slog.Duration("negative_ttl", r.cfg.NegativeTTL),
		slog.Int("cleanup_every", r.cfg.CleanupEvery),
	)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping")
			return nil
		case <-ticker.C:
			if err := r.pass(ctx); err != nil {
				r.logger.Error("pass failed", slog.Any("error", err))
				select {
				case <-ctx.Done():
					r.logger.Info("stopping")
					return nil
				case <-time.After(r.cfg.Backoff):
				}
			}
		}
	}
}

// pass runs one refresh iteration over a snapshot of the cache.
func (r *Refresher) pass(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("engine: pass panic: %v", rec)
		}
	}()

	r.iteration++
	forced := r.iteration%r.cfg.CleanupEvery == 0
	now := r.now()

	records := r.store.GetAll()
	for _, rec := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.processRecord(ctx, rec, now, forced)
	}

	if forced {
		active := r.liveRecords()
		r.broadcaster.BroadcastSnapshot(ctx, active)
		r.logger.Info("forced cleanup",
			slog.Int("iteration", r.iteration),
			slog.Int("active", len(active)),
		)
	}
	return nil
}

// liveRecords returns every record that is not frozen, for snapshot fan-out.
func (r *Refresher) liveRecords() []domain.ActiveEventRecord {
	now := r.now()
	var out []domain.ActiveEventRecord
	for _, rec := range r.store.GetAll() {
		if r.frozen(rec, now) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// frozen reports whether the record has aged past the fast TTL with nothing
// positive to show. Frozen records are skipped by the regular pass and
// removed only by the forced cleanup, so a short EV dip near the boundary
// cannot flap the record in and out of existence.
func (r *Refresher) frozen(rec domain.ActiveEventRecord, now time.Time) bool {
	return rec.AllNegativeEV() && rec.Age(now) > r.cfg.NegativeTTL
}

// processRecord applies the lifecycle rules to one record and refreshes it
// if it stays. A panic in one record never takes down the pass.
func (r *Refresher) processRecord(ctx context.Context, rec domain.ActiveEventRecord, now time.Time, forced bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("record refresh panic",
				slog.String("event_id", rec.EventID),
				slog.Any("panic", p),
			)
		}
	}()

	if err := rec.Validate(); err != nil {
		r.logger.Warn("removing corrupt record",
			slog.String("event_id", rec.EventID),
			slog.Any("error", err),
		)
		r.store.Remove(ctx, rec.EventID)
		return
	}

	if r.frozen(rec, now) {
		if forced {
			r.logger.Info("expiring frozen record",
				slog.String("event_id", rec.EventID),
				slog.Duration("age", rec.Age(now)),
			)
			r.store.Remove(ctx, rec.EventID)
		}
		return
	}

	if !rec.AllNegativeEV() && rec.Age(now) > r.cfg.PositiveTTL {
		r.logger.Info("expiring record",
			slog.String("event_id", rec.EventID),
			slog.Duration("age", rec.Age(now)),
		)
		r.store.Remove(ctx, rec.EventID)
		return
	}

	r.refresh(ctx, rec, now)
}

// refresh re-fetches the reference odds for one record and upserts the
// repriced result. The per-event lock keeps a concurrent ingest for the same
// event from interleaving; the store lock is never held here.
func (r *Refresher) refresh(ctx context.Context, rec domain.ActiveEventRecord, now time.Time) {
	lock := r.store.EventLock(rec.EventID)
	if err := lock.Lock(ctx); err != nil {
		return
	}
	defer lock.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	snap, err := r.fetcher.FetchEventOdds(fetchCtx, rec.EventID)
	cancel()
	if err != nil {
		r.logger.Warn("reference fetch failed",
			slog.String("event_id", rec.EventID),
			slog.Any("error", err),
		)
		return
	}

	// The fresh reference snapshot has no tradable quotes; carry the last
	// known book prices over by market identity.
	mergeQuotes(&snap, rec.Reference.Markets, rec.TradableSource)

	odds.Annotate(&snap, referenceSourceOf(snap, rec))
	odds.ComputeEV(&snap, rec.TradableSource)

	r.logPriceDiffs(rec, snap)

	updated := rec
	updated.Reference = snap
	updated.UpdatedAt = now
	r.store.Upsert(ctx, updated)
}

// referenceSourceOf picks the source id fair prices are derived from. The
// fetcher stamps its own id on every quote; fall back to the first non-book
// source seen.
func referenceSourceOf(snap domain.EventSnapshot, rec domain.ActiveEventRecord) string {
	for _, m := range snap.Markets {
		for src := range m.Quotes {
			if src != rec.TradableSource {
				return src
			}
		}
	}
	return ""
}

// mergeQuotes copies the tradable source's quotes from the previous markets
// into the fresh snapshot wherever the market identity still exists.
func mergeQuotes(snap *domain.EventSnapshot, previous []domain.Market, tradableSource string) {
	prior := make(map[domain.MarketKey]domain.Quote, len(previous))
	for _, m := range previous {
		if q, ok := m.Quotes[tradableSource]; ok {
			prior[m.Key()] = q
		}
	}
	for i := range snap.Markets {
		q, ok := prior[snap.Markets[i].Key()]
		if !ok {
			continue
		}
		if snap.Markets[i].Quotes == nil {
			snap.Markets[i].Quotes = make(map[string]domain.Quote, 1)
		}
		if _, exists := snap.Markets[i].Quotes[tradableSource]; !exists {
			snap.Markets[i].Quotes[tradableSource] = q
		}
	}
}

// logPriceDiffs logs fair price and EV movement per market. Observability
// only; the upsert happens regardless of whether anything moved.
func (r *Refresher) logPriceDiffs(old domain.ActiveEventRecord, fresh domain.EventSnapshot) {
	if !r.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	before := make(map[domain.MarketKey]domain.Market, len(old.Reference.Markets))
	for _, m := range old.Reference.Markets {
		before[m.Key()] = m
	}
	for _, m := range fresh.Markets {
		prev, ok := before[m.Key()]
		if !ok {
			continue
		}
		if prev.FairDecimal == m.FairDecimal && prev.EV == m.EV {
			continue
		}
		r.logger.Debug("price moved",
			slog.String("event_id", old.EventID),
			slog.String("market", string(m.Type)),
			slog.String("selection", string(m.Selection)),
			slog.Float64("fair_before", prev.FairDecimal),
			slog.Float64("fair_after", m.FairDecimal),
			slog.Float64("ev_before", prev.EV),
			slog.Float64("ev_after", m.EV),
		)
	}
}
