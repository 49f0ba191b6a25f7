package domain

import (
	"fmt"
	"time"
)

// TTLs applied by the background refresher. A record whose every market is
// non-positive EV expires fast; a record with at least one positive-EV market
// is kept alive longer.
const (
	NegativeEVTTL = 60 * time.Second
	PositiveEVTTL = 180 * time.Second
)

// ActiveEventRecord is one entry of the live opportunity cache: the latest
// reference view of an event (fair prices computed), the tradable source its
// quotes are compared against, and the derived per-market EV.
type ActiveEventRecord struct {
	// EventID is the stable cache key, taken from the reference feed.
	EventID string `json:"event_id"`
	// AlertID identifies the ingest alert that created the record.
	AlertID string `json:"alert_id"`
	// ArrivedAt is set once at creation and never changes afterwards.
	ArrivedAt time.Time `json:"arrived_at"`
	// UpdatedAt moves forward on every successful refresh or merge.
	UpdatedAt time.Time `json:"updated_at"`
	// Reference is the latest reference-source snapshot with fair prices
	// and EV filled in. Tradable quotes live in each market's quote map
	// under TradableSource.
	Reference EventSnapshot `json:"reference"`
	// TradableSource is the source id of the book being compared.
	TradableSource string `json:"tradable_source"`
	// Dismissed suppresses the record client-side; it does not affect
	// refreshing or expiry.
	Dismissed bool `json:"dismissed"`
}

// Validate checks the structural invariants every cached record must hold.
// A failing record is corrupt and must be evicted, not processed.
func (r ActiveEventRecord) Validate() error {
	if r.EventID == "" {
		return fmt.Errorf("record: empty event id")
	}
	if r.Reference.EventID == "" {
		return fmt.Errorf("record %s: missing reference snapshot", r.EventID)
	}
	if r.TradableSource == "" {
		return fmt.Errorf("record %s: missing tradable source", r.EventID)
	}
	return nil
}

// Age returns how long the record has been in the cache.
func (r ActiveEventRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.ArrivedAt)
}

// AllNegativeEV reports whether every market's EV is non-positive. A record
// with no markets counts as all-negative by convention, so empty records age
// out on the fast TTL.
func (r ActiveEventRecord) AllNegativeEV() bool {
	for _, m := range r.Reference.Markets {
		if m.EV > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can never observe partial mutation of
// a stored record.
func (r ActiveEventRecord) Clone() ActiveEventRecord {
	out := r
	out.Reference = r.Reference.Clone()
	return out
}
