// Package service implements the ingest boundary between raw screener
// alerts and the live opportunity cache.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kylemaddern/oddscreen/internal/correlate"
	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/odds"
)

// Alert is a raw screener hit: an event on the reference feed plus the
// tradable book's current prices for it. Team names come from the tradable
// book and may be spelled differently, or listed in the opposite order,
// from the reference feed.
type Alert struct {
	EventID        string          `json:"event_id"`
	Home           string          `json:"home"`
	Away           string          `json:"away"`
	Sport          string          `json:"sport,omitempty"`
	League         string          `json:"league,omitempty"`
	TradableSource string          `json:"tradable_source"`
	Markets        []domain.Market `json:"markets"`
}

// AlertService turns alerts into cached, priced opportunity records and
// exposes the read and lifecycle operations the API layer needs.
type AlertService struct {
	store    domain.EventStore
	fetcher  domain.ReferenceFetcher
	notifier domain.Notifier // nil disables notifications
	logger   *slog.Logger

	now       func() time.Time
	newID     func() string
	threshold float64
}

// New builds an AlertService. notifier may be nil.
func New(store domain.EventStore, fetcher domain.ReferenceFetcher,
	notifier domain.Notifier, logger *slog.Logger) *AlertService {
	return &AlertService{
		store:     store,
		fetcher:   fetcher,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "alerts")),
		now:       time.Now,
		newID:     uuid.NewString,
		threshold: correlate.DefaultThreshold,
	}
}

// WithThreshold overrides the minimum correlation score required between
// alert and reference team names.
func (s *AlertService) WithThreshold(t float64) *AlertService {
	if t > 0 {
		s.threshold = t
	}
	return s
}

// Ingest validates an alert, correlates it against the live reference feed,
// prices it and activates it in the cache. It returns the stored record.
//
// Prop, future and partial-game alerts are rejected with
// domain.ErrPropMarket; alerts whose teams do not correlate with the
// reference event are rejected with domain.ErrInvalidAlert.
func (s *AlertService) Ingest(ctx context.Context, alert Alert) (domain.ActiveEventRecord, error) {
	if alert.EventID == "" || alert.TradableSource == "" {
		return domain.ActiveEventRecord{}, fmt.Errorf("service: missing event id or tradable source: %w", domain.ErrInvalidAlert)
	}
	if alert.Home == "" || alert.Away == "" {
		return domain.ActiveEventRecord{}, fmt.Errorf("service: missing team names: %w", domain.ErrInvalidAlert)
	}
	if correlate.IsPropMarket(alert.Home, alert.Away) {
		return domain.ActiveEventRecord{}, fmt.Errorf("service: %q vs %q: %w", alert.Home, alert.Away, domain.ErrPropMarket)
	}

	reference, err := s.fetcher.FetchEventOdds(ctx, alert.EventID)
	if err != nil {
		return domain.ActiveEventRecord{}, fmt.Errorf("service: reference fetch for %s: %w", alert.EventID, err)
	}

	score, swapped := correlate.Orient(
		domain.EventSnapshot{Home: alert.Home, Away: alert.Away},
		reference,
	)
	if score < s.threshold {
		return domain.ActiveEventRecord{}, fmt.Errorf("service: alert teams %q/%q do not correlate with reference %q/%q (score %.3f): %w",
			alert.Home, alert.Away, reference.Home, reference.Away, score, domain.ErrInvalidAlert)
	}

	markets := domain.CloneMarkets(alert.Markets)
	if swapped {
		swapSides(markets)
	}
	mergeTradableQuotes(&reference, markets, alert.TradableSource)
	if alert.Sport != "" {
		reference.Sport = alert.Sport
	}
	if alert.League != "" {
		reference.League = alert.League
	}

	referenceSource := referenceSourceOf(reference, alert.TradableSource)
	odds.Annotate(&reference, referenceSource)
	positive := odds.ComputeEV(&reference, alert.TradableSource)

	now := s.now()
	rec := domain.ActiveEventRecord{
		EventID:        alert.EventID,
		AlertID:        s.newID(),
		ArrivedAt:      now,
		UpdatedAt:      now,
		Reference:      reference,
		TradableSource: alert.TradableSource,
	}
	s.store.Upsert(ctx, rec)

	s.logger.Info("alert activated",
		slog.String("event_id", rec.EventID),
		slog.String("alert_id", rec.AlertID),
		slog.Float64("match_score", score),
		slog.Bool("swapped", swapped),
		slog.Int("positive_ev_markets", positive),
	)

	if positive > 0 && s.notifier != nil {
		s.notifier.NotifyOpportunity(ctx, rec)
	}
	return rec, nil
}

// Get returns one cached record.
func (s *AlertService) Get(eventID string) (domain.ActiveEventRecord, error) {
	return s.store.Get(eventID)
}

// Snapshot returns all cached records, dismissed ones included.
func (s *AlertService) Snapshot() []domain.ActiveEventRecord {
	return s.store.GetAll()
}

// Dismiss hides a record from presentation without stopping its refresh.
func (s *AlertService) Dismiss(eventID string) error {
	if !s.store.Dismiss(eventID) {
		return fmt.Errorf("service: dismiss %s: %w", eventID, domain.ErrNotFound)
	}
	s.logger.Info("event dismissed", slog.String("event_id", eventID))
	return nil
}

// Undismiss returns a dismissed record to presentation.
func (s *AlertService) Undismiss(eventID string) error {
	if !s.store.Undismiss(eventID) {
		return fmt.Errorf("service: undismiss %s: %w", eventID, domain.ErrNotFound)
	}
	s.logger.Info("event undismissed", slog.String("event_id", eventID))
	return nil
}

// Remove drops a record immediately and notifies subscribers.
func (s *AlertService) Remove(ctx context.Context, eventID string) error {
	if !s.store.Remove(ctx, eventID) {
		return fmt.Errorf("service: remove %s: %w", eventID, domain.ErrNotFound)
	}
	if s.notifier != nil {
		s.notifier.NotifyRemoval(ctx, eventID)
	}
	return nil
}

// MatchEvents correlates two event lists from different sources, for the
// screen-vs-screen comparison endpoint. threshold <= 0 uses the default.
func (s *AlertService) MatchEvents(left, right []domain.EventSnapshot, threshold float64) []domain.MatchResult {
	return correlate.MatchEvents(left, right, threshold)
}

// swapSides flips home/away oriented selections in place, used when the
// tradable book lists the teams in the opposite order from the reference.
func swapSides(markets []domain.Market) {
	flip := func(sel domain.Selection) domain.Selection {
		switch sel {
		case domain.SelectionHome:
			return domain.SelectionAway
		case domain.SelectionAway:
			return domain.SelectionHome
		default:
			return sel
		}
	}
	for i := range markets {
		markets[i].Selection = flip(markets[i].Selection)
		markets[i].Team = flip(markets[i].Team)
		if markets[i].Type == domain.MarketSpread && markets[i].Line != nil {
			line := -*markets[i].Line
			markets[i].Line = &line
		}
	}
}

// mergeTradableQuotes copies the book's quotes onto the matching reference
// markets by market identity. Markets the reference does not carry are
// dropped; there is no fair price to compare them against.
func mergeTradableQuotes(reference *domain.EventSnapshot, tradable []domain.Market, source string) {
	quotes := make(map[domain.MarketKey]domain.Quote, len(tradable))
	for _, m := range tradable {
		if q, ok := m.Quotes[source]; ok {
			quotes[m.Key()] = q
		}
	}
	for i := range reference.Markets {
		q, ok := quotes[reference.Markets[i].Key()]
		if !ok {
			continue
		}
		if reference.Markets[i].Quotes == nil {
			reference.Markets[i].Quotes = make(map[string]domain.Quote, 1)
		}
		reference.Markets[i].Quotes[source] = q
	}
}

// referenceSourceOf returns the source id the fair prices derive from: the
// first quote source that is not the tradable book.
func referenceSourceOf(snap domain.EventSnapshot, tradableSource string) string {
	for _, m := range snap.Markets {
		for src := range m.Quotes {
			if src != tradableSource {
				return src
			}
		}
	}
	return ""
}
