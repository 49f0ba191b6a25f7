package swordfish

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

const eventPayload = `{
	"success": true,
	"data": {
		"event_id": "1609842",
		"home": "Boston Celtics",
		"away": "Los Angeles Lakers",
		"sport": "basketball",
		"league": "NBA",
		"periods": {
			"num_0": {
				"money_line": {"home": -110, "draw": null, "away": -110},
				"spreads": {"-1.5": {"hdp": -1.5, "home": -105, "away": -115}},
				"totals": {"215.5": {"points": 215.5, "over": -110, "under": -110}},
				"team_total": {
					"home": {"points": 110.5, "over": -115, "under": -105}
				}
			},
			"num_1": {
				"money_line": {"home": -120, "draw": null, "away": 100}
			}
		}
	}
}`

func TestFetchEventOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/1609842/odds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(eventPayload))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	snap, err := c.FetchEventOdds(context.Background(), "1609842")
	if err != nil {
		t.Fatalf("FetchEventOdds: %v", err)
	}

	if snap.EventID != "1609842" || snap.Home != "Boston Celtics" {
		t.Errorf("snapshot header = %+v", snap)
	}
	// 2 moneyline + 2 spread + 2 total + 2 team total; the half-game period
	// is ignored.
	if len(snap.Markets) != 8 {
		t.Fatalf("markets = %d, want 8", len(snap.Markets))
	}

	var mlHome, spreadAway, ttHomeOver *domain.Market
	for i := range snap.Markets {
		m := &snap.Markets[i]
		switch {
		case m.Type == domain.MarketMoneyline && m.Selection == domain.SelectionHome:
			mlHome = m
		case m.Type == domain.MarketSpread && m.Selection == domain.SelectionAway:
			spreadAway = m
		case m.Type == domain.MarketTeamTotal && m.Selection == domain.SelectionOver && m.Team == domain.SelectionHome:
			ttHomeOver = m
		}
	}
	if mlHome == nil || spreadAway == nil || ttHomeOver == nil {
		t.Fatal("expected markets missing from snapshot")
	}

	q, ok := mlHome.Quote(DefaultSource)
	if !ok {
		t.Fatal("home moneyline has no reference quote")
	}
	if want := 100.0/110 + 1; math.Abs(q.Decimal-want) > 1e-9 {
		t.Errorf("home moneyline decimal = %v, want %v", q.Decimal, want)
	}
	if spreadAway.Line == nil || *spreadAway.Line != 1.5 {
		t.Errorf("away spread line = %v, want 1.5 (mirrored)", spreadAway.Line)
	}
	if ttHomeOver.Line == nil || *ttHomeOver.Line != 110.5 {
		t.Errorf("home team total line = %v, want 110.5", ttHomeOver.Line)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(eventPayload))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 2, RetryDelay: time.Millisecond})
	if _, err := c.FetchEventOdds(context.Background(), "1609842"); err != nil {
		t.Fatalf("FetchEventOdds after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 2, RetryDelay: time.Millisecond})
	if _, err := c.FetchEventOdds(context.Background(), "1609842"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond})
	_, err := c.FetchEventOdds(context.Background(), "gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 404)", calls.Load())
	}
}

func TestFetchFeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "event settled"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.FetchEventOdds(context.Background(), "1609842"); err == nil {
		t.Fatal("expected error for unsuccessful feed response")
	}
}

func TestAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("X-API-Key = %q", r.Header.Get("X-API-Key"))
		}
		w.Write([]byte(eventPayload))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	if _, err := c.FetchEventOdds(context.Background(), "1609842"); err != nil {
		t.Fatalf("FetchEventOdds: %v", err)
	}
}
