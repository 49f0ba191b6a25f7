// Package notify pushes opportunity alerts to operator channels. Messages
// are dispatched to all registered senders (Telegram, Discord) and can be
// filtered by event type so operators receive only the alerts they care
// about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// Event types the notifier can emit.
const (
	EventOpportunity = "opportunity"
	EventRemoval     = "removal"
)

// Sender is the interface each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier dispatches notifications to one or more Senders, filtered by
// event type. It implements domain.Notifier; delivery failures are logged
// and never propagate to the engine.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier delivering to the given senders. Only
// events whose type appears in the events slice are forwarded; an empty
// list allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyOpportunity announces a record with at least one positive-EV market.
func (n *Notifier) NotifyOpportunity(ctx context.Context, rec domain.ActiveEventRecord) {
	title := fmt.Sprintf("EV: %s vs %s", rec.Reference.Home, rec.Reference.Away)
	n.notify(ctx, EventOpportunity, title, formatOpportunity(rec))
}

// NotifyRemoval announces that an event left the cache.
func (n *Notifier) NotifyRemoval(ctx context.Context, eventID string) {
	n.notify(ctx, EventRemoval, "Event removed", fmt.Sprintf("Event %s is no longer tracked.", eventID))
}

func (n *Notifier) notify(ctx context.Context, event, title, message string) {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}
	if len(n.senders) == 0 {
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}

// formatOpportunity renders the positive-EV markets of a record, one line
// per market in snapshot order.
func formatOpportunity(rec domain.ActiveEventRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event %s via %s\n", rec.EventID, rec.TradableSource)
	for _, m := range rec.Reference.Markets {
		if m.EV <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%s %s", m.Type, m.Selection)
		if m.Team != "" {
			fmt.Fprintf(&b, " (%s)", m.Team)
		}
		if m.Line != nil {
			fmt.Fprintf(&b, " %g", *m.Line)
		}
		fmt.Fprintf(&b, ": EV %+.2f%%", m.EV*100)
		if q, ok := m.Quote(rec.TradableSource); ok {
			fmt.Fprintf(&b, " at %.3f (fair %.3f)", q.Decimal, m.FairDecimal)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
