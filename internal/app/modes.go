package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/engine"
	"github.com/kylemaddern/oddscreen/internal/server"
	"github.com/kylemaddern/oddscreen/internal/server/handler"
	"github.com/kylemaddern/oddscreen/internal/server/ws"
)

// EngineMode runs the full screen: the background refresher that keeps every
// active event priced and aged, plus the HTTP/WebSocket API when enabled.
func (a *App) EngineMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting engine mode")

	g, ctx := errgroup.WithContext(ctx)

	refresher := engine.New(engine.Config{
		Interval:     a.cfg.Engine.Interval.Duration,
		PositiveTTL:  a.cfg.Engine.PositiveTTL.Duration,
		NegativeTTL:  a.cfg.Engine.NegativeTTL.Duration,
		CleanupEvery: a.cfg.Engine.CleanupEvery,
		FetchTimeout: a.cfg.Engine.FetchTimeout.Duration,
	}, deps.Store, deps.Fetcher, deps.Broadcaster, a.logger)
	g.Go(func() error {
		return refresher.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// MonitorMode serves the API and WebSocket feed over an externally maintained
// cache. No refresh passes run; records are read and relayed only.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	// The server is the whole point of monitor mode; run it regardless of
	// the server.enabled flag.
	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// startHTTPServer adds the HTTP server and WebSocket hub goroutines to the
// given errgroup. The server is shut down gracefully when the context is
// cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	startedAt := time.Now().UTC()

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: startedAt,
		Snapshot: func() []domain.ActiveEventRecord {
			return deps.AlertService.Snapshot()
		},
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(a.cfg.Mode, startedAt, deps.Store.Len, hub.ClientCount),
		Events: handler.NewEventHandler(deps.AlertService, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		APIKey:       a.cfg.Server.APIKey,
		IngestLimit:  a.cfg.Server.IngestLimit,
		IngestWindow: a.cfg.Server.IngestWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
