package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kylemaddern/oddscreen/internal/broadcast"
	"github.com/kylemaddern/oddscreen/internal/cache/redis"
	"github.com/kylemaddern/oddscreen/internal/config"
	"github.com/kylemaddern/oddscreen/internal/domain"
	"github.com/kylemaddern/oddscreen/internal/notify"
	"github.com/kylemaddern/oddscreen/internal/platform/swordfish"
	"github.com/kylemaddern/oddscreen/internal/service"
	"github.com/kylemaddern/oddscreen/internal/store/memstore"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	Store       domain.EventStore
	Fetcher     domain.ReferenceFetcher
	Broadcaster domain.Broadcaster
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	AlertService *service.AlertService
	Notifier     *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient, "ratelimit", logger)

	// --- Broadcast + store ---
	deps.Broadcaster = broadcast.New(deps.SignalBus, logger)
	deps.Store = memstore.New(deps.Broadcaster, logger)

	// --- Reference feed ---
	deps.Fetcher = swordfish.NewClient(swordfish.Config{
		BaseURL:    cfg.Reference.BaseURL,
		APIKey:     cfg.Reference.APIKey,
		Source:     cfg.Reference.Source,
		Timeout:    cfg.Reference.Timeout.Duration,
		MaxRetries: cfg.Reference.MaxRetries,
		RetryDelay: cfg.Reference.RetryDelay.Duration,
	})

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Alert service ---
	deps.AlertService = service.New(deps.Store, deps.Fetcher, deps.Notifier, logger).
		WithThreshold(cfg.Correlate.Threshold)

	return deps, cleanup, nil
}
