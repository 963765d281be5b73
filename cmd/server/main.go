package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/treasurehunt/internal/catalog"
	"github.com/playperu/treasurehunt/internal/config"
	"github.com/playperu/treasurehunt/internal/database"
	"github.com/playperu/treasurehunt/internal/handler/health"
	"github.com/playperu/treasurehunt/internal/server"
	"github.com/playperu/treasurehunt/internal/session"
	"github.com/playperu/treasurehunt/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	hunt, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	logger.Info("catalog loaded", "title", hunt.Title, "locations", len(hunt.Locations))

	// --- Store ---
	primary, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer primary.Close()
	logger.Info("store opened", "backend", cfg.StoreBackend)

	checks := health.NewHandler(logger, map[string]health.Checker{
		"store": health.CheckerFunc(primary.Ping),
	})

	// --- Redis progress cache ---
	var progress store.ProgressStore = primary
	if cfg.RedisURL != "" {
		rdb, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis", "progress_ttl", cfg.ProgressTTL)

		cache := store.NewRedisProgress(rdb, cfg.ProgressTTL)
		progress = &store.Tiered{Cache: cache, Primary: primary, Logger: logger}
		checks.Optional("redis", health.CheckerFunc(cache.Ping))
	}

	// --- Sessions ---
	broker := server.NewBroker()
	games := session.NewManager(hunt, progress, primary, broker, logger, session.Options{
		StartingScore:    cfg.StartingScore,
		PauseGapPolicy:   cfg.PauseGapPolicy,
		AutosaveInterval: cfg.AutosaveInterval,
		IdleTimeout:      cfg.TokenTTL,
	})

	tokens, err := server.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Games:  games,
		Tokens: tokens,
		Broker: broker,
	}, func(r chi.Router) {
		r.Mount("/healthz", checks.Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting autosave", "interval", cfg.AutosaveInterval)
		return games.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		s, err := store.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		s, err := store.NewSQLiteStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return s, nil
	}
}
