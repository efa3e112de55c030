package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isbjornDAO/tundra-sub002/internal/api"
	"github.com/isbjornDAO/tundra-sub002/internal/config"
	"github.com/isbjornDAO/tundra-sub002/internal/db"
	"github.com/isbjornDAO/tundra-sub002/internal/identity"
	"github.com/isbjornDAO/tundra-sub002/internal/service"
	"github.com/isbjornDAO/tundra-sub002/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(cfg config.Config, logger *slog.Logger) error {
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(database); err != nil {
		return err
	}

	tournamentStore := store.NewTournamentStore(database)
	engine := service.NewEngine(service.Config{
		MaxCapacity:         cfg.MaxCapacity,
		AutoGenerateBracket: cfg.AutoGenerateBracket,
		Logger:              logger,
		Identity:            identity.NewStaticResolver(cfg.AdminIDs),
		Recorder:            tournamentStore,
		Notifiers:           []service.Notifier{service.LogNotifier{Logger: logger}},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snaps, err := tournamentStore.LoadSnapshots(ctx)
	if err != nil {
		return err
	}
	if err := engine.Restore(snaps); err != nil {
		return err
	}

	go promoteDueMatches(ctx, engine, cfg.PromoteInterval, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(engine, cfg.CORSOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return server.Close()
	}
	logger.Info("server shutdown complete")
	return nil
}

// promoteDueMatches moves scheduled matches whose start time has passed to awaiting-result.
func promoteDueMatches(ctx context.Context, engine *service.Engine, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("match promotion scheduler started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := engine.PromoteDueMatches(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("failed to promote due matches", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("promoted due matches", "count", n)
			}
		}
	}
}
