package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journey-tracker/internal/api"
	"journey-tracker/internal/config"
	"journey-tracker/internal/curve"
	"journey-tracker/internal/db"
	"journey-tracker/internal/feed"
	"journey-tracker/internal/journey"
	"journey-tracker/internal/logging"
	"journey-tracker/internal/metrics"
	"journey-tracker/internal/publisher"
	"journey-tracker/internal/tracker"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("config error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level, cfg.LogFormat)
	slog.SetDefault(logger)

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "tracker stopped", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	j, err := journey.Load(cfg.RouteFile)
	if err != nil {
		return err
	}
	rt, err := j.Route()
	if err != nil {
		return err
	}
	for _, w := range rt.Warnings() {
		logger.Warn("route configuration", slog.String("warning", w))
	}
	c, err := curve.New(rt)
	if err != nil {
		return err
	}
	logger.Info("route loaded",
		slog.String("journey", j.Name),
		slog.Int("waypoints", rt.Len()),
		slog.Float64("total_distance", rt.TotalDistance()),
		slog.Float64("curve_length", c.TotalLength()))

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(rt.TotalDistance(), cfg.RefreshInterval)
		srv := mcol.Serve(cfg.MetricsAddr, logger)
		defer shutdown(srv, logger)
	}

	chain := &feed.Chain{Logger: logger.With(slog.String("component", "feed"))}

	// Progress cache is optional
	if cfg.DatabaseURL != "" {
		sqlDB, err := openCache(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		chain.Cache = db.NewProgressStore(sqlDB)
		logger.Info("progress cache enabled")
	}

	switch {
	case cfg.FeedURL != "":
		chain.Source = feed.NewSheetSource(cfg.FeedURL, cfg.FeedTimeout)
	case feed.SheetConfigured(cfg.SheetID):
		chain.Source = feed.NewSheetSource(feed.SheetURL(cfg.SheetID), cfg.FeedTimeout)
	default:
		logger.Info("no progress sheet configured, using demo data")
	}

	opts := tracker.Options{
		Route:           rt,
		Curve:           c,
		Scene:           curve.DefaultScene,
		Loader:          chain,
		Metrics:         mcol,
		Logger:          logger.With(slog.String("component", "tracker")),
		RefreshInterval: cfg.RefreshInterval,
	}

	// NATS publishing is optional
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects,
			publisherMetrics(mcol), logger.With(slog.String("component", "publisher")))
		if err != nil {
			return err
		}
		defer pub.Close()
		opts.Publisher = pub
	}

	mgr := tracker.NewManager(opts)
	mgr.StartRefresher(ctx)
	defer mgr.Stop()

	handler := api.New(api.Options{
		Tracker:          mgr,
		JourneyName:      j.Name,
		Unit:             j.Unit,
		Viewport:         curve.Viewport{Width: cfg.MapWidth, Height: cfg.MapHeight},
		RefreshPerMinute: cfg.RefreshRatePerMinute,
		Logger:           logger,
	}).Handler()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until context cancelled or the server fails
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	shutdown(srv, logger)
	return nil
}

func openCache(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "server shutdown", err, slog.String("addr", srv.Addr))
	}
}

// publisherMetrics keeps a nil collector from becoming a non-nil interface.
func publisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c
}
