// Package app wires configuration, storage and services into a runnable
// process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"astrascore/internal/api"
	"astrascore/internal/config"
	"astrascore/internal/festival"
	"astrascore/internal/metrics"
	"astrascore/internal/scoreboard"
	"astrascore/internal/store"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Store     store.Store
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Events    *scoreboard.Service
	Festivals *festival.Service
}

// OpenStore opens the backend named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverSQLite:
		return store.OpenSQLite(cfg.SQLitePath)
	case config.DriverPostgres:
		pool, err := store.ConnectPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBConnectWithin, logger)
		if err != nil {
			return nil, err
		}
		pg, err := store.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New opens the store and builds the services on top of it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return NewWithStore(cfg, logger, st), nil
}

// NewWithStore builds the services on an already opened store.
func NewWithStore(cfg config.Config, logger *slog.Logger, st store.Store) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	points := festival.PointTable(cfg.PointTable)
	if len(points) == 0 {
		points = festival.DefaultPointTable
	}

	events := scoreboard.NewService(st,
		scoreboard.WithLogger(logger.With("component", "scoreboard")),
		scoreboard.WithMetrics(m),
	)
	festivals := festival.NewService(st, events,
		festival.WithLogger(logger.With("component", "festival")),
		festival.WithMetrics(m),
		festival.WithIDGenerator(events.IDs()),
		festival.WithPointTable(points),
	)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Registry:  reg,
		Metrics:   m,
		Events:    events,
		Festivals: festivals,
	}
}

func (a *App) Close() error {
	return a.Store.Close()
}

// Handler builds the HTTP API around timers.
func (a *App) Handler(timers *scoreboard.TimerScheduler) http.Handler {
	var limiter *api.IPRateLimiter
	if a.Config.RateLimitRPS > 0 {
		limiter = api.NewIPRateLimiter(rate.Limit(a.Config.RateLimitRPS), a.Config.RateLimitBurst)
	}
	return api.NewRouter(api.Deps{
		Events:      a.Events,
		Festivals:   a.Festivals,
		Timers:      timers,
		Idempotency: api.NewIdempotencyCache(0),
		Limiter:     limiter,
		Metrics:     a.Metrics,
		Gatherer:    a.Registry,
		Logger:      a.Logger.With("component", "http"),
	})
}

// Serve runs the HTTP server, the timer scheduler and the festival reconciler
// until ctx is cancelled, then shuts them down.
func (a *App) Serve(ctx context.Context) error {
	timers := scoreboard.NewTimerScheduler(ctx, a.Events, a.Config.TickInterval, a.Logger.With("component", "timers"), a.Metrics)
	defer timers.StopAll()

	events, err := a.Events.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	if n := timers.Resume(events); n > 0 {
		a.Logger.Info("resumed running clocks", "count", n)
	}

	if a.Config.ReconcileInterval > 0 {
		rec := festival.StartReconciler(ctx, a.Festivals, a.Config.ReconcileInterval, a.Logger.With("component", "reconciler"))
		defer rec.Stop()
	}

	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           a.Handler(timers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("http listening", "addr", a.Config.HTTPAddr, "store", a.Config.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
