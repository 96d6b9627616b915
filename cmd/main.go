package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bncc/internal/adapters/http/api"
	"github.com/okian/bncc/internal/adapters/http/swagger"
	"github.com/okian/bncc/internal/adapters/repository"
	service "github.com/okian/bncc/internal/app"
	"github.com/okian/bncc/internal/config"
	"github.com/okian/bncc/pkg/logger"
	"github.com/okian/bncc/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// The custom registry carries our own runtime gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> .env -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to build store: %w", err)
	}

	svc := newService(cfg, store, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildStore opens the record store selected by cfg.StoreDriver. It returns
// the store and the name reported by /stats.
func buildStore(cfg *config.Config) (namedStore, error) {
	opts := []repository.Option{
		repository.WithTables(cfg.Tables()),
		repository.WithTimeout(cfg.StoreTimeout()),
	}
	switch cfg.StoreDriver {
	case config.DriverREST:
		s, err := repository.NewRESTStore(cfg.StoreURL, cfg.StoreKey, opts...)
		if err != nil {
			return namedStore{}, err
		}
		return namedStore{Store: s, name: config.DriverREST}, nil
	case config.DriverPostgres:
		s, err := repository.NewPostgresStore(cfg.StoreDSN, opts...)
		if err != nil {
			return namedStore{}, err
		}
		return namedStore{Store: s, name: config.DriverPostgres}, nil
	case config.DriverMemory, "":
		return namedStore{Store: repository.NewMemoryStore(), name: config.DriverMemory}, nil
	default:
		return namedStore{}, fmt.Errorf("%w %q", config.ErrUnknownDriver, cfg.StoreDriver)
	}
}

type namedStore struct {
	repository.Store
	name string
}

func newService(cfg *config.Config, store namedStore, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log),
		service.WithStore(store.Store, store.name),
		service.WithVariant(cfg.RecordVariant()),
		service.WithTables(cfg.Tables()),
		service.WithMaxSessions(cfg.MaxSessions),
		service.WithDiscardFailedEntries(cfg.DiscardFailedEntries),
		service.WithRequireKnownLookups(cfg.RequireKnownLookups),
	)
}

// newMux wires the docs and the business API.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux, svc)
	return mux
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the session gauge until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics publishes the live session count. GetStats updates the
// gauge as a side effect.
func updateServiceMetrics(svc *service.Service) {
	_ = svc.GetStats()
}
