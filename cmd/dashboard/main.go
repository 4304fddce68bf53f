// Command dashboard serves the practice KPI API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"practicepulse/internal/config"
	"practicepulse/internal/infrastructure"
	"practicepulse/internal/metrics"
	"practicepulse/internal/middleware"
	"practicepulse/internal/orchestrator"
	"practicepulse/internal/source"
	transporthttp "practicepulse/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	orch := orchestrator.New(cfg, src, logger, orchestrator.WithMetrics(m))
	handler := transporthttp.NewHandler(orch, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.RateLimit(cfg.Server.RateLimit))
	router.Use(middleware.Metrics(m))
	router.Mount("/api", handler.Routes())
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.Int("port", cfg.Server.Port),
			slog.Int("locations", len(cfg.Locations)),
			slog.String("source", cfg.Source.Kind))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildSource constructs the configured fetch collaborator.
func buildSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.DataSource, error) {
	switch cfg.Source.Kind {
	case "sheets":
		return source.NewSheetsSourceFromCredentials(ctx, cfg.Source.CredentialsFile, cfg.Source.Sheets, logger)
	case "excel":
		return source.NewExcelSource(cfg.Source.Workbooks, logger), nil
	case "memory":
		return source.NewMemorySource(), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
