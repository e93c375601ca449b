// Package app assembles the HTTP application: configuration, logging,
// services, router and server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"salescope/internal/config"
	"salescope/internal/exporter"
	"salescope/internal/infrastructure"
	"salescope/internal/metrics"
	custommw "salescope/internal/middleware"
	"salescope/internal/services"
	handlers "salescope/internal/transport/http"
)

// Version is overridden at build time.
var Version = "dev"

// Application is the assembled server container.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Router  *chi.Mux
	Server  *http.Server
	Metrics *metrics.Metrics
}

// NewApplication loads configuration, builds the logger and wires every
// component together.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	m := metrics.New()
	service := services.NewDashboardService(logger, cfg.Dashboard)
	exp := exporter.NewExporter(logger)
	handler := handlers.NewDashboardHandler(service, exp, logger, m, cfg.Limits, cfg.Dashboard)

	router := chi.NewRouter()
	router.Use(custommw.RequestID)
	router.Use(custommw.StructuredLogger(logger))
	router.Use(custommw.Recoverer(logger))
	router.Use(custommw.RateLimiter(cfg.Limits.RateLimitRPS, cfg.Limits.RateLimitBurst))

	router.Mount("/api", handler.Routes())
	router.Method(http.MethodGet, "/metrics", m.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Router:  router,
		Server:  server,
		Metrics: m,
	}, nil
}

// Run serves until the context is cancelled or an interrupt arrives, then
// shuts down gracefully within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	a.Logger.Info("application stopped")
	return nil
}
