package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/cache"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/jobs"
	"github.com/erazemk/inventar/internal/lifecycle"
	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "listen address")
	mustBind(a.v, config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	database, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	secret, err := a.jwtSecret(ctx, database)
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("Flushing traces failed", logfields.Error(err))
		}
	}()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
		metricsHandler = prom.Handler()
	}

	cacheOpts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger),
		cache.WithRecorder(recorder),
	}
	var broadcaster *cache.NATSBroadcaster
	if cfg.NATS.URL != "" {
		broadcaster, err = cache.NewNATSBroadcaster(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer broadcaster.Close()
		cacheOpts = append(cacheOpts, cache.WithBroadcaster(broadcaster))
	}
	readCache := cache.New(cacheOpts...)
	if broadcaster != nil {
		if err := broadcaster.Subscribe(readCache); err != nil {
			return err
		}
	}

	coordinator := lifecycle.NewCoordinator(database,
		lifecycle.WithLogger(logger),
		lifecycle.WithRecorder(recorder),
	)
	svc := inventory.NewService(database, coordinator, readCache,
		inventory.WithOpTimeout(cfg.Store.OpTimeout),
		inventory.WithLogger(logger),
		inventory.WithRecorder(recorder),
	)

	scheduler, err := jobs.NewScheduler(logger, cfg.Store.OpTimeout)
	if err != nil {
		return err
	}
	if err := scheduler.ScheduleCacheSweep(cfg.Cache.SweepInterval, readCache); err != nil {
		return err
	}
	if err := scheduler.ScheduleAudit(cfg.Audit.Interval, svc); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("Stopping scheduler failed", logfields.Error(err))
		}
	}()

	handler := api.LoggingMiddleware(recorder)(api.NewRouter(svc, secret, metricsHandler))

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", slog.String("addr", cfg.HTTP.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", logfields.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		logger.Error("Server forced to shutdown", logfields.Error(err))
		return err
	}

	logger.Info("Server stopped, closing database")
	return nil
}
