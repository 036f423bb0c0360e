package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/api"
	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/logformat"
	"github.com/V4T54L/hubformat/internal/pkg/config"
	"github.com/V4T54L/hubformat/internal/pkg/logger"
	"github.com/V4T54L/hubformat/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewConvertMetrics(reg)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Start Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.MetricsServerAddr,
		Handler: api.NewAdminRouter(reg, logger),
	}

	go func() {
		logger.Info("starting admin & metrics server", zap.String("addr", adminServer.Addr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin & metrics server failed", zap.Error(err))
		}
	}()

	// --- Initialize Use Cases ---
	newMapper := logformat.NewContainerMapperFactory(cfg.HostnameAnnotation, cfg.AppNameAnnotation, cfg.FallbackHostname)
	convertUseCase := usecase.NewConvertEventUseCase(newMapper, m, logger.With(zap.String("component", "convert")))

	// --- Initialize Convert Server ---
	convertServer := &http.Server{
		Addr:         cfg.ConvertServerAddr,
		Handler:      api.NewRouter(cfg, logger, convertUseCase, m),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting convert server", zap.String("addr", convertServer.Addr))
		if err := convertServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("convert server failed", zap.Error(err))
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", zap.Error(err))
	}
	if err := convertServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("convert server shutdown failed", zap.Error(err))
	}

	logger.Info("servers shut down gracefully")
}
