// SaladeFS daemon
//
// Keeps an in-memory filesystem tree durable through a pluggable
// key-value store (local, postgres, redis, s3) with periodic autosave,
// Prometheus metrics and structured logging (zap).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/saladefs/internal/config"
	"github.com/fruitsalade/saladefs/internal/kvstore/factory"
	"github.com/fruitsalade/saladefs/internal/logging"
	"github.com/fruitsalade/saladefs/internal/metrics"
	"github.com/fruitsalade/saladefs/internal/persist"
	"github.com/fruitsalade/saladefs/pkg/lifecycle"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("SaladeFS daemon starting...",
		zap.String("backend", cfg.StoreBackend),
		zap.String("metrics", cfg.MetricsAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the durable store from config
	backendType, backendConfig, err := cfg.StoreConfig()
	if err != nil {
		logging.Fatal("store config error", zap.Error(err))
	}
	store, err := factory.NewStoreFromConfig(ctx, backendType, backendConfig)
	if err != nil {
		logging.Fatal("store init failed", zap.Error(err))
	}
	defer store.Close()

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// Wire the persistence bridge
	signals := lifecycle.NewSignals()
	bridge := persist.New(store, signals, persist.Options{
		ConnectTimeout: cfg.ConnectTimeout,
	})
	bridge.Run(ctx)
	signals.Notify(persist.SignalReady)

	// Periodic autosave
	go func() {
		ticker := time.NewTicker(cfg.AutosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := bridge.Save(ctx); err != nil && !errors.Is(err, persist.ErrDegraded) {
					logging.Error("autosave failed", zap.Error(err))
				}
			}
		}
	}()

	// Graceful shutdown: final save, then stop
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logging.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := bridge.Save(shutdownCtx); err != nil {
		logging.Error("final save failed", zap.Error(err))
	}

	cancel()
	metricsServer.Close()
	logging.Info("shutdown complete")
}
