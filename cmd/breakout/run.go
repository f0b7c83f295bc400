package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vitos/breakout_monitor/internal/config"
	"github.com/vitos/breakout_monitor/internal/infrastructure/exchange"
	"github.com/vitos/breakout_monitor/internal/infrastructure/logger"
	"github.com/vitos/breakout_monitor/internal/infrastructure/metrics"
	"github.com/vitos/breakout_monitor/internal/infrastructure/notify"
	"github.com/vitos/breakout_monitor/internal/infrastructure/storage"
	"github.com/vitos/breakout_monitor/internal/usecase"
	"github.com/vitos/breakout_monitor/internal/web"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor loop and the keepalive HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func newMarketData(cfg *config.Config) *exchange.BinanceAdapter {
	return exchange.NewBinanceAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, exchange.GuardConfig{
		Timeout:          time.Duration(cfg.Exchange.RequestTimeoutMs) * time.Millisecond,
		RequestsPerSec:   cfg.Exchange.RateLimitRPS,
		Burst:            cfg.Exchange.RateLimitBurst,
		FailureThreshold: cfg.Exchange.BreakerFailures,
		OpenTimeout:      time.Duration(cfg.Exchange.BreakerOpenSec) * time.Second,
	})
}

func run() error {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Init Logger
	log, err := logger.NewFileLogger(logger.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.JournalPath)
	if err != nil {
		log.Error("Failed to init alert journal", zap.Error(err))
		return err
	}
	defer store.Close()

	// 4. Init Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	// 5. Init Exchange and Notifier
	market := newMarketData(cfg)
	notifier := notify.NewTelegramNotifier(cfg.Telegram.APIEndpoint, cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		time.Duration(cfg.Telegram.TimeoutMs)*time.Millisecond, log)

	// 6. Init Service
	svc := usecase.NewMonitorService(cfg.MonitorConfig(), market, notifier, store, recorder, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Init Web Server
	var server *web.Server
	if cfg.Server.Enabled {
		server = web.NewServer(cfg.Server.Port, svc, store, registry, log)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("Server failed", zap.Error(err))
				stop()
			}
		}()
	}

	// 8. Run monitor until a signal arrives; an in-flight cycle completes first.
	svc.Start(ctx)

	log.Info("Shutting down...")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}
	return nil
}
