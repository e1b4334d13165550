package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xela07ax/ztna-soc-console/internal/console/handler"
	"github.com/xela07ax/ztna-soc-console/internal/console/server"
	"github.com/xela07ax/ztna-soc-console/internal/console/service"
	"github.com/xela07ax/ztna-soc-console/internal/engine"
	"github.com/xela07ax/ztna-soc-console/internal/feed"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SOC console: generator, dashboard API and WebSocket stream.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		return runServe(cfg, logger)
	},
}

func runServe(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст жизненного цикла: SIGINT/SIGTERM останавливают генератор и слушателей
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура: брокеры нужны только для внешней ленты и канала управления
	var rdb *redis.Client
	if (cfg.Feed.Enabled && cfg.Feed.Backend == "redis") || cfg.Control.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	var out feed.BatchWriter
	if cfg.Feed.Enabled {
		switch cfg.Feed.Backend {
		case "nats":
			nc, err := feed.ConnectNATS(cfg.NATS.URL, "ztna-soc-console", cfg.NATS.ReconnectWait, logger)
			if err != nil {
				return err
			}
			defer nc.Close()
			out = feed.NewNATSPublisher(nc, cfg.Feed.Subject, cfg.NATS.ReconnectWait)
		default:
			out = feed.NewRedisPublisher(rdb, cfg.Feed.Channel)
		}
		logger.Info("external feed enabled", zap.String("backend", cfg.Feed.Backend))
	}

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 3. Core (сборка ядра консоли)
	core := engine.NewSOCCore(engine.Options{Config: cfg, Registry: reg, Feed: out}, logger)

	// 4. Control Plane: удаленные команды оператора "ACTION:ip"
	if cfg.Control.Enabled {
		go feed.ListenControlResilient(appCtx, rdb, logger, cfg.Control.Channel, nil, func(action, ip string) {
			if _, err := core.Control.ManualAction(action, ip); err != nil {
				logger.Warn("control signal rejected", zap.String("action", action), zap.String("ip", ip), zap.Error(err))
			}
		})
	}

	// 5. HTTP API
	console := server.NewConsoleServer(
		logger,
		core.Blocklist,
		core.Stream,
		handler.NewDashboardHandler(core.Dashboard, core.Control),
		handler.NewAccessHandler(core.Control, logger),
		handler.NewInterventionHandler(core.Control, core.Blocklist, logger),
		handler.NewApprovalHandler(core.Control, core.Phone, logger),
		handler.NewPolicyHandler(service.NewPolicyService(core.Policies)),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      console,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.MetricsPort), Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("SOC console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()
	go func() {
		if err := core.Run(appCtx); err != nil {
			errCh <- err
		}
	}()

	// 6. Graceful Shutdown
	var runErr error
	select {
	case <-appCtx.Done():
	case runErr = <-errCh:
	}
	stop()
	logger.Info("SOC console stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	core.Stop()

	logger.Info("SOC console exited properly")
	return runErr
}
