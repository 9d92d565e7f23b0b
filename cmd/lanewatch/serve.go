package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lanewatch/lanewatch/internal/api"
	"github.com/lanewatch/lanewatch/internal/config"
	"github.com/lanewatch/lanewatch/internal/notifier"
	"github.com/lanewatch/lanewatch/internal/registry"
	"github.com/lanewatch/lanewatch/internal/storage"
	"github.com/lanewatch/lanewatch/internal/storage/etcd"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the heartbeat monitor and API server",
	Long: `Run the heartbeat monitor: the in-memory service registry, the
stale-detection sweep, the notification dispatcher, and the HTTP API.

Storage (etcd) and the webhook notifier are optional and enabled through
configuration. The server runs until interrupted (Ctrl+C) or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	logger.Info("lanewatch starting",
		zap.String("version", version),
		zap.Duration("check_interval", cfg.Heartbeat.CheckInterval),
		zap.Duration("stale_threshold", cfg.Heartbeat.StaleThreshold),
		zap.Int("api_port", cfg.API.Port))

	// Storage is optional; the registry runs in memory without it.
	var store storage.Storage
	if cfg.Etcd.Enabled {
		client, err := etcd.NewClient(etcd.Config{
			Endpoints:      cfg.Etcd.Endpoints,
			Username:       cfg.Etcd.Username,
			Password:       cfg.Etcd.Password,
			DialTimeout:    cfg.Etcd.DialTimeout,
			RequestTimeout: cfg.Etcd.RequestTimeout,
		})
		if err != nil {
			return fmt.Errorf("creating etcd client: %w", err)
		}
		etcdStore := etcd.NewStore(client, cfg.Etcd.Prefix, cfg.Etcd.SnapshotTTL)

		connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Etcd.DialTimeout)
		err = etcdStore.Connect(connectCtx)
		cancel()
		if err != nil {
			// Persistence degradation is non-fatal: run without storage.
			logger.Warn("etcd unavailable, running without persistence", zap.Error(err))
			_ = etcdStore.Close()
		} else {
			logger.Info("etcd storage connected", zap.Strings("endpoints", cfg.Etcd.Endpoints))
			store = etcdStore
			defer etcdStore.Close()
		}
	}

	var notifiers []notifier.Notifier
	if cfg.Webhook.Enabled {
		notifiers = append(notifiers, notifier.NewWebhookNotifier(
			cfg.Webhook.URL, cfg.Webhook.Username, cfg.Webhook.AvatarURL))
		logger.Info("webhook notifier configured")
	}

	dispatcher := registry.NewDispatcher(notifiers, store, logger)
	reg := registry.NewRegistry(store, dispatcher, logger)

	monitor := registry.NewMonitor(reg, cfg.Heartbeat.CheckInterval, cfg.Heartbeat.StaleThreshold, logger)
	monitor.Start()
	defer monitor.Stop()

	server := api.NewServer(cfg, logger, reg)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", zap.Error(err))
	}

	return nil
}
