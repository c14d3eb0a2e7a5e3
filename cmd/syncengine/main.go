package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursesync/syncengine/internal/config"
	"github.com/coursesync/syncengine/internal/logging"
	"github.com/coursesync/syncengine/internal/metrics"
	"github.com/coursesync/syncengine/internal/remote"
	"github.com/coursesync/syncengine/internal/scheduler"
	"github.com/coursesync/syncengine/internal/server"
	"github.com/coursesync/syncengine/internal/store"
	"github.com/coursesync/syncengine/internal/sync"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "syncengine",
		Short:   "Bidirectional sync engine between a local course/todo cache and a remote workspace database",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE:    run,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Local data directory (holds the SQLite cache)")
	rootCmd.PersistentFlags().StringP("listen", "l", "127.0.0.1:8080", "HTTP Surface listen address")
	rootCmd.PersistentFlags().StringP("log-level", "", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntP("sync-interval-secs", "", 300, "Seconds between scheduler-driven sync cycles")
	rootCmd.PersistentFlags().StringP("remote-base-url", "", "https://api.notion.com", "Base URL of the remote workspace-database service")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Setup(cfg.LogLevel)
	logrus.WithFields(logrus.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("starting sync engine")

	s, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	adapter := remote.NewHTTPAdapter(cfg.RemoteBaseURL, cfg.RemoteToken, cfg.RemoteCoursesDBID, cfg.RemoteTodosDBID)
	metricsManager := metrics.New()
	systemTracker := metrics.NewSystemTracker(cfg.DataDir)
	reconciler := sync.New(s, adapter, metricsManager)

	sched, err := scheduler.New(reconciler, time.Duration(cfg.SyncIntervalSecs)*time.Second)
	if err != nil {
		return fmt.Errorf("failed to build scheduler: %w", err)
	}

	httpServer := server.New(cfg.Listen, s, reconciler, metricsManager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logrus.Info("received shutdown signal")
		cancel()
	}()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	go systemTracker.RunSampler(ctx, metricsManager, time.Duration(cfg.MetricsIntervalSecs)*time.Second)

	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("http surface error: %w", err)
	}

	logrus.Info("sync engine stopped")
	return nil
}
