// cmd/willowd/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colebrumley/willow/internal/config"
	"github.com/colebrumley/willow/internal/engine"
	"github.com/colebrumley/willow/internal/history"
	"github.com/colebrumley/willow/internal/logging"
	"github.com/colebrumley/willow/internal/rule"
	"github.com/colebrumley/willow/internal/vfs"
	"github.com/colebrumley/willow/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:           "willowd",
	Short:         "willowd - rule-driven file activity daemon",
	Long:          "willowd watches directories and runs configured actions (move, rename, exec, log)\nonce files have settled after being written.",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log mutating filesystem operations instead of performing them")
	rootCmd.MarkFlagRequired("config")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logWriter, closeLog, err := openLogWriter(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.NewLogger(cfg.Logging.Format, cfg.Logging.Level, logWriter)

	fs := vfs.NewOs()
	if err := config.Validate(cfg, fs); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if dryRun {
		logger.Info("dry-run mode: mutating operations will be logged, not executed")
		fs = vfs.NewDryRun(fs, logger)
	}

	ctx := engine.NewCtx(fs, logger)
	ctx.DryRun = dryRun

	if cfg.History.Enabled {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("opening history journal: %w", err)
		}
		defer db.Close()
		ctx.History = db

		go func() {
			if deleted, err := db.Cleanup(cfg.History.RetentionDays); err != nil {
				logger.Warn("history cleanup failed", "error", err)
			} else if deleted > 0 {
				logger.Info("cleaned up old history records", "deleted", deleted)
			}
		}()
	}

	sources, err := buildSources(cfg, logger)
	if err != nil {
		return err
	}

	eng := engine.New(ctx, stabilityConfig(cfg.Engine), engine.StatusConfig{
		Every: cfg.Status.Every,
		Cron:  cfg.Status.Cron,
	}, sources)

	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := eng.Start(); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	<-sigCtx.Done()
	logger.Info("shutdown signal received")
	return eng.Shutdown()
}

func buildSources(cfg *config.Config, logger *slog.Logger) ([]engine.Source, error) {
	var sources []engine.Source
	for _, wc := range cfg.Watchers {
		rules, err := rule.CompileAll(wc.Path, wc.Rules)
		if err != nil {
			return nil, fmt.Errorf("watcher %q: %w", wc.Path, err)
		}
		ruleSets := make([]watcher.RuleSet, len(rules))
		for i, r := range rules {
			ruleSets[i] = r
		}
		sources = append(sources, watcher.New(wc.Path, wc.Recursive, wc.Ignore, ruleSets, logger))
	}
	return sources, nil
}

func stabilityConfig(ec config.EngineConfig) engine.StabilityConfig {
	return engine.StabilityConfig{
		MinQuiet:        time.Duration(ec.MinQuietSecs) * time.Second,
		StableRequired:  ec.StableRequired,
		CheckInterval:   time.Duration(ec.CheckIntervalSecs) * time.Second,
		MaxChecks:       ec.MaxChecks,
		MaxPendingFiles: ec.MaxPendingFiles,
		MaxAge:          time.Duration(ec.MaxAgeSecs) * time.Second,
		CleanupInterval: time.Duration(ec.CleanupIntervalSecs) * time.Second,
		TempExtensions:  ec.TempExtensions,
	}
}

func openLogWriter(lc config.LoggingConfig) (io.Writer, func(), error) {
	if lc.File == "" {
		return os.Stdout, func() {}, nil
	}

	w, err := logging.NewRotatingWriter(lc.File, int64(lc.MaxSizeMB)*1024*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return w, func() { w.Close() }, nil
}
