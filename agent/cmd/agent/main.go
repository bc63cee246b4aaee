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
	"path/filepath"
	"syscall"
	"time"

	"github.com/skelstat/skelstat/agent/internal/config"
	"github.com/skelstat/skelstat/agent/internal/exporter"
	"github.com/skelstat/skelstat/agent/internal/summary"
	"github.com/skelstat/skelstat/agent/internal/watcher"
	"github.com/skelstat/skelstat/pkg/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (watch mode)")
	resultsPath := flag.String("results", "", "aggregate this per-unit results file once and exit")
	summaryPath := flag.String("summary", "", "summary file to append to (with -results)")
	unitLabel := flag.String("unit", "", "section label written before the raw results (with -results)")
	ratioLabel := flag.String("label", "", "first field of the ratio row (with -results)")
	container := flag.String("container", "", "start a fresh summary for this image container and exit")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	switch {
	case *container != "":
		os.Exit(runReset(*container))
	case *resultsPath != "":
		os.Exit(runOnce(*resultsPath, *summaryPath, *unitLabel, *ratioLabel))
	}

	if err := runWatch(*configPath, level); err != nil {
		slog.Error("skelstat-agent stopped", "err", err)
		os.Exit(1)
	}
}

// runReset deletes and recreates the summary for one container.
func runReset(path string) int {
	s := summary.NewSession(types.NewContainer(path), summary.Options{})
	if err := s.Start(); err != nil {
		slog.Error("failed to start summary", "container", path, "err", err)
		return 1
	}
	fmt.Println(s.Path())
	return 0
}

// runOnce copies the results section and appends the ratio for one unit.
func runOnce(resultsPath, summaryPath, unit, label string) int {
	if summaryPath == "" {
		slog.Error("-summary is required with -results")
		return 2
	}
	if unit == "" {
		if u, ok := types.ParseResultsName(filepath.Dir(resultsPath), filepath.Base(resultsPath), ""); ok {
			unit = u.Label()
		} else {
			unit = types.NewContainer(resultsPath).Base
		}
	}

	if _, err := os.Stat(resultsPath); errors.Is(err, os.ErrNotExist) {
		slog.Info("results file missing, nothing to aggregate", "path", resultsPath)
		return 0
	}
	if err := summary.CopySection(summaryPath, unit, resultsPath); err != nil {
		slog.Error("raw copy failed", "unit", unit, "err", err)
		return 1
	}
	res, err := summary.Aggregate(resultsPath, summaryPath, label)
	if err != nil {
		slog.Error("aggregation failed", "unit", unit, "err", err)
		return 1
	}
	slog.Info("unit aggregated",
		"unit", unit,
		"rows", res.Sums.Rows,
		"skipped", res.Sums.Skipped,
		"ratio", res.Ratio,
	)
	return 0
}

// runWatch runs the directory watcher and the metrics endpoint until a
// termination signal arrives.
func runWatch(configPath string, level *slog.LevelVar) error {
	slog.Info("skelstat-agent starting", "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level.Set(cfg.Agent.Level())
	slog.Info("config loaded",
		"watch_dir", cfg.Agent.WatchDir,
		"settle_delay", cfg.Agent.SettleDelay,
		"start_suffix", cfg.Agent.StartSuffix,
		"metrics_listen", cfg.Metrics.Listen,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hot reload applies the log level; everything else needs a restart.
	go func() {
		if err := config.Watch(ctx, configPath, func(updated *config.Config) {
			level.Set(updated.Agent.Level())
			slog.Info("config hot-reloaded", "log_level", updated.Agent.LogLevel)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	st := exporter.NewStore()

	var afterUnit func()
	if path := cfg.Metrics.Textfile; path != "" {
		afterUnit = func() {
			if err := exporter.WriteTextfile(path, st); err != nil {
				slog.Warn("textfile update failed", "path", path, "err", err)
			}
		}
	}

	var httpSrv *http.Server
	if cfg.Metrics.Listen != "" {
		httpSrv = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           exporter.New(st),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("HTTP server listening", "addr", cfg.Metrics.Listen)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server stopped", "err", err)
			}
		}()
	}

	w := watcher.New(watcher.Options{
		Dir: cfg.Agent.WatchDir,
		Naming: summary.Options{
			ResultsSuffix: cfg.Agent.ResultsSuffix,
			SummarySuffix: cfg.Agent.SummarySuffix,
			RatioLabel:    cfg.Agent.RatioLabel,
		},
		SettleDelay: cfg.Agent.SettleDelay,
		StartSuffix: cfg.Agent.StartSuffix,
		AfterUnit:   afterUnit,
	}, st)

	err = w.Run(ctx)

	slog.Info("skelstat-agent shutting down")
	if httpSrv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	}
	return err
}
