// Package cmd implements the ufwatch subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ufwatch/internal/clock"
	"ufwatch/internal/config"
	"ufwatch/internal/docker"
	"ufwatch/internal/enrich"
	"ufwatch/internal/events"
	"ufwatch/internal/journal"
	"ufwatch/internal/logging"
	"ufwatch/internal/metrics"
	"ufwatch/internal/monitor"
	"ufwatch/internal/output"
	"ufwatch/internal/ufw"
)

// MonitorOptions are the flag-level overrides for the monitor command.
type MonitorOptions struct {
	ConfigFile  string
	Verbose     bool
	Format      string
	SnapshotTTL string
	MetricsAddr string
}

// RunMonitor runs the continuous monitor until the journal stream ends
// or the process receives SIGINT/SIGTERM.
func RunMonitor(opts MonitorOptions) error {
	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.Format != "" {
		cfg.Format = opts.Format
	}
	if opts.SnapshotTTL != "" {
		cfg.Docker.SnapshotTTL = opts.SnapshotTTL
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg)

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	ttl, err := cfg.SnapshotTTL()
	if err != nil {
		return err
	}
	timeout, err := cfg.LoadTimeout()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub()

	loader := docker.NewLoader(
		docker.WithCommand(cfg.Docker.Command, cfg.Docker.Args...),
		docker.WithTimeout(timeout),
	)
	cache := enrich.NewCache(loader, ttl, &clock.RealClock{})
	cache.Notify(hub)

	// Warm the snapshot once at startup. Failure is not fatal: the
	// monitor degrades to unenriched records until docker recovers.
	if _, err := cache.Snapshot(ctx); err != nil {
		logging.Warn("Initial Docker snapshot unavailable", "error", err)
	}

	adapter := metrics.NewAdapter(hub)
	go adapter.Run(ctx)
	if cfg.MetricsAddr != "" {
		go metrics.Serve(ctx, cfg.MetricsAddr)
	}

	src := journal.NewSource(cfg.Journal.Command, cfg.Journal.Args...)
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("cannot start line source: %w", err)
	}

	svc := monitor.New(monitor.Deps{
		Lines:   src.Lines(),
		Parser:  ufw.NewParser(cfg.Marker),
		Cache:   cache,
		Sink:    output.NewStreamWriter(os.Stdout, format),
		Hub:     hub,
		Verbose: opts.Verbose,
	})
	if err := svc.Run(ctx); err != nil {
		return err
	}
	if err := src.Err(); err != nil {
		return fmt.Errorf("line source failed: %w", err)
	}
	return nil
}

// loadConfig loads the file when given, otherwise the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the default logger per config. Logs go to
// stderr so record output on stdout stays machine-readable.
func setupLogging(cfg *config.Config) {
	lc := logging.DefaultConfig()
	lc.JSON = cfg.LogJSON
	switch cfg.LogLevel {
	case "debug":
		lc.Level = logging.LevelDebug
	case "warn":
		lc.Level = logging.LevelWarn
	case "error":
		lc.Level = logging.LevelError
	default:
		lc.Level = logging.LevelInfo
	}
	logging.SetDefault(logging.New(lc))
}

// ErrNoMatch reports a check invocation whose line held no block event.
var ErrNoMatch = errors.New("no block event in line")
