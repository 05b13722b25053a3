package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/health"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/internal/server"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	var watch time.Duration
	var sample float64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the confabulation HTTP API",
		Long: `Serve the confabulation HTTP API, health probes and Prometheus metrics.

Search settings, batch concurrency and the log level are reloaded when the
config file changes or the process receives SIGHUP; other sections need a
restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, listen, watch, sample)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override server.listen_addr")
	cmd.Flags().Float64Var(&sample, "trace-sample", 0, "fraction of new traces to sample (0 samples all)")
	cmd.Flags().DurationVar(&watch, "watch-interval", 5*time.Second, "config file polling interval (0 disables reloading)")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, listen string, watch time.Duration, sample float64) error {
	cfg := root.cfg
	if listen != "" {
		cfg.Server.ListenAddr = listen
	}

	shutdownOTel, err := initTelemetry(ctx, sample, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownOTel(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	rt, err := buildRuntime(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer rt.Close()

	c, err := rt.confabulator(cfg.Search, cfg.Batch)
	if err != nil {
		return err
	}

	checkers := []health.Checker{
		health.DictionaryLoaded(rt.dict.Len),
		health.Converters(rt.chain.Status),
	}
	if rt.store != nil {
		checkers = append(checkers, health.Ping("postgres", rt.store))
	}
	srv := server.New(c,
		server.WithHealth(health.New(checkers...)),
		server.WithMetrics(metrics),
	)

	if _, statErr := os.Stat(root.configPath); watch > 0 && statErr == nil {
		w, err := config.NewWatcher(root.configPath, func(prev, next *config.Config) {
			applyReload(root, rt, srv, config.Diff(prev, next))
		}, config.WithInterval(watch))
		if err != nil {
			return err
		}
		defer w.Stop()
		go reloadOnHangup(ctx, w)
	}

	slog.Info("confab serving",
		"listen_addr", cfg.Server.ListenAddr,
		"strategy", c.Strategy(),
		"dictionary_entries", rt.dict.Len(),
		"converters", rt.chain.Len(),
	)
	return srv.ListenAndServe(ctx, cfg.Server.ListenAddr)
}

// initTelemetry installs the global OTel providers the way serve runs them.
// A nil reg exports through the default Prometheus registry.
func initTelemetry(ctx context.Context, sample float64, reg prometheus.Registerer) (func(context.Context) error, error) {
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
		SampleRatio:    sample,
		Registerer:     reg,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	return shutdown, nil
}

// reloadOnHangup rereads the config file whenever the process gets SIGHUP.
func reloadOnHangup(ctx context.Context, w *config.Watcher) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if changed, err := w.Reload(); err != nil {
				slog.Error("SIGHUP reload failed; keeping previous config", "err", err)
			} else if !changed {
				slog.Info("SIGHUP reload: config unchanged")
			}
		}
	}
}

// applyReload applies the hot-reloadable part of a config change.
func applyReload(root *rootOptions, rt *runtime, srv *server.Server, d config.ConfigDiff) {
	if d.LogLevelChanged {
		root.levelVar.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.SearchChanged || d.BatchChanged {
		search, batch := root.cfg.Search, root.cfg.Batch
		if d.SearchChanged {
			search = d.Search
		}
		if d.BatchChanged {
			batch = d.Batch
		}
		c, err := rt.confabulator(search, batch)
		if err != nil {
			slog.Error("config reload: keeping previous search settings", "err", err)
		} else {
			root.cfg.Search, root.cfg.Batch = search, batch
			srv.SetConfabulator(c)
			slog.Info("search settings reloaded", "strategy", c.Strategy())
		}
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to apply", "sections", strings.Join(d.RestartRequired, ", "))
	}
}
