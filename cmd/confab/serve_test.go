package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/internal/server"
)

func TestApplyReload(t *testing.T) {
	cfg := config.Default()
	cfg.Dictionary.Path = writeDict(t)
	root := &rootOptions{cfg: cfg, levelVar: new(slog.LevelVar)}

	rt, err := buildRuntime(context.Background(), cfg, observe.DefaultMetrics())
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	defer rt.Close()
	c, err := rt.confabulator(cfg.Search, cfg.Batch)
	if err != nil {
		t.Fatalf("confabulator: %v", err)
	}
	srv := server.New(c)

	next := *cfg
	next.Server.LogLevel = config.LogDebug
	next.Search.Strategy = "smart"
	next.Search.Errors = 1
	next.Dictionary.KeepVariants = true
	applyReload(root, rt, srv, config.Diff(cfg, &next))

	if got := root.levelVar.Level(); got != slog.LevelDebug {
		t.Errorf("level = %v, want debug", got)
	}
	if got := srv.Confabulator().Strategy(); got != "smart" {
		t.Errorf("strategy = %q, want smart", got)
	}
	res, err := srv.Confabulator().Confabulate(context.Background(), "thigh")
	if err != nil {
		t.Fatalf("Confabulate: %v", err)
	}
	if res.Output != "thy" {
		t.Errorf("Output = %q, want %q", res.Output, "thy")
	}
	if root.cfg.Search.Strategy != "smart" {
		t.Errorf("root config not updated: %+v", root.cfg.Search)
	}

	// An invalid reload keeps the running confabulator.
	bad := next
	bad.Search.Strategy = "psychic"
	applyReload(root, rt, srv, config.Diff(&next, &bad))
	if got := srv.Confabulator().Strategy(); got != "smart" {
		t.Errorf("strategy after bad reload = %q, want smart", got)
	}
}

func TestInitTelemetry(t *testing.T) {
	mp, tp, prop := otel.GetMeterProvider(), otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetMeterProvider(mp)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})

	for _, sample := range []float64{0, 0.25, 1} {
		shutdown, err := initTelemetry(context.Background(), sample, prometheus.NewRegistry())
		if err != nil {
			t.Fatalf("initTelemetry(%v): %v", sample, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown(%v): %v", sample, err)
		}
	}
	if _, err := initTelemetry(context.Background(), 2, prometheus.NewRegistry()); err == nil {
		t.Error("initTelemetry(2): expected error")
	}
}
