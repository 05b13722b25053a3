// Package observe provides application-wide observability primitives for
// confab: OpenTelemetry metrics, distributed tracing, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be
// scraped from /metrics. A package-level [DefaultMetrics] instance is provided
// for convenience; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all confab metrics.
const meterName = "github.com/MrWong99/confab"

// Status values used on the confabulation counter.
const (
	StatusOK         = "ok"
	StatusNoSolution = "no_solution"
	StatusInvalid    = "invalid_input"
	StatusError      = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// SearchDuration tracks decomposition latency. Attributes: strategy,
	// status.
	SearchDuration metric.Float64Histogram

	// SearchVisited tracks how many states one decomposition expanded.
	// Attribute: strategy.
	SearchVisited metric.Int64Histogram

	// SearchBacktracks tracks how many accepted candidates were abandoned in
	// one decomposition. Attribute: strategy.
	SearchBacktracks metric.Int64Histogram

	// Confabulations counts phrases processed. Attributes: strategy, status.
	Confabulations metric.Int64Counter

	// G2PRequests counts conversion attempts. Attributes: provider, status.
	G2PRequests metric.Int64Counter

	// G2PCacheLookups counts conversion cache lookups. Attribute: result
	// ("hit" or "miss").
	G2PCacheLookups metric.Int64Counter

	// ActiveSearches tracks decompositions currently running.
	ActiveSearches metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	// method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds. Strict searches over a
// warm dictionary finish in microseconds; loose ones can take seconds.
var latencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
}

// workBuckets are boundaries for state and backtrack counts.
var workBuckets = []float64{
	1, 2, 5, 10, 25, 50, 100, 250, 1000, 10000,
}

// NewMetrics creates a fully initialised [Metrics] using mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SearchDuration, err = m.Float64Histogram("confab.search.duration",
		metric.WithDescription("Latency of phonetic decomposition."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchVisited, err = m.Int64Histogram("confab.search.visited",
		metric.WithDescription("Search states expanded per decomposition."),
		metric.WithExplicitBucketBoundaries(workBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchBacktracks, err = m.Int64Histogram("confab.search.backtracks",
		metric.WithDescription("Abandoned branches per decomposition."),
		metric.WithExplicitBucketBoundaries(workBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Confabulations, err = m.Int64Counter("confab.confabulations",
		metric.WithDescription("Total phrases processed by strategy and status."),
	); err != nil {
		return nil, err
	}
	if met.G2PRequests, err = m.Int64Counter("confab.g2p.requests",
		metric.WithDescription("Total phonetic conversion attempts by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.G2PCacheLookups, err = m.Int64Counter("confab.g2p.cache.lookups",
		metric.WithDescription("Phonetic conversion cache lookups by result."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSearches, err = m.Int64UpDownCounter("confab.active_searches",
		metric.WithDescription("Number of decompositions currently running."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("confab.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSearch records one finished decomposition.
func (m *Metrics) RecordSearch(ctx context.Context, strategy, status string, d time.Duration, visited, backtracks int) {
	m.SearchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("status", status),
	))
	strat := metric.WithAttributes(attribute.String("strategy", strategy))
	m.SearchVisited.Record(ctx, int64(visited), strat)
	m.SearchBacktracks.Record(ctx, int64(backtracks), strat)
}

// RecordConfabulation counts one processed phrase.
func (m *Metrics) RecordConfabulation(ctx context.Context, strategy, status string) {
	m.Confabulations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("status", status),
	))
}

// RecordG2PRequest counts one conversion attempt.
func (m *Metrics) RecordG2PRequest(ctx context.Context, provider, status string) {
	m.G2PRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}

// RecordG2PCache counts one cache lookup.
func (m *Metrics) RecordG2PCache(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.G2PCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
