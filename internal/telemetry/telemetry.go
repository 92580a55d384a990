// Package telemetry records cache and provider metrics through OpenTelemetry
// and exposes them in Prometheus text format.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/neexbeast/tripplanner"

// Recorder receives one event per cache lookup and per upstream call.
//
// Implementations must be safe for concurrent use and must not panic.
type Recorder interface {
	CacheLookup(ctx context.Context, namespace string, hit bool)
	ProviderCall(ctx context.Context, provider string, duration time.Duration, err error)
}

// Noop discards every event.
type Noop struct{}

// CacheLookup implements Recorder.
func (Noop) CacheLookup(context.Context, string, bool) {}

// ProviderCall implements Recorder.
func (Noop) ProviderCall(context.Context, string, time.Duration, error) {}

// OTelRecorder implements Recorder with OpenTelemetry instruments.
type OTelRecorder struct {
	lookups  metric.Int64Counter
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRecorder creates the planner instruments on meter.
func NewRecorder(meter metric.Meter) (*OTelRecorder, error) {
	lookups, err := meter.Int64Counter(
		"planner.cache.lookups",
		metric.WithDescription("Cache lookups by namespace and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache lookup counter: %w", err)
	}

	calls, err := meter.Int64Counter(
		"planner.provider.calls",
		metric.WithDescription("Upstream provider calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider call counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"planner.provider.duration_ms",
		metric.WithDescription("Upstream provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider duration histogram: %w", err)
	}

	return &OTelRecorder{lookups: lookups, calls: calls, duration: duration}, nil
}

// CacheLookup counts one lookup in namespace as a hit or a miss.
func (r *OTelRecorder) CacheLookup(ctx context.Context, namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("result", result),
	))
}

// ProviderCall counts one upstream call by outcome and records its latency.
func (r *OTelRecorder) ProviderCall(ctx context.Context, provider string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
	r.duration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// Metrics is the process-wide meter provider backed by a Prometheus exporter.
type Metrics struct {
	Recorder *OTelRecorder
	Handler  http.Handler
	provider *sdkmetric.MeterProvider
}

// Setup installs a global MeterProvider that exports to a registry of its own,
// together with the Go runtime collector, and returns a handler for GET /metrics.
func Setup() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	rec, err := NewRecorder(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Recorder: rec,
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		provider: mp,
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
