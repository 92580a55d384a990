package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/neexbeast/tripplanner/internal/telemetry"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, kvs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum for %s", m.Name)
	want := attribute.NewSet(kvs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestOTelRecorder_CacheLookup(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec, err := telemetry.NewRecorder(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rec.CacheLookup(ctx, "city_location", true)
	rec.CacheLookup(ctx, "city_location", true)
	rec.CacheLookup(ctx, "city_location", false)

	got := collect(t, reader)
	m, ok := got["planner.cache.lookups"]
	require.True(t, ok)
	assert.Equal(t, int64(2), sumFor(t, m,
		attribute.String("namespace", "city_location"), attribute.String("result", "hit")))
	assert.Equal(t, int64(1), sumFor(t, m,
		attribute.String("namespace", "city_location"), attribute.String("result", "miss")))
}

func TestOTelRecorder_ProviderCall(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec, err := telemetry.NewRecorder(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rec.ProviderCall(ctx, "yelp", 120*time.Millisecond, nil)
	rec.ProviderCall(ctx, "yelp", 80*time.Millisecond, errors.New("boom"))

	got := collect(t, reader)
	calls, ok := got["planner.provider.calls"]
	require.True(t, ok)
	assert.Equal(t, int64(1), sumFor(t, calls,
		attribute.String("provider", "yelp"), attribute.String("outcome", "ok")))
	assert.Equal(t, int64(1), sumFor(t, calls,
		attribute.String("provider", "yelp"), attribute.String("outcome", "error")))

	hist, ok := got["planner.provider.duration_ms"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, float64(200), hist.DataPoints[0].Sum)
}

func TestNoop(t *testing.T) {
	var r telemetry.Recorder = telemetry.Noop{}
	assert.NotPanics(t, func() {
		r.CacheLookup(context.Background(), "x", true)
		r.ProviderCall(context.Background(), "x", time.Second, errors.New("e"))
	})
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestSetup_ServesRecordedMetrics(t *testing.T) {
	m, err := telemetry.Setup()
	require.NoError(t, err)
	defer func() { assert.NoError(t, m.Shutdown(context.Background())) }()

	ctx := context.Background()
	m.Recorder.CacheLookup(ctx, "hotels_cache", true)
	m.Recorder.ProviderCall(ctx, "yelp.search", 15*time.Millisecond, nil)

	body := scrape(t, m.Handler)
	assert.Contains(t, body, "planner_cache_lookups")
	assert.Contains(t, body, `namespace="hotels_cache"`)
	assert.Contains(t, body, "planner_provider_calls")
	assert.Contains(t, body, `provider="yelp.search"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestSetup_TwiceInOneProcess(t *testing.T) {
	first, err := telemetry.Setup()
	require.NoError(t, err)
	defer func() { _ = first.Shutdown(context.Background()) }()

	second, err := telemetry.Setup()
	require.NoError(t, err)
	defer func() { _ = second.Shutdown(context.Background()) }()

	second.Recorder.CacheLookup(context.Background(), "city_location", false)
	assert.NotContains(t, scrape(t, first.Handler), `namespace="city_location"`)
	assert.Contains(t, scrape(t, second.Handler), `namespace="city_location"`)
}
