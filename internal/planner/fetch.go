package planner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neexbeast/tripplanner/internal/store"
)

const tracerName = "github.com/neexbeast/tripplanner/internal/planner"

// fetchFunc produces a value on a cache miss. keep=false returns the value to
// the caller without writing it to the namespace.
type fetchFunc[T any] func(ctx context.Context) (value T, keep bool, err error)

// fetchOrCache loads ns, returns the value under key when present and otherwise
// calls fetch, stores its result under key and rewrites the namespace.
// A stored value that does not decode, or that valid rejects, counts as a miss
// and is overwritten by the refetched one. A nil valid accepts every value.
func fetchOrCache[T any](ctx context.Context, p *Planner, ns store.Namespace, key string, valid func(T) bool, fetch fetchFunc[T]) (T, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fetchOrCache", trace.WithAttributes(
		attribute.String("cache.namespace", string(ns)),
		attribute.String("cache.key", key),
	))
	defer span.End()

	var zero T

	m, err := p.store.Load(ctx, ns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return zero, fmt.Errorf("loading %s: %w", ns, err)
	}

	var cached T
	hit, err := m.Get(key, &cached)
	switch {
	case hit && err != nil:
		p.log.Warn("discarding undecodable cache entry", "namespace", ns, "key", key, "err", err)
	case hit && valid != nil && !valid(cached):
		p.log.Warn("discarding invalid cache entry", "namespace", ns, "key", key)
	case hit:
		p.rec.CacheLookup(ctx, string(ns), true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	p.rec.CacheLookup(ctx, string(ns), false)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, keep, err := fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return zero, err
	}
	if !keep {
		return v, nil
	}

	if err := m.Put(key, v); err != nil {
		return zero, err
	}
	if err := p.store.Save(ctx, ns, m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return zero, fmt.Errorf("saving %s: %w", ns, err)
	}

	return v, nil
}

// call runs one upstream request and records its outcome.
func call[T any](ctx context.Context, p *Planner, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := fn(ctx)
	p.rec.ProviderCall(ctx, provider, time.Since(start), err)
	return v, err
}
