// Package store persists planner cache namespaces.
//
// A namespace is loaded whole, mutated in memory and written back whole. Nothing
// here locks across processes: two writers doing read-modify-write on the same
// namespace can lose an update (last writer wins). The planner is meant to run
// as a single-user process.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Namespace names one logical partition of the cache.
type Namespace string

const (
	NamespaceLocation   Namespace = "city_location"
	NamespaceAttraction Namespace = "city_location_attraction"
	NamespaceHotel      Namespace = "hotels_cache"

	// Scrape namespaces hold parsed reference pages for cmd/refdb.
	NamespaceStates    Namespace = "states_cache"
	NamespaceAirports  Namespace = "airports_cache"
	NamespaceCityAreas Namespace = "cityareas_cache"
)

// PlannerNamespaces lists the namespaces written by the planner orchestrators.
func PlannerNamespaces() []Namespace {
	return []Namespace{NamespaceLocation, NamespaceAttraction, NamespaceHotel}
}

// Mapping is the in-memory form of a namespace: cache key to JSON value.
type Mapping map[string]json.RawMessage

// Get decodes the value stored under key into dst. It reports false on a miss.
func (m Mapping) Get(key string, dst any) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decoding cached value for %q: %w", key, err)
	}
	return true, nil
}

// Put encodes v and stores it under key.
func (m Mapping) Put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding value for %q: %w", key, err)
	}
	m[key] = b
	return nil
}

// Store loads and saves whole namespaces.
type Store interface {
	// Load returns the namespace contents. A namespace that was never written
	// loads as an empty mapping.
	Load(ctx context.Context, ns Namespace) (Mapping, error)
	// Save replaces the namespace contents with m.
	Save(ctx context.Context, ns Namespace, m Mapping) error
}

// Count returns the number of entries held in each planner namespace.
func Count(ctx context.Context, s Store) (map[Namespace]int, error) {
	counts := make(map[Namespace]int, 3)
	for _, ns := range PlannerNamespaces() {
		m, err := s.Load(ctx, ns)
		if err != nil {
			return nil, fmt.Errorf("loading namespace %s: %w", ns, err)
		}
		counts[ns] = len(m)
	}
	return counts, nil
}
