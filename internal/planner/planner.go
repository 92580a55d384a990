// Package planner implements the fetch-or-cache orchestrators behind the
// travel planner: city geolocation, attraction search, weather and hotels.
//
// Each orchestrator performs at most one namespace load, one provider call
// and one namespace save, in that order. Weather is never cached.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neexbeast/tripplanner/internal/cachekey"
	"github.com/neexbeast/tripplanner/internal/provider"
	"github.com/neexbeast/tripplanner/internal/store"
	"github.com/neexbeast/tripplanner/internal/telemetry"
)

// SupportedCountry is the only country whose cities are planned.
const SupportedCountry = "US"

// Attraction result limits of the two front ends.
const (
	CLIAttractionLimit = 10
	WebAttractionLimit = 20
)

var (
	// ErrCityNotFound is returned when the geocoder cannot resolve a city.
	ErrCityNotFound = errors.New("city not found")
	// ErrUnsupportedCountry is returned for a city outside SupportedCountry.
	// It matches ErrCityNotFound.
	ErrUnsupportedCountry = fmt.Errorf("city outside %s: %w", SupportedCountry, ErrCityNotFound)
	// ErrUnknownCategory is returned for an attraction kind not in Categories.
	ErrUnknownCategory = errors.New("unknown attraction category")
)

// Geocoder is satisfied by provider.GeoClient.
type Geocoder interface {
	Geoname(ctx context.Context, name string) (*provider.Geoname, error)
}

// PlaceSearcher is satisfied by provider.POIClient.
type PlaceSearcher interface {
	Radius(ctx context.Context, q provider.RadiusQuery) ([]provider.Place, error)
}

// Forecaster is satisfied by provider.WeatherClient.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64) ([]provider.ForecastDay, error)
}

// HotelSearcher is satisfied by provider.HotelClient.
type HotelSearcher interface {
	Search(ctx context.Context, lat, lon float64) (*provider.HotelSearch, error)
}

// Planner runs the orchestrators against one store.
type Planner struct {
	store   store.Store
	geo     Geocoder
	places  PlaceSearcher
	weather Forecaster
	hotels  HotelSearcher
	radius  RadiusLookup
	limit   int
	rec     telemetry.Recorder
	log     *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithAttractionLimit sets the maximum number of places requested per search.
func WithAttractionLimit(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithRadiusLookup sets the reference table used to size attraction searches.
func WithRadiusLookup(l RadiusLookup) Option {
	return func(p *Planner) { p.radius = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(p *Planner) {
		if r != nil {
			p.rec = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.log = l
		}
	}
}

// New constructs a Planner. Without options it requests CLIAttractionLimit
// places, uses DefaultRadiusMeters for every city and records nothing.
func New(s store.Store, geo Geocoder, places PlaceSearcher, weather Forecaster, hotels HotelSearcher, opts ...Option) *Planner {
	p := &Planner{
		store:   s,
		geo:     geo,
		places:  places,
		weather: weather,
		hotels:  hotels,
		limit:   CLIAttractionLimit,
		rec:     telemetry.Noop{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Locate returns the location of city, which the caller has already trimmed
// and lowercased. Unresolved and non-US cities are never cached.
func (p *Planner) Locate(ctx context.Context, city string) (CityLocation, error) {
	return fetchOrCache(ctx, p, store.NamespaceLocation, cachekey.Location(city), nil, func(ctx context.Context) (CityLocation, bool, error) {
		geo, err := call(ctx, p, "opentripmap.geoname", func(ctx context.Context) (*provider.Geoname, error) {
			return p.geo.Geoname(ctx, city)
		})
		if err != nil {
			return CityLocation{}, false, fmt.Errorf("locating %s: %w", city, err)
		}
		if geo.Status != provider.StatusOK {
			return CityLocation{}, false, fmt.Errorf("locating %s: status %s: %w", city, geo.Status, ErrCityNotFound)
		}
		if geo.Country != SupportedCountry {
			return CityLocation{}, false, fmt.Errorf("locating %s: country %s: %w", city, geo.Country, ErrUnsupportedCountry)
		}
		loc := CityLocation{
			Name:     geo.Name,
			Position: Position{Lat: round2(geo.Lat), Lon: round2(geo.Lon)},
		}
		return loc, true, nil
	})
}

// Locations returns every cached city location. Entries that fail to decode
// are skipped.
func (p *Planner) Locations(ctx context.Context) (Locations, error) {
	m, err := p.store.Load(ctx, store.NamespaceLocation)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", store.NamespaceLocation, err)
	}
	locs := make(Locations, len(m))
	for key := range m {
		var loc CityLocation
		if _, err := m.Get(key, &loc); err != nil {
			p.log.Warn("skipping undecodable location", "key", key, "err", err)
			continue
		}
		locs[key] = loc
	}
	return locs, nil
}

// Attractions returns the places of kind category around city. A city absent
// from locs yields an empty, uncached result; an empty provider answer is cached.
func (p *Planner) Attractions(ctx context.Context, city, category string, locs Locations) ([]provider.Place, error) {
	if !IsCategory(category) {
		return nil, fmt.Errorf("%q: %w", category, ErrUnknownCategory)
	}
	return fetchOrCache(ctx, p, store.NamespaceAttraction, cachekey.Attraction(city, category), nil, func(ctx context.Context) ([]provider.Place, bool, error) {
		loc, ok := locs[city]
		if !ok {
			return []provider.Place{}, false, nil
		}

		radius, err := SearchRadius(ctx, p.radius, city)
		if err != nil {
			p.log.Warn("radius lookup failed, using default", "city", city, "err", err)
		}

		places, err := call(ctx, p, "opentripmap.radius", func(ctx context.Context) ([]provider.Place, error) {
			return p.places.Radius(ctx, provider.RadiusQuery{
				Lat:          loc.Position.Lat,
				Lon:          loc.Position.Lon,
				RadiusMeters: radius,
				Kinds:        category,
				Limit:        p.limit,
			})
		})
		if err != nil {
			return nil, false, fmt.Errorf("searching %s around %s: %w", category, city, err)
		}
		if places == nil {
			places = []provider.Place{}
		}
		return places, true, nil
	})
}

// Weather returns the forecast for city. It never reads or writes the store.
func (p *Planner) Weather(ctx context.Context, city string, locs Locations) ([]provider.ForecastDay, error) {
	loc, ok := locs[city]
	if !ok {
		return []provider.ForecastDay{}, nil
	}
	days, err := call(ctx, p, "weatherunlocked.forecast", func(ctx context.Context) ([]provider.ForecastDay, error) {
		return p.weather.Forecast(ctx, loc.Position.Lat, loc.Position.Lon)
	})
	if err != nil {
		return nil, fmt.Errorf("forecast for %s: %w", city, err)
	}
	return days, nil
}

// Hotels returns the hotels within 3 km of lon/lat. Only successful searches
// are cached, including empty ones. A stored entry without businesses, such as
// an error payload written by an older version, is refetched.
func (p *Planner) Hotels(ctx context.Context, lon, lat float64) (*provider.HotelSearch, error) {
	key := cachekey.Hotel(lon, lat)
	return fetchOrCache(ctx, p, store.NamespaceHotel, key, hasBusinesses, func(ctx context.Context) (*provider.HotelSearch, bool, error) {
		res, err := call(ctx, p, "yelp.search", func(ctx context.Context) (*provider.HotelSearch, error) {
			return p.hotels.Search(ctx, lat, lon)
		})
		if err != nil {
			return nil, false, fmt.Errorf("hotels near %s: %w", key, err)
		}
		if !hasBusinesses(res) {
			return nil, false, fmt.Errorf("hotels near %s: missing businesses: %w", key, provider.ErrMalformedResponse)
		}
		return res, true, nil
	})
}

func hasBusinesses(res *provider.HotelSearch) bool {
	return res != nil && res.Businesses != nil
}
