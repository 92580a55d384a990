package planner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripplanner/internal/cachekey"
	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/provider"
	"github.com/neexbeast/tripplanner/internal/store"
)

// ---- mocks ----

type mockGeo struct {
	calls int
	fn    func(name string) (*provider.Geoname, error)
}

func (m *mockGeo) Geoname(_ context.Context, name string) (*provider.Geoname, error) {
	m.calls++
	return m.fn(name)
}

type mockPlaces struct {
	calls int
	last  provider.RadiusQuery
	fn    func(q provider.RadiusQuery) ([]provider.Place, error)
}

func (m *mockPlaces) Radius(_ context.Context, q provider.RadiusQuery) ([]provider.Place, error) {
	m.calls++
	m.last = q
	return m.fn(q)
}

type mockWeather struct {
	calls int
	fn    func(lat, lon float64) ([]provider.ForecastDay, error)
}

func (m *mockWeather) Forecast(_ context.Context, lat, lon float64) ([]provider.ForecastDay, error) {
	m.calls++
	return m.fn(lat, lon)
}

type mockHotels struct {
	calls int
	fn    func(lat, lon float64) (*provider.HotelSearch, error)
}

func (m *mockHotels) Search(_ context.Context, lat, lon float64) (*provider.HotelSearch, error) {
	m.calls++
	return m.fn(lat, lon)
}

type mockRadius struct {
	areas map[string]float64
	err   error
}

func (m *mockRadius) CityArea(_ context.Context, city string) (float64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	a, ok := m.areas[city]
	return a, ok, nil
}

// countingStore wraps a FileStore and counts saves per namespace.
type countingStore struct {
	*store.FileStore
	saves map[store.Namespace]int
	loads map[store.Namespace]int
}

func (s *countingStore) Load(ctx context.Context, ns store.Namespace) (store.Mapping, error) {
	s.loads[ns]++
	return s.FileStore.Load(ctx, ns)
}

func (s *countingStore) Save(ctx context.Context, ns store.Namespace, m store.Mapping) error {
	s.saves[ns]++
	return s.FileStore.Save(ctx, ns, m)
}

type fixture struct {
	store   *countingStore
	geo     *mockGeo
	places  *mockPlaces
	weather *mockWeather
	hotels  *mockHotels
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		store: &countingStore{
			FileStore: store.NewFileStore(t.TempDir(), discardLogger()),
			saves:     map[store.Namespace]int{},
			loads:     map[store.Namespace]int{},
		},
		geo: &mockGeo{fn: func(name string) (*provider.Geoname, error) {
			return &provider.Geoname{Status: "OK", Name: "Ann Arbor", Country: "US", Lat: 42.27756, Lon: -83.74088}, nil
		}},
		places: &mockPlaces{fn: func(q provider.RadiusQuery) ([]provider.Place, error) {
			return []provider.Place{
				{Name: "Kelsey Museum", Rate: 3, Point: provider.Point{Lon: -83.7376, Lat: 42.2766}},
				{Name: "", Rate: 1, Point: provider.Point{Lon: -83.74, Lat: 42.28}},
			}, nil
		}},
		weather: &mockWeather{fn: func(lat, lon float64) ([]provider.ForecastDay, error) {
			return []provider.ForecastDay{{Date: "19/10/2026", TempMaxC: 14, TempMinC: 3}}, nil
		}},
		hotels: &mockHotels{fn: func(lat, lon float64) (*provider.HotelSearch, error) {
			return &provider.HotelSearch{Total: 1, Businesses: []provider.Business{
				{Name: "Graduate", Price: "$$", Rating: 4.5, URL: "https://y/1"},
			}}, nil
		}},
	}
}

func (f *fixture) planner(opts ...planner.Option) *planner.Planner {
	opts = append([]planner.Option{planner.WithLogger(discardLogger())}, opts...)
	return planner.New(f.store, f.geo, f.places, f.weather, f.hotels, opts...)
}

var annArbor = planner.Locations{
	"ann arbor": {Name: "Ann Arbor", Position: planner.Position{Lat: 42.28, Lon: -83.74}},
}

// ---- Locate ----

func TestLocate_CachesAndRounds(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	loc, err := p.Locate(ctx, "ann arbor")
	require.NoError(t, err)
	assert.Equal(t, "Ann Arbor", loc.Name)
	assert.Equal(t, 42.28, loc.Position.Lat)
	assert.Equal(t, -83.74, loc.Position.Lon)

	again, err := p.Locate(ctx, "ann arbor")
	require.NoError(t, err)
	assert.Equal(t, loc, again)
	assert.Equal(t, 1, f.geo.calls)
	assert.Equal(t, 1, f.store.saves[store.NamespaceLocation])
}

func TestLocate_NotFoundIsNotCached(t *testing.T) {
	f := newFixture(t)
	f.geo.fn = func(string) (*provider.Geoname, error) {
		return &provider.Geoname{Status: "NOT_FOUND"}, nil
	}
	p := f.planner()
	ctx := context.Background()

	_, err := p.Locate(ctx, "atlantis")
	require.ErrorIs(t, err, planner.ErrCityNotFound)
	_, err = p.Locate(ctx, "atlantis")
	require.ErrorIs(t, err, planner.ErrCityNotFound)

	assert.Equal(t, 2, f.geo.calls)
	assert.Zero(t, f.store.saves[store.NamespaceLocation])

	locs, err := p.Locations(ctx)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestLocate_NonUSIsNotCached(t *testing.T) {
	f := newFixture(t)
	f.geo.fn = func(string) (*provider.Geoname, error) {
		return &provider.Geoname{Status: "OK", Name: "Paris", Country: "FR", Lat: 48.85, Lon: 2.35}, nil
	}
	p := f.planner()
	ctx := context.Background()

	_, err := p.Locate(ctx, "paris")
	require.ErrorIs(t, err, planner.ErrUnsupportedCountry)
	assert.ErrorIs(t, err, planner.ErrCityNotFound)

	_, err = p.Locate(ctx, "paris")
	require.Error(t, err)
	assert.Equal(t, 2, f.geo.calls)
	assert.Zero(t, f.store.saves[store.NamespaceLocation])
}

func TestLocate_ProviderFaultPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	f.geo.fn = func(string) (*provider.Geoname, error) { return nil, boom }

	_, err := f.planner().Locate(context.Background(), "ann arbor")
	require.ErrorIs(t, err, boom)
	assert.Zero(t, f.store.saves[store.NamespaceLocation])
}

func TestLocations_ReturnsCachedCities(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	_, err := p.Locate(ctx, "ann arbor")
	require.NoError(t, err)

	locs, err := p.Locations(ctx)
	require.NoError(t, err)
	require.Contains(t, locs, "ann arbor")
	assert.Equal(t, 42.28, locs["ann arbor"].Position.Lat)
}

// ---- Attractions ----

func TestAttractions_SecondCallHitsCache(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	first, err := p.Attractions(ctx, "ann arbor", "museums", annArbor)
	require.NoError(t, err)
	second, err := p.Attractions(ctx, "ann arbor", "museums", annArbor)
	require.NoError(t, err)

	assert.Equal(t, 1, f.places.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.store.saves[store.NamespaceAttraction])
}

func TestAttractions_QueryParameters(t *testing.T) {
	f := newFixture(t)
	p := f.planner(
		planner.WithAttractionLimit(planner.WebAttractionLimit),
		planner.WithRadiusLookup(&mockRadius{areas: map[string]float64{"Ann Arbor": 72}}),
	)

	_, err := p.Attractions(context.Background(), "ann arbor", "museums", annArbor)
	require.NoError(t, err)

	assert.Equal(t, provider.RadiusQuery{
		Lat: 42.28, Lon: -83.74, RadiusMeters: 8485, Kinds: "museums", Limit: 20,
	}, f.places.last)
}

func TestAttractions_DefaultLimitAndRadius(t *testing.T) {
	f := newFixture(t)
	_, err := f.planner().Attractions(context.Background(), "ann arbor", "bridges", annArbor)
	require.NoError(t, err)

	assert.Equal(t, planner.CLIAttractionLimit, f.places.last.Limit)
	assert.Equal(t, planner.DefaultRadiusMeters, f.places.last.RadiusMeters)
}

func TestAttractions_RadiusLookupFailureUsesDefault(t *testing.T) {
	f := newFixture(t)
	p := f.planner(planner.WithRadiusLookup(&mockRadius{err: errors.New("db down")}))

	_, err := p.Attractions(context.Background(), "ann arbor", "bridges", annArbor)
	require.NoError(t, err)
	assert.Equal(t, planner.DefaultRadiusMeters, f.places.last.RadiusMeters)
}

func TestAttractions_EmptyResultIsCached(t *testing.T) {
	f := newFixture(t)
	f.places.fn = func(provider.RadiusQuery) ([]provider.Place, error) { return []provider.Place{}, nil }
	p := f.planner()
	ctx := context.Background()

	first, err := p.Attractions(ctx, "ann arbor", "glaciers", annArbor)
	require.NoError(t, err)
	assert.Empty(t, first)

	second, err := p.Attractions(ctx, "ann arbor", "glaciers", annArbor)
	require.NoError(t, err)
	assert.NotNil(t, second)
	assert.Empty(t, second)
	assert.Equal(t, 1, f.places.calls)

	m, err := f.store.Load(ctx, store.NamespaceAttraction)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(m[cachekey.Attraction("ann arbor", "glaciers")]))
}

func TestAttractions_UnknownCityIsNotCached(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	places, err := p.Attractions(ctx, "ann arbor", "museums", planner.Locations{})
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Zero(t, f.places.calls)
	assert.Zero(t, f.store.saves[store.NamespaceAttraction])

	// Once the city is located the same query goes to the provider.
	places, err = p.Attractions(ctx, "ann arbor", "museums", annArbor)
	require.NoError(t, err)
	assert.Len(t, places, 2)
	assert.Equal(t, 1, f.places.calls)
}

func TestAttractions_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.planner().Attractions(context.Background(), "ann arbor", "casinos", annArbor)
	require.ErrorIs(t, err, planner.ErrUnknownCategory)
	assert.Zero(t, f.places.calls)
}

func TestAttractions_ProviderFaultIsNotCached(t *testing.T) {
	f := newFixture(t)
	f.places.fn = func(provider.RadiusQuery) ([]provider.Place, error) { return nil, errors.New("timeout") }

	_, err := f.planner().Attractions(context.Background(), "ann arbor", "museums", annArbor)
	require.Error(t, err)
	assert.Zero(t, f.store.saves[store.NamespaceAttraction])
}

// ---- Weather ----

func TestWeather_NeverTouchesStore(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		days, err := p.Weather(ctx, "ann arbor", annArbor)
		require.NoError(t, err)
		require.Len(t, days, 1)
	}

	assert.Equal(t, 3, f.weather.calls)
	assert.Empty(t, f.store.saves)
	assert.Empty(t, f.store.loads)
}

func TestWeather_UnknownCity(t *testing.T) {
	f := newFixture(t)
	days, err := f.planner().Weather(context.Background(), "nowhere", annArbor)
	require.NoError(t, err)
	assert.Empty(t, days)
	assert.Zero(t, f.weather.calls)
}

func TestWeather_MalformedResponse(t *testing.T) {
	f := newFixture(t)
	f.weather.fn = func(float64, float64) ([]provider.ForecastDay, error) {
		return nil, provider.ErrMalformedResponse
	}
	_, err := f.planner().Weather(context.Background(), "ann arbor", annArbor)
	require.ErrorIs(t, err, provider.ErrMalformedResponse)
}

// ---- Hotels ----

func TestHotels_SecondCallHitsCache(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	first, err := p.Hotels(ctx, -83.7376, 42.2766)
	require.NoError(t, err)
	second, err := p.Hotels(ctx, -83.7376, 42.2766)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.hotels.calls)
}

func TestHotels_EquivalentCoordinatesShareEntry(t *testing.T) {
	f := newFixture(t)
	p := f.planner()
	ctx := context.Background()

	_, err := p.Hotels(ctx, -83.7, 42.28)
	require.NoError(t, err)
	_, err = p.Hotels(ctx, -83.70000000001, 42.280)
	require.NoError(t, err)

	assert.Equal(t, 1, f.hotels.calls)
}

func TestHotels_ErrorPayloadIsNotCached(t *testing.T) {
	f := newFixture(t)
	f.hotels.fn = func(float64, float64) (*provider.HotelSearch, error) {
		return nil, provider.ErrProviderRejected
	}
	p := f.planner()
	ctx := context.Background()

	_, err := p.Hotels(ctx, -83.74, 42.28)
	require.ErrorIs(t, err, provider.ErrProviderRejected)
	_, err = p.Hotels(ctx, -83.74, 42.28)
	require.ErrorIs(t, err, provider.ErrProviderRejected)

	assert.Equal(t, 2, f.hotels.calls)
	assert.Zero(t, f.store.saves[store.NamespaceHotel])
}

func TestHotels_EmptyResultIsCached(t *testing.T) {
	f := newFixture(t)
	f.hotels.fn = func(float64, float64) (*provider.HotelSearch, error) {
		return &provider.HotelSearch{Businesses: []provider.Business{}}, nil
	}
	p := f.planner()
	ctx := context.Background()

	res, err := p.Hotels(ctx, -83.74, 42.28)
	require.NoError(t, err)
	assert.Empty(t, res.Businesses)

	_, err = p.Hotels(ctx, -83.74, 42.28)
	require.NoError(t, err)
	assert.Equal(t, 1, f.hotels.calls)
}

func TestHotels_PassesLatLonInOrder(t *testing.T) {
	f := newFixture(t)
	var gotLat, gotLon float64
	f.hotels.fn = func(lat, lon float64) (*provider.HotelSearch, error) {
		gotLat, gotLon = lat, lon
		return &provider.HotelSearch{Businesses: []provider.Business{}}, nil
	}

	_, err := f.planner().Hotels(context.Background(), -83.74, 42.28)
	require.NoError(t, err)
	assert.Equal(t, 42.28, gotLat)
	assert.Equal(t, -83.74, gotLon)
}

// ---- corrupt cache ----

func TestCorruptEntryIsRefetched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.FileStore.Save(ctx, store.NamespaceLocation, store.Mapping{
		"ann arbor": []byte(`"not a location"`),
	}))

	loc, err := f.planner().Locate(ctx, "ann arbor")
	require.NoError(t, err)
	assert.Equal(t, "Ann Arbor", loc.Name)
	assert.Equal(t, 1, f.geo.calls)
}

func TestHotels_StoredErrorPayloadIsRefetched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cachekey.Hotel(-83.74, 42.28)
	require.NoError(t, f.store.FileStore.Save(ctx, store.NamespaceHotel, store.Mapping{
		key: []byte(`{"error":{"code":"TOO_MANY_REQUESTS_PER_SECOND","description":"You have exceeded the queries-per-second limit for this endpoint."}}`),
	}))
	p := f.planner()

	res, err := p.Hotels(ctx, -83.74, 42.28)
	require.NoError(t, err)
	require.Len(t, res.Businesses, 1)
	assert.Equal(t, "Graduate", res.Businesses[0].Name)

	_, err = p.Hotels(ctx, -83.74, 42.28)
	require.NoError(t, err)
	assert.Equal(t, 1, f.hotels.calls)

	m, err := f.store.FileStore.Load(ctx, store.NamespaceHotel)
	require.NoError(t, err)
	assert.Contains(t, string(m[key]), `"businesses"`)
}

func TestHotels_MissingBusinessesIsNotCached(t *testing.T) {
	f := newFixture(t)
	f.hotels.fn = func(float64, float64) (*provider.HotelSearch, error) {
		return &provider.HotelSearch{Total: 0}, nil
	}
	p := f.planner()
	ctx := context.Background()

	_, err := p.Hotels(ctx, -83.74, 42.28)
	require.ErrorIs(t, err, provider.ErrMalformedResponse)
	_, err = p.Hotels(ctx, -83.74, 42.28)
	require.ErrorIs(t, err, provider.ErrMalformedResponse)

	assert.Equal(t, 2, f.hotels.calls)
	assert.Zero(t, f.store.saves[store.NamespaceHotel])
}
