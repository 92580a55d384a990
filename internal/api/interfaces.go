package api

import (
	"context"

	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/provider"
	"github.com/neexbeast/tripplanner/internal/refdb"
)

// TripPlanner defines the orchestrator operations needed by handlers.
// *planner.Planner satisfies this interface.
type TripPlanner interface {
	Locate(ctx context.Context, city string) (planner.CityLocation, error)
	Locations(ctx context.Context) (planner.Locations, error)
	Attractions(ctx context.Context, city, category string, locs planner.Locations) ([]provider.Place, error)
	Weather(ctx context.Context, city string, locs planner.Locations) ([]provider.ForecastDay, error)
	Hotels(ctx context.Context, lon, lat float64) (*provider.HotelSearch, error)
}

// AirportFinder defines the reference lookup needed by the ticket search.
// *refdb.Repository satisfies this interface.
type AirportFinder interface {
	AirportsInCity(ctx context.Context, city string) ([]refdb.Airport, error)
}
