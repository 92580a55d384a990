package planner

import (
	"math"

	"github.com/neexbeast/tripplanner/internal/provider"
)

// Placeholders shown when a provider leaves a field out.
const (
	NameNotProvided  = "<name not provided!>"
	PriceNotProvided = "not provided"
)

// Position is a rounded city centre.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CityLocation is the cached geolocation of a city. It never changes once stored.
type CityLocation struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// Locations maps a normalized city name to its resolved location.
type Locations map[string]CityLocation

// Attraction is the display form of a place.
type Attraction struct {
	Name string
	Lat  float64
	Lon  float64
	Rate int
}

// AttractionFromPlace builds the display form of p.
func AttractionFromPlace(p provider.Place) Attraction {
	name := p.Name
	if name == "" {
		name = NameNotProvided
	}
	return Attraction{Name: name, Lat: p.Point.Lat, Lon: p.Point.Lon, Rate: p.Rate}
}

// Attractions converts a list of places.
func Attractions(places []provider.Place) []Attraction {
	out := make([]Attraction, 0, len(places))
	for _, p := range places {
		out = append(out, AttractionFromPlace(p))
	}
	return out
}

// Hotel is the display form of a business.
type Hotel struct {
	Name        string
	Price       string
	Rating      float64
	URL         string
	ReviewCount int
	Phone       string
}

// HotelFromBusiness builds the display form of b.
func HotelFromBusiness(b provider.Business) Hotel {
	price := b.Price
	if price == "" {
		price = PriceNotProvided
	}
	return Hotel{
		Name:        b.Name,
		Price:       price,
		Rating:      b.Rating,
		URL:         b.URL,
		ReviewCount: b.ReviewCount,
		Phone:       b.DisplayPhone,
	}
}

// Hotels converts a list of businesses.
func Hotels(businesses []provider.Business) []Hotel {
	out := make([]Hotel, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, HotelFromBusiness(b))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
