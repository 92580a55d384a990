// Package cachekey derives the canonical cache keys used by the planner namespaces.
//
// City names are used as given: callers trim and lowercase them before building a key.
package cachekey

import (
	"math"
	"strconv"
)

// coordDecimals bounds the precision of coordinates embedded in hotel keys.
const coordDecimals = 6

// Location returns the geolocation key for a city, which is the city itself.
func Location(city string) string {
	return city
}

// Attraction returns the key for a city and attraction category pair.
func Attraction(city, category string) string {
	return city + "_" + category
}

// Hotel returns the key for a hotel search centred on lon/lat.
// Coordinates are rounded to six decimals and printed in their shortest form,
// so -83.7, -83.70 and -83.7000001 all share one key.
func Hotel(lon, lat float64) string {
	return "lon_" + Coord(lon) + "_and_lat_" + Coord(lat)
}

// Coord formats a coordinate the way hotel keys embed it.
func Coord(v float64) string {
	scale := math.Pow10(coordDecimals)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
