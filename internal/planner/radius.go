package planner

import (
	"context"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRadiusMeters is used for cities missing from the reference table.
const DefaultRadiusMeters = 14000

// RadiusLookup finds the land area in square kilometres of a title-cased city name.
type RadiusLookup interface {
	CityArea(ctx context.Context, city string) (area float64, ok bool, err error)
}

// TitleCity converts a normalized city name to the form stored in the reference
// table. A letter after an apostrophe starts a new word, so "o'fallon" becomes
// "O'Fallon".
func TitleCity(city string) string {
	caser := cases.Title(language.English)
	parts := strings.Split(strings.TrimSpace(city), "'")
	for i, part := range parts {
		parts[i] = caser.String(part)
	}
	return strings.Join(parts, "'")
}

// SearchRadius returns sqrt(area)*1000 metres for a known city and
// DefaultRadiusMeters otherwise. A nil lookup behaves like an empty table.
func SearchRadius(ctx context.Context, lookup RadiusLookup, city string) (int, error) {
	if lookup == nil {
		return DefaultRadiusMeters, nil
	}
	area, ok, err := lookup.CityArea(ctx, TitleCity(city))
	if err != nil {
		return DefaultRadiusMeters, err
	}
	if !ok || area <= 0 {
		return DefaultRadiusMeters, nil
	}
	return int(math.Round(math.Sqrt(area) * 1000)), nil
}
