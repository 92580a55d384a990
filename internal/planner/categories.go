package planner

import "fmt"

var categories = []string{
	"bridges",
	"historic_architecture",
	"lighthouses",
	"skyscrapers",
	"towers",
	"museums",
	"theatres_and_entertainments",
	"urban_environment",
	"archaeology",
	"burial_places",
	"fortifications",
	"historical_places",
	"monuments_and_memorials",
	"beaches",
	"geological_formations",
	"glaciers",
	"islands",
	"natural_springs",
	"nature_reserves",
	"water",
	"buddhist_temples",
	"cathedrals",
	"egyptian_temples",
	"hindu_temples",
	"monasteries",
	"mosques",
	"synagogues",
	"other_temples",
}

// Categories returns the OpenTripMap kinds a user can search, in menu order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// Category returns the kind at menu position n, counting from 1.
func Category(n int) (string, error) {
	if n < 1 || n > len(categories) {
		return "", fmt.Errorf("category %d out of range 1-%d: %w", n, len(categories), ErrUnknownCategory)
	}
	return categories[n-1], nil
}

// IsCategory reports whether kind is one of the searchable kinds.
func IsCategory(kind string) bool {
	for _, c := range categories {
		if c == kind {
			return true
		}
	}
	return false
}
