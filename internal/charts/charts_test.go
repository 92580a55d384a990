package charts_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripplanner/internal/charts"
	"github.com/neexbeast/tripplanner/internal/planner"
)

func TestAttractionsMap(t *testing.T) {
	center := planner.Position{Lat: 42.28, Lon: -83.74}
	fig := charts.AttractionsMap(center, []planner.Attraction{
		{Name: "Kelsey Museum", Lat: 42.2766, Lon: -83.7376},
		{Name: "Arb", Lat: 42.28, Lon: -83.72},
	}, "pk.test")

	require.Len(t, fig.Data, 1)
	tr := fig.Data[0]
	assert.Equal(t, "scattermapbox", tr.Type)
	assert.Equal(t, []float64{42.2766, 42.28}, tr.Lat)
	assert.Equal(t, []float64{-83.7376, -83.72}, tr.Lon)
	assert.Equal(t, []string{"Kelsey Museum", "Arb"}, tr.Text)

	require.NotNil(t, fig.Layout.Mapbox)
	assert.Equal(t, "pk.test", fig.Layout.Mapbox.AccessToken)
	assert.Equal(t, center, fig.Layout.Mapbox.Center)
}

func TestAttractionsMap_JSONShape(t *testing.T) {
	fig := charts.AttractionsMap(planner.Position{Lat: 1, Lon: 2}, nil, "tok")
	s, err := fig.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &decoded))
	layout := decoded["layout"].(map[string]any)
	mapbox := layout["mapbox"].(map[string]any)
	assert.Equal(t, "tok", mapbox["accesstoken"])
	assert.Equal(t, map[string]any{"lat": 1.0, "lon": 2.0}, mapbox["center"])
}

func TestPriceLevel(t *testing.T) {
	assert.Equal(t, 0.0, charts.PriceLevel(planner.PriceNotProvided))
	assert.Equal(t, 0.0, charts.PriceLevel(""))
	assert.Equal(t, 1.0, charts.PriceLevel("$"))
	assert.Equal(t, 4.0, charts.PriceLevel("$$$$"))
}

func TestHotelBars(t *testing.T) {
	fig := charts.HotelBars([]planner.Hotel{
		{Name: "Graduate", Price: "$$", Rating: 4.5},
		{Name: "Budget Inn", Price: planner.PriceNotProvided, Rating: 3},
	})

	require.Len(t, fig.Data, 2)
	rating, price := fig.Data[0], fig.Data[1]
	assert.Equal(t, "hotel rating", rating.Name)
	assert.Equal(t, []float64{4.5, 3}, rating.Y)
	assert.Equal(t, []any{"Graduate", "Budget Inn"}, rating.X)
	assert.Equal(t, "Graduate:rating 4.5", rating.HoverText[0])

	assert.Equal(t, "hotel price", price.Name)
	assert.Equal(t, []float64{2, 0}, price.Y)
	assert.Equal(t, "Budget Inn:price not provided", price.HoverText[1])
}
