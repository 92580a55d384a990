// Package charts builds Plotly figures for the web pages. A figure is
// serialized to JSON and handed to Plotly.newPlot in the browser.
package charts

import (
	"encoding/json"
	"fmt"

	"github.com/neexbeast/tripplanner/internal/planner"
)

// Figure is a Plotly figure.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is the subset of Plotly trace attributes used here.
type Trace struct {
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	X         []any     `json:"x,omitempty"`
	Y         []float64 `json:"y,omitempty"`
	Lat       []float64 `json:"lat,omitempty"`
	Lon       []float64 `json:"lon,omitempty"`
	Text      []string  `json:"text,omitempty"`
	HoverText []string  `json:"hovertext,omitempty"`
	TextFont  *Font     `json:"textfont,omitempty"`
	Marker    *Marker   `json:"marker,omitempty"`
}

// Font sets the text size of a trace.
type Font struct {
	Size int `json:"size"`
}

// Marker styles the points or bars of a trace.
type Marker struct {
	Size    int     `json:"size,omitempty"`
	Color   string  `json:"color,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
}

// Layout is the subset of Plotly layout attributes used here.
type Layout struct {
	HoverMode string  `json:"hovermode,omitempty"`
	BarMode   string  `json:"barmode,omitempty"`
	Mapbox    *Mapbox `json:"mapbox,omitempty"`
}

// Mapbox positions the map layer of a scattermapbox figure.
type Mapbox struct {
	AccessToken string           `json:"accesstoken"`
	Bearing     float64          `json:"bearing"`
	Center      planner.Position `json:"center"`
	Pitch       float64          `json:"pitch"`
	Zoom        float64          `json:"zoom"`
}

// AttractionsMap plots attractions as red markers on a map centred on the city.
func AttractionsMap(center planner.Position, attractions []planner.Attraction, mapboxToken string) Figure {
	tr := Trace{
		Type:     "scattermapbox",
		Mode:     "markers",
		Lat:      make([]float64, 0, len(attractions)),
		Lon:      make([]float64, 0, len(attractions)),
		Text:     make([]string, 0, len(attractions)),
		TextFont: &Font{Size: 16},
		Marker:   &Marker{Size: 12, Color: "red", Opacity: 0.8, Symbol: "circle"},
	}
	for _, a := range attractions {
		tr.Lat = append(tr.Lat, a.Lat)
		tr.Lon = append(tr.Lon, a.Lon)
		tr.Text = append(tr.Text, a.Name)
	}

	return Figure{
		Data: []Trace{tr},
		Layout: Layout{
			HoverMode: "closest",
			Mapbox: &Mapbox{
				AccessToken: mapboxToken,
				Center:      center,
				Pitch:       20,
				Zoom:        10,
			},
		},
	}
}

// PriceLevel maps a Yelp price tier to a bar height: "$$" is 2, a missing price is 0.
func PriceLevel(price string) float64 {
	if price == "" || price == planner.PriceNotProvided {
		return 0
	}
	return float64(len(price))
}

// HotelBars plots rating and price level side by side for each hotel.
func HotelBars(hotels []planner.Hotel) Figure {
	rating := Trace{Type: "bar", Name: "hotel rating", Marker: &Marker{Color: "red"}}
	price := Trace{Type: "bar", Name: "hotel price", Marker: &Marker{Color: "blue"}}

	for _, h := range hotels {
		rating.X = append(rating.X, h.Name)
		rating.Y = append(rating.Y, h.Rating)
		rating.HoverText = append(rating.HoverText, fmt.Sprintf("%s:rating %g", h.Name, h.Rating))

		price.X = append(price.X, h.Name)
		price.Y = append(price.Y, PriceLevel(h.Price))
		price.HoverText = append(price.HoverText, fmt.Sprintf("%s:price %s", h.Name, h.Price))
	}

	return Figure{Data: []Trace{rating, price}, Layout: Layout{BarMode: "group"}}
}

// JSON encodes f for embedding in a page.
func (f Figure) JSON() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding figure: %w", err)
	}
	return string(b), nil
}
