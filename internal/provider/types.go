package provider

// Geoname is the OpenTripMap geoname lookup result.
type Geoname struct {
	Status  string  `json:"status"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// StatusOK is the geoname status of a resolved name.
const StatusOK = "OK"

// Point is a lon/lat pair as OpenTripMap returns it.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Place is a single point of interest from the radius search.
type Place struct {
	XID   string  `json:"xid,omitempty"`
	Name  string  `json:"name"`
	Kinds string  `json:"kinds,omitempty"`
	Dist  float64 `json:"dist,omitempty"`
	Rate  int     `json:"rate"`
	Point Point   `json:"point"`
}

// RadiusQuery describes a points-of-interest search around a centre.
type RadiusQuery struct {
	Lat          float64
	Lon          float64
	RadiusMeters int
	Kinds        string
	Limit        int
}

// Timeframe is one time-indexed forecast entry within a day.
type Timeframe struct {
	Time   int     `json:"time"`
	WxIcon string  `json:"wx_icon"`
	WxDesc string  `json:"wx_desc,omitempty"`
	TempC  float64 `json:"temp_c"`
}

// ForecastDay is one day of a Weather Unlocked forecast.
type ForecastDay struct {
	Date       string      `json:"date"`
	TempMaxC   float64     `json:"temp_max_c"`
	TempMinC   float64     `json:"temp_min_c"`
	Timeframes []Timeframe `json:"Timeframes"`
}

// Business is one Yelp search hit. Price is empty when Yelp omits it.
type Business struct {
	Name         string  `json:"name"`
	Price        string  `json:"price,omitempty"`
	Rating       float64 `json:"rating"`
	URL          string  `json:"url"`
	ReviewCount  int     `json:"review_count"`
	DisplayPhone string  `json:"display_phone"`
}

// HotelSearch is the Yelp business search response.
type HotelSearch struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}
