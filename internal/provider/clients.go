// Package provider holds one thin HTTP adapter per external API.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	httpTimeout  = 10 * time.Second
	maxErrorBody = 64 << 10
)

var (
	// ErrMalformedResponse reports a provider response missing a required field.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrProviderRejected reports a provider answering with an error payload.
	ErrProviderRejected = errors.New("provider rejected request")
)

// StatusError is returned for a non-200 response; Body holds the start of the payload.
type StatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.StatusCode)
}

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// doGet performs a GET request and decodes the JSON response into dst.
// displayURL is used in errors so credentials in the query never leak into logs.
func doGet(ctx context.Context, client *http.Client, rawURL, displayURL string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", displayURL, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", displayURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: displayURL, StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", displayURL, err)
	}

	return nil
}

// formatFloat prints a coordinate or radius without exponent or trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ---- OpenTripMap ----

const (
	otmGeoDefault    = "https://api.opentripmap.com/0.1/en/places/geoname"
	otmRadiusDefault = "https://api.opentripmap.com/0.1/en/places/radius"
)

// GeoClient resolves city names through the OpenTripMap geoname endpoint.
type GeoClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGeoClient constructs a GeoClient with the given API key.
func NewGeoClient(apiKey string) *GeoClient {
	return &GeoClient{apiKey: apiKey, baseURL: otmGeoDefault, client: newHTTPClient()}
}

// NewGeoClientWithURL constructs a GeoClient pointing at a custom base URL (for tests).
func NewGeoClientWithURL(baseURL, apiKey string) *GeoClient {
	return &GeoClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

// Geoname looks up a place name. An unknown name comes back as a Geoname whose
// Status is not StatusOK, not as an error; OpenTripMap sends that body with a 404.
func (c *GeoClient) Geoname(ctx context.Context, name string) (*Geoname, error) {
	q := url.Values{}
	q.Set("name", name)
	display := c.baseURL + "?" + q.Encode()
	q.Set("apikey", c.apiKey)

	var geo Geoname
	err := doGet(ctx, c.client, c.baseURL+"?"+q.Encode(), display, nil, &geo)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound && json.Unmarshal(se.Body, &geo) == nil && geo.Status != "" {
			return &geo, nil
		}
		return nil, fmt.Errorf("opentripmap geoname for %s: %w", name, err)
	}

	if geo.Status == "" {
		return nil, fmt.Errorf("opentripmap geoname for %s: missing status: %w", name, ErrMalformedResponse)
	}

	return &geo, nil
}

// POIClient searches points of interest through the OpenTripMap radius endpoint.
type POIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPOIClient constructs a POIClient with the given API key.
func NewPOIClient(apiKey string) *POIClient {
	return &POIClient{apiKey: apiKey, baseURL: otmRadiusDefault, client: newHTTPClient()}
}

// NewPOIClientWithURL constructs a POIClient pointing at a custom base URL (for tests).
func NewPOIClientWithURL(baseURL, apiKey string) *POIClient {
	return &POIClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

// Radius returns the places of the given kinds within q.RadiusMeters of the centre.
func (c *POIClient) Radius(ctx context.Context, q RadiusQuery) ([]Place, error) {
	v := url.Values{}
	v.Set("radius", strconv.Itoa(q.RadiusMeters))
	v.Set("lat", formatFloat(q.Lat))
	v.Set("lon", formatFloat(q.Lon))
	v.Set("format", "json")
	v.Set("kinds", q.Kinds)
	v.Set("limit", strconv.Itoa(q.Limit))
	display := c.baseURL + "?" + v.Encode()
	v.Set("apikey", c.apiKey)

	var places []Place
	if err := doGet(ctx, c.client, c.baseURL+"?"+v.Encode(), display, nil, &places); err != nil {
		return nil, fmt.Errorf("opentripmap radius for %s: %w", q.Kinds, err)
	}

	if places == nil {
		places = []Place{}
	}

	return places, nil
}

// ---- Weather Unlocked ----

const wuDefaultURL = "http://api.weatherunlocked.com/api/forecast"

// WeatherClient fetches multi-day forecasts from Weather Unlocked.
type WeatherClient struct {
	appID   string
	appKey  string
	baseURL string
	client  *http.Client
}

// NewWeatherClient constructs a WeatherClient with the given credentials.
func NewWeatherClient(appID, appKey string) *WeatherClient {
	return &WeatherClient{appID: appID, appKey: appKey, baseURL: wuDefaultURL, client: newHTTPClient()}
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL (for tests).
func NewWeatherClientWithURL(baseURL, appID, appKey string) *WeatherClient {
	return &WeatherClient{appID: appID, appKey: appKey, baseURL: baseURL, client: newHTTPClient()}
}

type wuResponse struct {
	Days *[]ForecastDay `json:"Days"`
}

// Forecast returns the day list of the forecast for lat/lon.
func (c *WeatherClient) Forecast(ctx context.Context, lat, lon float64) ([]ForecastDay, error) {
	endpoint := c.baseURL + "/" + formatFloat(lat) + "," + formatFloat(lon)
	q := url.Values{}
	q.Set("app_id", c.appID)
	q.Set("app_key", c.appKey)

	var raw wuResponse
	if err := doGet(ctx, c.client, endpoint+"?"+q.Encode(), endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("weatherunlocked forecast for %s: %w", endpoint, err)
	}

	if raw.Days == nil {
		return nil, fmt.Errorf("weatherunlocked forecast for %s: missing Days: %w", endpoint, ErrMalformedResponse)
	}

	return *raw.Days, nil
}

// ---- Yelp ----

const (
	yelpDefaultURL = "https://api.yelp.com/v3/businesses/search"
	hotelRadius    = 3000
	hotelCategory  = "hotels"
)

// HotelClient searches hotels through the Yelp Fusion business search.
type HotelClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHotelClient constructs a HotelClient with the given bearer key.
func NewHotelClient(apiKey string) *HotelClient {
	return &HotelClient{apiKey: apiKey, baseURL: yelpDefaultURL, client: newHTTPClient()}
}

// NewHotelClientWithURL constructs a HotelClient pointing at a custom base URL (for tests).
func NewHotelClientWithURL(baseURL, apiKey string) *HotelClient {
	return &HotelClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type yelpResponse struct {
	Businesses *[]Business `json:"businesses"`
	Total      int         `json:"total"`
	Error      *yelpError  `json:"error"`
}

type yelpError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Search returns hotels within 3000 m of lat/lon.
// A Yelp error payload, whatever its HTTP status, becomes ErrProviderRejected.
func (c *HotelClient) Search(ctx context.Context, lat, lon float64) (*HotelSearch, error) {
	q := url.Values{}
	q.Set("latitude", formatFloat(lat))
	q.Set("longitude", formatFloat(lon))
	q.Set("radius", strconv.Itoa(hotelRadius))
	q.Set("categories", hotelCategory)
	endpoint := c.baseURL + "?" + q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	var raw yelpResponse
	if err := doGet(ctx, c.client, endpoint, endpoint, header, &raw); err != nil {
		var se *StatusError
		if errors.As(err, &se) && json.Unmarshal(se.Body, &raw) == nil && raw.Error != nil {
			return nil, fmt.Errorf("yelp search: %s: %s: %w", raw.Error.Code, raw.Error.Description, ErrProviderRejected)
		}
		return nil, fmt.Errorf("yelp search: %w", err)
	}

	if raw.Error != nil {
		return nil, fmt.Errorf("yelp search: %s: %s: %w", raw.Error.Code, raw.Error.Description, ErrProviderRejected)
	}
	if raw.Businesses == nil {
		return nil, fmt.Errorf("yelp search: missing businesses: %w", ErrMalformedResponse)
	}

	return &HotelSearch{Businesses: *raw.Businesses, Total: raw.Total}, nil
}
