package api

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/provider"
	"github.com/neexbeast/tripplanner/internal/refdb"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html"))

type indexPage struct {
	Categories []string
}

type attractionItem struct {
	planner.Attraction
	Choice string
}

type weatherFrame struct {
	Time  string
	Icon  string
	Desc  string
	TempC float64
}

type weatherDay struct {
	Date   string
	MinC   float64
	MaxC   float64
	Frames []weatherFrame
}

type attractionsPage struct {
	City         string
	Category     string
	Presentation string
	Weather      []weatherDay
	Attractions  []attractionItem
	Figure       template.JS
}

type hotelsPage struct {
	Attraction   string
	Presentation string
	Hotels       []planner.Hotel
	Figure       template.JS
}

type ticketsPage struct {
	Date        string
	Departure   refdb.Airport
	Destination refdb.Airport
	URL         string
}

// clockTime renders a Weather Unlocked time such as 600 or 1500 as "06:00" or "15:00".
func clockTime(t int) string {
	return fmt.Sprintf("%02d:%02d", t/100, t%100)
}

// Weather icon locations. HostedIconBase serves the icons Weather Unlocked
// names in its forecasts; LocalIconBase expects a PNG copy of the set under
// the static directory.
const (
	HostedIconBase = "https://www.weatherunlocked.com/Images/icons/1/"
	LocalIconBase  = "/static/pictures/"
)

// iconPath maps a Weather Unlocked icon name to its URL under base. The local
// set is stored as PNG.
func iconPath(base, icon string) string {
	if base == LocalIconBase {
		return base + strings.ReplaceAll(icon, "gif", "png")
	}
	return base + icon
}

func weatherDays(iconBase string, days []provider.ForecastDay) []weatherDay {
	out := make([]weatherDay, 0, len(days))
	for _, d := range days {
		wd := weatherDay{Date: d.Date, MinC: d.TempMinC, MaxC: d.TempMaxC}
		for _, f := range d.Timeframes {
			wd.Frames = append(wd.Frames, weatherFrame{
				Time:  clockTime(f.Time),
				Icon:  iconPath(iconBase, f.WxIcon),
				Desc:  f.WxDesc,
				TempC: f.TempC,
			})
		}
		out = append(out, wd)
	}
	return out
}

// attractionChoice encodes an attraction as the "lat, lon, name" form value
// posted to /hotels.
func attractionChoice(a planner.Attraction) string {
	return strconv.FormatFloat(a.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(a.Lon, 'f', -1, 64) + ", " + a.Name
}

// parseAttractionChoice is the inverse of attractionChoice. Names may contain commas.
func parseAttractionChoice(s string) (lat, lon float64, name string, err error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) != 3 {
		return 0, 0, "", fmt.Errorf("attraction choice %q: want \"lat, lon, name\"", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, "", fmt.Errorf("attraction choice latitude: %w", err)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, "", fmt.Errorf("attraction choice longitude: %w", err)
	}
	return lat, lon, strings.TrimSpace(parts[2]), nil
}

const ticketSearchBase = "https://www.skyscanner.com/transport/flights/"

// TicketURL builds a one-way economy search for one adult between two airports.
func TicketURL(depCode, desCode string, date time.Time) string {
	q := url.Values{}
	q.Set("adults", "1")
	q.Set("cabinclass", "economy")
	q.Set("children", "0")
	q.Set("infants", "0")
	q.Set("rtn", "0")
	q.Set("preferdirects", "false")
	return ticketSearchBase + strings.ToLower(depCode) + "/" + strings.ToLower(desCode) + "/" + date.Format("060102") + "/?" + q.Encode()
}

// nextDate returns the first month/day on or after today.
func nextDate(now time.Time, month, day int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	build := func(year int) (time.Time, bool) {
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		return d, d.Month() == time.Month(month) && d.Day() == day
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d, ok := build(now.Year()); ok && !d.Before(today) {
		return d, nil
	}
	for year := now.Year() + 1; year <= now.Year()+4; year++ {
		if d, ok := build(year); ok {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%02d/%02d is not a valid date", month, day)
}
