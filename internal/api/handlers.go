package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/tripplanner/internal/charts"
	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/store"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	planner     TripPlanner
	airports    AirportFinder
	cache       store.Store
	mapboxToken string
	iconBase    string
	log         *slog.Logger
	now         func() time.Time
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithIconBase sets the URL prefix of weather icons. The default is HostedIconBase.
func WithIconBase(base string) HandlerOption {
	return func(h *Handlers) {
		if base != "" {
			h.iconBase = base
		}
	}
}

// NewHandlers constructs Handlers. airports may be nil when no reference
// database is configured; the ticket search then answers with a message page.
func NewHandlers(p TripPlanner, airports AirportFinder, cache store.Store, mapboxToken string, log *slog.Logger, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		planner:     p,
		airports:    airports,
		cache:       cache,
		mapboxToken: mapboxToken,
		iconBase:    HostedIconBase,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// render executes a page into a buffer first so a template error never
// produces a half-written page.
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("rendering page", "page", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// message renders the plain message page with a link home.
func (h *Handlers) message(w http.ResponseWriter, status int, format string, args ...any) {
	h.render(w, status, "message.html", fmt.Sprintf(format, args...))
}

// Index handles GET /.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index.html", indexPage{Categories: planner.Categories()})
}

// Attractions handles POST /attractions: locate the city, search attractions
// of the chosen kind and fetch the forecast.
func (h *Handlers) Attractions(w http.ResponseWriter, r *http.Request) {
	city := strings.ToLower(strings.TrimSpace(r.PostFormValue("city_name")))
	category := r.PostFormValue("attraction_type")
	presentation := r.PostFormValue("presentation_type")
	ctx := r.Context()

	if city == "" {
		h.message(w, http.StatusBadRequest, "The city you input is empty!")
		return
	}
	if !planner.IsCategory(category) {
		h.message(w, http.StatusBadRequest, "%q is not an attraction type we know.", category)
		return
	}

	loc, err := h.planner.Locate(ctx, city)
	if errors.Is(err, planner.ErrCityNotFound) {
		h.message(w, http.StatusNotFound, "We cannot find '%s' in the US.", city)
		return
	}
	if err != nil {
		h.upstreamFailure(w, "locate", city, err)
		return
	}

	locs, err := h.planner.Locations(ctx)
	if err != nil {
		h.upstreamFailure(w, "locations", city, err)
		return
	}

	places, err := h.planner.Attractions(ctx, city, category, locs)
	if err != nil {
		h.upstreamFailure(w, "attractions", city, err)
		return
	}
	if len(places) == 0 {
		h.message(w, http.StatusOK, "City '%s' does not contain any %s, please try another attraction in '%s'.", city, category, city)
		return
	}

	days, err := h.planner.Weather(ctx, city, locs)
	if err != nil {
		h.upstreamFailure(w, "weather", city, err)
		return
	}

	attractions := planner.Attractions(places)
	items := make([]attractionItem, 0, len(attractions))
	for _, a := range attractions {
		items = append(items, attractionItem{Attraction: a, Choice: attractionChoice(a)})
	}

	fig, err := charts.AttractionsMap(loc.Position, attractions, h.mapboxToken).JSON()
	if err != nil {
		h.upstreamFailure(w, "map", city, err)
		return
	}

	h.render(w, http.StatusOK, "attractions.html", attractionsPage{
		City:         loc.Name,
		Category:     category,
		Presentation: presentation,
		Weather:      weatherDays(h.iconBase, days),
		Attractions:  items,
		Figure:       template.JS(fig),
	})
}

// Hotels handles POST /hotels for the attraction picked on the attractions page.
func (h *Handlers) Hotels(w http.ResponseWriter, r *http.Request) {
	choice := r.PostFormValue("attr_choice")
	presentation := r.PostFormValue("hotel_presentation_type")

	if choice == "" {
		h.message(w, http.StatusBadRequest, "You need to select one of the attractions!")
		return
	}
	lat, lon, name, err := parseAttractionChoice(choice)
	if err != nil {
		h.message(w, http.StatusBadRequest, "The attraction you selected could not be read.")
		return
	}

	res, err := h.planner.Hotels(r.Context(), lon, lat)
	if err != nil {
		h.upstreamFailure(w, "hotels", name, err)
		return
	}
	if len(res.Businesses) == 0 {
		h.message(w, http.StatusOK, "We cannot find any hotels near %s, please go back and try another one.", name)
		return
	}

	hotels := planner.Hotels(res.Businesses)
	fig, err := charts.HotelBars(hotels).JSON()
	if err != nil {
		h.upstreamFailure(w, "hotel chart", name, err)
		return
	}

	h.render(w, http.StatusOK, "hotels.html", hotelsPage{
		Attraction:   name,
		Presentation: presentation,
		Hotels:       hotels,
		Figure:       template.JS(fig),
	})
}

// Tickets handles POST /tickets: find an airport in both cities and link to a
// flight search on the requested day.
func (h *Handlers) Tickets(w http.ResponseWriter, r *http.Request) {
	if h.airports == nil {
		h.message(w, http.StatusServiceUnavailable, "Ticket search is not available right now.")
		return
	}

	dep := planner.TitleCity(r.PostFormValue("dep_city_name"))
	des := planner.TitleCity(r.PostFormValue("des_city_name"))
	month, errM := strconv.Atoi(strings.TrimSpace(r.PostFormValue("month")))
	day, errD := strconv.Atoi(strings.TrimSpace(r.PostFormValue("day")))
	if errM != nil || errD != nil {
		h.message(w, http.StatusBadRequest, "Month and day must be numbers.")
		return
	}
	date, err := nextDate(h.now(), month, day)
	if err != nil {
		h.message(w, http.StatusBadRequest, "%s", err)
		return
	}

	depAirports, err := h.airports.AirportsInCity(r.Context(), dep)
	if err != nil {
		h.upstreamFailure(w, "airports", dep, err)
		return
	}
	desAirports, err := h.airports.AirportsInCity(r.Context(), des)
	if err != nil {
		h.upstreamFailure(w, "airports", des, err)
		return
	}
	if len(depAirports) == 0 || len(desAirports) == 0 {
		h.message(w, http.StatusNotFound, "Either the departure place or the destination place does not have an airport in our database.")
		return
	}

	from, to := depAirports[0], desAirports[0]
	h.render(w, http.StatusOK, "tickets.html", ticketsPage{
		Date:        date.Format("January 2, 2006"),
		Departure:   from,
		Destination: to,
		URL:         TicketURL(from.Code, to.Code, date),
	})
}

func (h *Handlers) upstreamFailure(w http.ResponseWriter, step, subject string, err error) {
	h.log.Error("request failed", "step", step, "subject", subject, "err", err)
	h.message(w, http.StatusBadGateway, "Something went wrong while looking up %s, please try again later.", subject)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	counts, err := store.Count(r.Context(), h.cache)
	if err != nil {
		h.log.Error("counting cache entries failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// HealthCheck handles GET /api/v1/health.
// Pings the cache store and, when configured, the reference database.
type storePinger interface {
	Ping(ctx context.Context) error
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks store and database
// connectivity. A nil db reports "disabled" and does not degrade the status.
func HealthHandlerFunc(cache storePinger, db dbPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		cacheStatus := "ok"
		dbStatus := "disabled"

		if err := cache.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", "err", err)
			cacheStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if db != nil {
			dbStatus = "ok"
			if err := db.Ping(ctx); err != nil {
				log.Error("health check: db ping failed", "err", err)
				dbStatus = "error"
				status = http.StatusServiceUnavailable
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]string{
			"status": overall,
			"cache":  cacheStatus,
			"db":     dbStatus,
		})
	}
}
