package refdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/tripplanner/internal/store"
)

// Default source pages.
const (
	DefaultStatesURL    = "https://www.englisch-hilfen.de/en/texte/states.htm"
	DefaultAirportsURL  = "https://www.airportcodes.us/us-airports.htm"
	DefaultCityAreasURL = "http://en.volupedia.org/wiki/List_of_United_States_cities_by_area"
)

// ParseStates reads the state table: the first tbody, one state per row with
// the name in the first cell and the postal code in the second.
func ParseStates(r io.Reader) ([]State, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing states page: %w", err)
	}

	states := []State{}
	doc.Find("tbody").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		states = append(states, State{
			Name: cellText(cells, 0),
			Code: cellText(cells, 1),
		})
	})

	if len(states) == 0 {
		return nil, fmt.Errorf("parsing states page: no rows found")
	}
	return states, nil
}

// ParseAirports reads the airport table (the one with border=1). Only rows
// whose first cell is a three-letter IATA code are kept, which drops the
// header and legend rows at the top.
func ParseAirports(r io.Reader) ([]Airport, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing airports page: %w", err)
	}

	airports := []Airport{}
	doc.Find(`table[border="1"]`).First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		code := cellText(cells, 0)
		if !isIATACode(code) {
			return
		}
		airports = append(airports, Airport{
			Code:      code,
			Name:      cellText(cells, 1),
			City:      cellText(cells, 2),
			StateCode: cellText(cells, 3),
		})
	})

	if len(airports) == 0 {
		return nil, fmt.Errorf("parsing airports page: no rows found")
	}
	return airports, nil
}

// ParseCityAreas reads the second table of the article body: city link in
// the first cell, state in the third and land area in the fifth.
func ParseCityAreas(r io.Reader) ([]CityArea, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing city areas page: %w", err)
	}

	var (
		cities  = []CityArea{}
		rowErr  error
		table   = doc.Find("#mw-content-text tbody").Eq(1)
		rowsSel = table.Find("tr")
	)
	rowsSel.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return true
		}
		area, err := parseArea(cellText(cells, 4))
		if err != nil {
			rowErr = fmt.Errorf("parsing city areas page: row %d: %w", i, err)
			return false
		}
		cities = append(cities, CityArea{
			Name:  strings.TrimSpace(row.Find("a").First().Text()),
			State: cellText(cells, 2),
			Area:  area,
		})
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("parsing city areas page: no rows found")
	}
	return cities, nil
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}

func isIATACode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// parseArea accepts "1,234" and "1,234.5" and rounds to a whole number.
func parseArea(s string) (int64, error) {
	clean := strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("area %q: %w", s, err)
	}
	return int64(math.Round(v)), nil
}

// Scraper downloads the three reference pages. Each parsed page is kept in
// its own store namespace keyed by URL, so a rerun does not hit the network.
type Scraper struct {
	StatesURL    string
	AirportsURL  string
	CityAreasURL string

	client *http.Client
	store  store.Store
	log    *slog.Logger
}

// NewScraper constructs a Scraper for the default source pages.
func NewScraper(s store.Store, log *slog.Logger) *Scraper {
	return &Scraper{
		StatesURL:    DefaultStatesURL,
		AirportsURL:  DefaultAirportsURL,
		CityAreasURL: DefaultCityAreasURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		store:        s,
		log:          log,
	}
}

// Scrape fetches or loads the three pages in parallel.
func (s *Scraper) Scrape(ctx context.Context) (*Reference, error) {
	g, gCtx := errgroup.WithContext(ctx)
	var ref Reference

	g.Go(func() error {
		v, err := scrapePage(gCtx, s, store.NamespaceStates, s.StatesURL, ParseStates)
		ref.States = v
		return err
	})
	g.Go(func() error {
		v, err := scrapePage(gCtx, s, store.NamespaceAirports, s.AirportsURL, ParseAirports)
		ref.Airports = v
		return err
	})
	g.Go(func() error {
		v, err := scrapePage(gCtx, s, store.NamespaceCityAreas, s.CityAreasURL, ParseCityAreas)
		ref.CityAreas = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scraping reference pages: %w", err)
	}
	return &ref, nil
}

func scrapePage[T any](ctx context.Context, s *Scraper, ns store.Namespace, pageURL string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	m, err := s.store.Load(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", ns, err)
	}

	var cached []T
	if hit, err := m.Get(pageURL, &cached); hit && err == nil {
		s.log.Info("using cached page", "namespace", ns, "url", pageURL, "rows", len(cached))
		return cached, nil
	}

	s.log.Info("fetching page", "namespace", ns, "url", pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", pageURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", pageURL, resp.StatusCode)
	}

	rows, err := parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}

	if err := m.Put(pageURL, rows); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, ns, m); err != nil {
		return nil, fmt.Errorf("saving %s: %w", ns, err)
	}
	return rows, nil
}
