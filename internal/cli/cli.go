// Package cli implements the interactive terminal front end: pick a city and
// an attraction kind, then an attraction to search hotels near, then a hotel
// to open in the browser.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/browser"

	"github.com/neexbeast/tripplanner/internal/planner"
	"github.com/neexbeast/tripplanner/internal/provider"
)

// Control tokens recognised at the prompts.
const (
	tokenExit = "exit"
	tokenBack = "back"
)

// TripPlanner is satisfied by *planner.Planner.
type TripPlanner interface {
	Locate(ctx context.Context, city string) (planner.CityLocation, error)
	Locations(ctx context.Context) (planner.Locations, error)
	Attractions(ctx context.Context, city, category string, locs planner.Locations) ([]provider.Place, error)
	Weather(ctx context.Context, city string, locs planner.Locations) ([]provider.ForecastDay, error)
	Hotels(ctx context.Context, lon, lat float64) (*provider.HotelSearch, error)
}

// Opener opens a URL for the user.
type Opener func(url string) error

// Session is the selection state carried between prompts.
type Session struct {
	City        string
	Category    string
	Attractions []planner.Attraction
	Hotels      []planner.Hotel
}

// App runs the prompt loop.
type App struct {
	planner TripPlanner
	open    Opener
	log     *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithOpener replaces the browser opener.
func WithOpener(o Opener) Option {
	return func(a *App) { a.open = o }
}

// WithLogger sets the logger used for failure details.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// New constructs an App that opens hotel pages with the system browser.
func New(p TripPlanner, opts ...Option) *App {
	a := &App{planner: p, open: browser.OpenURL, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run reads answers from in until "exit" or end of input. Provider failures
// are reported on out and the loop continues.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	t := &terminal{sc: bufio.NewScanner(in), out: out}
	s := &Session{}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var done bool
		switch {
		case len(s.Hotels) > 0:
			done = a.pickHotel(t, s)
		case len(s.Attractions) > 0:
			done = a.pickAttraction(ctx, t, s)
		default:
			done = a.search(ctx, t, s)
		}
		if done {
			return t.err()
		}
	}
}

// search asks for a city and a kind and fills s.Attractions.
func (a *App) search(ctx context.Context, t *terminal, s *Session) bool {
	city, ok := t.ask(`Which city is your destination? "exit" to end the program: `)
	if !ok {
		return true
	}
	city = strings.ToLower(city)
	if city == tokenExit {
		return true
	}
	if city == "" {
		t.say("The city you input is empty!")
		return false
	}

	category, ok := a.askCategory(t)
	if !ok {
		return true
	}

	*s = Session{City: city, Category: category}

	loc, err := a.planner.Locate(ctx, city)
	if errors.Is(err, planner.ErrCityNotFound) {
		t.say("We cannot find '%s' in the US, please try another city.", city)
		return false
	}
	if err != nil {
		a.fail(t, "locating city", err)
		return false
	}
	t.say("%s: %s (%.2f, %.2f)", city, loc.Name, loc.Position.Lat, loc.Position.Lon)

	locs, err := a.planner.Locations(ctx)
	if err != nil {
		a.fail(t, "loading locations", err)
		return false
	}
	places, err := a.planner.Attractions(ctx, city, category, locs)
	if err != nil {
		a.fail(t, "searching attractions", err)
		return false
	}
	t.say("%d %s found in %s", len(places), category, city)

	days, err := a.planner.Weather(ctx, city, locs)
	if err != nil {
		a.fail(t, "fetching the forecast", err)
	} else if len(days) > 0 {
		t.say("temperature in %s today: min %.1f°C, max %.1f°C", city, days[0].TempMinC, days[0].TempMaxC)
	}

	if len(places) == 0 {
		t.say("The city %s does not have any %s, no hotels to search.", city, category)
		return false
	}
	s.Attractions = planner.Attractions(places)
	return false
}

func (a *App) askCategory(t *terminal) (string, bool) {
	n := len(planner.Categories())
	for {
		answer, ok := t.ask(fmt.Sprintf("What kind of attraction do you want to search? Input a number between 1 and %d: ", n))
		if !ok {
			return "", false
		}
		i, err := strconv.Atoi(answer)
		if err != nil {
			t.say("You should input a number!")
			continue
		}
		category, err := planner.Category(i)
		if err != nil {
			t.say("You should input a number between 1 and %d!", n)
			continue
		}
		return category, true
	}
}

// pickAttraction lists s.Attractions and searches hotels near the chosen one.
func (a *App) pickAttraction(ctx context.Context, t *terminal, s *Session) bool {
	for i, attr := range s.Attractions {
		t.say("%-5s%s (popularity %d) at %g, %g", fmt.Sprintf("[%d]", i+1), attr.Name, attr.Rate, attr.Lat, attr.Lon)
	}
	answer, ok := t.ask(`Which attraction do you want hotels near? Number, "back" or "exit": `)
	if !ok {
		return true
	}

	i, done, picked := t.choose(answer, len(s.Attractions))
	switch {
	case done:
		return true
	case !picked:
		if strings.EqualFold(answer, tokenBack) {
			s.Attractions = nil
		}
		return false
	}

	attr := s.Attractions[i]
	t.say("Now searching for hotels near %s...", attr.Name)
	res, err := a.planner.Hotels(ctx, attr.Lon, attr.Lat)
	if err != nil {
		a.fail(t, "searching hotels", err)
		return false
	}
	if len(res.Businesses) == 0 {
		t.say("No hotels near the attraction %s.", attr.Name)
		return false
	}
	s.Hotels = planner.Hotels(res.Businesses)
	return false
}

// pickHotel lists s.Hotels and opens the chosen one.
func (a *App) pickHotel(t *terminal, s *Session) bool {
	for i, h := range s.Hotels {
		t.say("%-5s%s | price %s | rating %.1f | %d reviews | %s", fmt.Sprintf("[%d]", i+1), h.Name, h.Price, h.Rating, h.ReviewCount, h.Phone)
	}
	answer, ok := t.ask(`Which hotel do you want to open? Number, "back" or "exit": `)
	if !ok {
		return true
	}

	i, done, picked := t.choose(answer, len(s.Hotels))
	switch {
	case done:
		return true
	case !picked:
		if strings.EqualFold(answer, tokenBack) {
			s.Hotels = nil
		}
		return false
	}

	h := s.Hotels[i]
	t.say("Now opening the hotel %s...", h.Name)
	if err := a.open(h.URL); err != nil {
		a.fail(t, "opening the browser", err)
	}
	return false
}

func (a *App) fail(t *terminal, step string, err error) {
	a.log.Debug("cli step failed", "step", step, "err", err)
	t.say("Something went wrong while %s: %v", step, err)
}

type terminal struct {
	sc       *bufio.Scanner
	out      io.Writer
	writeErr error
}

// ask prints prompt and returns the trimmed answer. It reports false at end of input.
func (t *terminal) ask(prompt string) (string, bool) {
	t.write(prompt)
	if !t.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.sc.Text()), true
}

func (t *terminal) say(format string, args ...any) {
	t.write(fmt.Sprintf(format, args...) + "\n")
}

func (t *terminal) write(s string) {
	if t.writeErr != nil {
		return
	}
	_, t.writeErr = io.WriteString(t.out, s)
}

// choose interprets an answer to a numbered list of n items. done is set for
// "exit"; picked is set with a zero-based index for a valid number.
func (t *terminal) choose(answer string, n int) (index int, done, picked bool) {
	switch strings.ToLower(answer) {
	case tokenExit:
		return 0, true, false
	case tokenBack:
		return 0, false, false
	}
	i, err := strconv.Atoi(answer)
	if err != nil {
		t.say(`You should input a valid number, "exit" or "back" here!`)
		return 0, false, false
	}
	if i < 1 || i > n {
		t.say("Please input a positive number less than or equal to %d.", n)
		return 0, false, false
	}
	return i - 1, false, true
}

func (t *terminal) err() error {
	if err := t.sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return t.writeErr
}
