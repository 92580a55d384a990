package refdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"
)

// memoTTL bounds how long a lookup result is served from memory.
const memoTTL = time.Hour

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository answers reference lookups. Results are memoized in process
// since the tables only change when cmd/refdb reloads them.
type Repository struct {
	q    Querier
	memo *gocache.Cache
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return NewRepositoryWithQuerier(pool)
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q, memo: gocache.New(memoTTL, 2*memoTTL)}
}

type areaResult struct {
	area float64
	ok   bool
}

// CityArea returns the land area of a title-cased city name.
// ok is false when the city is not in the table.
func (r *Repository) CityArea(ctx context.Context, city string) (float64, bool, error) {
	key := "area:" + city
	if v, found := r.memo.Get(key); found {
		res := v.(areaResult)
		return res.area, res.ok, nil
	}

	const q = `
		SELECT city_area
		FROM cities_by_area
		WHERE city_name = $1
		ORDER BY id
		LIMIT 1
	`

	var area int64
	err := r.q.QueryRow(ctx, q, city).Scan(&area)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		r.memo.Set(key, areaResult{}, gocache.DefaultExpiration)
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("querying area for city %s: %w", city, err)
	}

	res := areaResult{area: float64(area), ok: true}
	r.memo.Set(key, res, gocache.DefaultExpiration)
	return res.area, true, nil
}

// AirportsInCity returns the airports of a title-cased city joined with the
// name of their state. An unknown city yields an empty slice.
func (r *Repository) AirportsInCity(ctx context.Context, city string) ([]Airport, error) {
	key := "airports:" + city
	if v, found := r.memo.Get(key); found {
		return v.([]Airport), nil
	}

	const q = `
		SELECT a.airport_code, a.airport_name, a.airport_city, a.airport_state, s.state_name
		FROM airports a
		JOIN states s ON a.airport_state = s.state_code
		WHERE a.airport_city = $1
		ORDER BY a.id
	`

	rows, err := r.q.Query(ctx, q, city)
	if err != nil {
		return nil, fmt.Errorf("querying airports for city %s: %w", city, err)
	}
	defer rows.Close()

	airports := []Airport{}
	for rows.Next() {
		var a Airport
		if err := rows.Scan(&a.Code, &a.Name, &a.City, &a.StateCode, &a.StateName); err != nil {
			return nil, fmt.Errorf("scanning airport row: %w", err)
		}
		airports = append(airports, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating airport rows: %w", err)
	}

	r.memo.Set(key, airports, gocache.DefaultExpiration)
	return airports, nil
}

// Ping runs a trivial query.
func (r *Repository) Ping(ctx context.Context) error {
	var one int
	if err := r.q.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("pinging reference database: %w", err)
	}
	return nil
}
