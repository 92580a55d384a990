package refdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Load replaces the content of the three reference tables in one transaction.
func Load(ctx context.Context, pool TxBeginner, ref *Reference) error {
	return runInTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE states, airports, cities_by_area RESTART IDENTITY`); err != nil {
			return fmt.Errorf("truncating reference tables: %w", err)
		}

		states := make([][]any, 0, len(ref.States))
		for _, s := range ref.States {
			states = append(states, []any{s.Name, s.Code})
		}
		if err := copyRows(ctx, tx, "states", []string{"state_name", "state_code"}, states); err != nil {
			return err
		}

		airports := make([][]any, 0, len(ref.Airports))
		for _, a := range ref.Airports {
			airports = append(airports, []any{a.Code, a.Name, a.City, a.StateCode})
		}
		if err := copyRows(ctx, tx, "airports", []string{"airport_code", "airport_name", "airport_city", "airport_state"}, airports); err != nil {
			return err
		}

		cities := make([][]any, 0, len(ref.CityAreas))
		for _, c := range ref.CityAreas {
			cities = append(cities, []any{c.Name, c.State, c.Area})
		}
		return copyRows(ctx, tx, "cities_by_area", []string{"city_name", "city_state", "city_area"}, cities)
	})
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]any) error {
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copying into %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copying into %s: wrote %d of %d rows", table, n, len(rows))
	}
	return nil
}
