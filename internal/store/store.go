/*
Copyright © 2026 M. Benavides

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package store persists price bars in the stock_prices Postgres table.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgtype"
	shopspring "github.com/jackc/pgtype/ext/shopspring-numeric"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

// Store wraps a pgx connection pool. The pool is opened once per run and
// closed on every exit path by the owning command.
type Store struct {
	pool *pgxpool.Pool
}

// New opens a connection pool against databaseURL and verifies it with a
// ping. Price columns are NUMERIC; the shopspring codec is registered on
// every connection so decimal.Decimal round-trips without casts.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		conn.ConnInfo().RegisterDataType(pgtype.DataType{
			Value: &shopspring.Numeric{},
			Name:  "numeric",
			OID:   pgtype.NumericOID,
		})
		return nil
	}

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LatestDate returns the most recent stored date for symbol, or nil when the
// symbol has no rows yet.
func (s *Store) LatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	var latest pgtype.Date
	err := s.pool.QueryRow(ctx, `SELECT MAX(timestamp) FROM stock_prices WHERE symbol = $1`, symbol).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest date for %q: %w", symbol, err)
	}
	if latest.Status != pgtype.Present {
		return nil, nil
	}
	t := model.Day(latest.Time)
	return &t, nil
}

// UpsertBars writes one symbol's batch in a single transaction: insert on
// absence, overwrite every value column and load_timestamp on a
// (timestamp, symbol) collision. A failure rolls back the whole batch.
func (s *Store) UpsertBars(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	return s.runTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertStatement(len(bars)), upsertArgs(bars)...)
		if err != nil {
			return fmt.Errorf("failed to upsert %d bars for %q: %w", len(bars), bars[0].Symbol, err)
		}
		return nil
	})
}

const upsertColumns = 8

func upsertStatement(n int) string {
	var b strings.Builder
	b.WriteString(`INSERT INTO stock_prices (timestamp, symbol, open_price, high_price, low_price, close_price, volume, load_timestamp) VALUES `)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < upsertColumns; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*upsertColumns+j+1)
		}
		b.WriteByte(')')
	}
	b.WriteString(` ON CONFLICT (timestamp, symbol) DO UPDATE SET open_price = EXCLUDED.open_price, high_price = EXCLUDED.high_price, low_price = EXCLUDED.low_price, close_price = EXCLUDED.close_price, volume = EXCLUDED.volume, load_timestamp = EXCLUDED.load_timestamp`)
	return b.String()
}

func upsertArgs(bars []model.Bar) []interface{} {
	args := make([]interface{}, 0, len(bars)*upsertColumns)
	for _, bar := range bars {
		args = append(args, bar.Timestamp, bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.LoadTimestamp)
	}
	return args
}

// AllBars reads the whole table ordered by timestamp, the shape the
// reporting layer consumes.
func (s *Store) AllBars(ctx context.Context) ([]model.Bar, error) {
	rows, err := s.pool.Query(ctx, `SELECT timestamp, symbol, open_price, high_price, low_price, close_price, volume, load_timestamp FROM stock_prices ORDER BY timestamp ASC, symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var bar model.Bar
		err := rows.Scan(&bar.Timestamp, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.LoadTimestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bar.Timestamp = model.Day(bar.Timestamp)
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bars: %w", err)
	}
	return bars, nil
}

func (s *Store) runTx(ctx context.Context, f func(tx pgx.Tx) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := f(tx); err != nil {
		if errRollback := tx.Rollback(ctx); errRollback != nil {
			return fmt.Errorf("failed to rollback transaction: %v: %w", errRollback, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
