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

// Package load orchestrates one fetch-and-upsert pass over a symbol list.
package load

import (
	"context"
	"errors"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/fetch"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/resolve"
)

// Store is the slice of persistence the loader needs.
type Store interface {
	LatestDate(ctx context.Context, symbol string) (*time.Time, error)
	UpsertBars(ctx context.Context, bars []model.Bar) error
}

// Options carries the per-run overrides: a forced full-historical pass or an
// explicit backfill window.
type Options struct {
	ForceHistorical bool
	CustomStart     *time.Time
	CustomEnd       *time.Time
}

// Summary reports what one pass did. Failed symbols are simply absent from
// this run's results; they get picked up by the next scheduled run.
type Summary struct {
	Loaded  int
	Rows    int
	Skipped int
	Failed  int
}

// Loader runs the load pass: strictly sequential, one symbol at a time, one
// commit per symbol. The limiter provides the courtesy pause between symbols
// for quota-limited sources; there is no retry or backoff.
type Loader struct {
	Store   Store
	Log     *log.Logger
	Limiter *rate.Limiter
	Now     func() time.Time
}

// New returns a Loader pausing at least pause between symbols. A
// non-positive pause disables the courtesy delay.
func New(store Store, lg *log.Logger, pause time.Duration) *Loader {
	limit := rate.Inf
	if pause > 0 {
		limit = rate.Every(pause)
	}
	return &Loader{
		Store:   store,
		Log:     lg,
		Limiter: rate.NewLimiter(limit, 1),
		Now:     time.Now,
	}
}

// Load processes every symbol independently: a single symbol's fetch or
// persistence failure is logged and the run continues to the next symbol.
func (l *Loader) Load(ctx context.Context, src fetch.Source, symbols []string, opts Options) Summary {
	var sum Summary
	for _, symbol := range symbols {
		if err := l.Limiter.Wait(ctx); err != nil {
			l.Log.Warn().Err(err).Str("symbol", symbol).Msg("aborting load pass")
			sum.Failed += len(symbols) - sum.Loaded - sum.Skipped - sum.Failed
			return sum
		}

		n, err := l.loadSymbol(ctx, src, symbol, opts)
		switch {
		case errors.Is(err, fetch.ErrNoData):
			l.Log.Info().Str("symbol", symbol).Str("source", src.Name()).Msg("no data available, skipping")
			sum.Skipped++
		case err != nil:
			l.Log.Warn().Err(err).Str("symbol", symbol).Str("source", src.Name()).Msg("symbol load failed, continuing")
			sum.Failed++
		case n == 0:
			l.Log.Info().Str("symbol", symbol).Str("source", src.Name()).Msg("already up to date")
			sum.Skipped++
		default:
			l.Log.Info().Str("symbol", symbol).Str("source", src.Name()).Int("rows", n).Msg("loaded")
			sum.Loaded++
			sum.Rows += n
		}
	}
	return sum
}

func (l *Loader) loadSymbol(ctx context.Context, src fetch.Source, symbol string, opts Options) (int, error) {
	latest, err := l.Store.LatestDate(ctx, symbol)
	if err != nil {
		return 0, err
	}

	win := resolve.Window(latest, opts.ForceHistorical, opts.CustomStart, opts.CustomEnd, l.Now())
	if src.Capability() == fetch.CapabilityLatest {
		// A latest-only source cannot honor a range; ask for the spot quote.
		win = model.FetchWindow{Mode: model.LatestSnapshot}
	}
	l.Log.Debug().
		Str("symbol", symbol).
		Str("mode", win.Mode.String()).
		Time("start", win.Start).
		Time("end", win.End).
		Msg("resolved fetch window")

	bars, err := src.Fetch(ctx, fetch.Request{Symbol: symbol, Window: win})
	if err != nil {
		return 0, err
	}

	// Snapshot sources cannot be asked for an exact tail; trim locally to
	// the rows strictly after the last stored date.
	if src.Capability() == fetch.CapabilitySnapshot && win.Mode == model.Incremental && latest != nil {
		bars = barsAfter(bars, *latest)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	now := l.Now()
	for i := range bars {
		bars[i].LoadTimestamp = now
	}

	if err := l.Store.UpsertBars(ctx, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

func barsAfter(bars []model.Bar, latest time.Time) []model.Bar {
	latest = model.Day(latest)
	out := bars[:0]
	for _, bar := range bars {
		if bar.Timestamp.After(latest) {
			out = append(out, bar)
		}
	}
	return out
}
