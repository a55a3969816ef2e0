package load

import (
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/fetch"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/resolve"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(symbol string, ts time.Time, close float64) model.Bar {
	px := decimal.NewFromFloat(close)
	return model.Bar{Symbol: symbol, Timestamp: ts, Open: px, High: px, Low: px, Close: px, Volume: decimal.NewFromInt(100)}
}

// fakeStore keeps rows in a map keyed by (timestamp, symbol), mirroring the
// table's uniqueness constraint.
type fakeStore struct {
	rows        map[string]model.Bar
	failSymbols map[string]bool
	upserts     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]model.Bar{}, failSymbols: map[string]bool{}}
}

func key(symbol string, ts time.Time) string {
	return symbol + "@" + ts.Format("2006-01-02")
}

func (s *fakeStore) LatestDate(_ context.Context, symbol string) (*time.Time, error) {
	var latest *time.Time
	for _, b := range s.rows {
		if b.Symbol != symbol {
			continue
		}
		if latest == nil || b.Timestamp.After(*latest) {
			t := b.Timestamp
			latest = &t
		}
	}
	return latest, nil
}

func (s *fakeStore) UpsertBars(_ context.Context, bars []model.Bar) error {
	if len(bars) > 0 && s.failSymbols[bars[0].Symbol] {
		return fmt.Errorf("constraint violation on %s", bars[0].Symbol)
	}
	for _, b := range bars {
		s.rows[key(b.Symbol, b.Timestamp)] = b
	}
	s.upserts++
	return nil
}

func (s *fakeStore) symbolBars(symbol string) []model.Bar {
	var out []model.Bar
	for _, b := range s.rows {
		if b.Symbol == symbol {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

type fakeSource struct {
	name       string
	capability fetch.Capability
	bars       []model.Bar
	err        error
	requests   []fetch.Request
}

func (f *fakeSource) Name() string                 { return f.name }
func (f *fakeSource) Capability() fetch.Capability { return f.capability }

func (f *fakeSource) Fetch(_ context.Context, req fetch.Request) ([]model.Bar, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Bar, len(f.bars))
	copy(out, f.bars)
	return out, nil
}

func testLoader(s Store, now time.Time) *Loader {
	l := New(s, &log.Logger{Writer: &log.IOWriter{Writer: io.Discard}}, 0)
	l.Now = func() time.Time { return now }
	return l
}

func TestLoadFullHistorical(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	src := &fakeSource{
		name:       "yahoo",
		capability: fetch.CapabilityRange,
		bars: []model.Bar{
			bar("XYZ", date(2020, time.January, 1), 10),
			bar("XYZ", date(2020, time.January, 2), 11),
			bar("XYZ", date(2020, time.January, 3), 12),
		},
	}

	sum := testLoader(store, now).Load(context.Background(), src, []string{"XYZ"}, Options{})
	require.Equal(t, Summary{Loaded: 1, Rows: 3}, sum)

	require.Len(t, src.requests, 1)
	require.Equal(t, model.FullHistorical, src.requests[0].Window.Mode)
	require.Equal(t, resolve.Epoch, src.requests[0].Window.Start)

	got := store.symbolBars("XYZ")
	require.Len(t, got, 3)
	for _, b := range got {
		require.Equal(t, now, b.LoadTimestamp)
	}
}

func TestLoadIncrementalFiltersSnapshotRows(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	require.NoError(t, store.UpsertBars(context.Background(), []model.Bar{bar("XYZ", date(2020, time.January, 3), 12)}))
	store.upserts = 0

	src := &fakeSource{
		name:       "alphavantage",
		capability: fetch.CapabilitySnapshot,
		bars: []model.Bar{
			bar("XYZ", date(2020, time.January, 1), 10),
			bar("XYZ", date(2020, time.January, 2), 11),
			bar("XYZ", date(2020, time.January, 3), 12),
			bar("XYZ", date(2020, time.January, 4), 13),
			bar("XYZ", date(2020, time.January, 5), 14),
		},
	}

	sum := testLoader(store, now).Load(context.Background(), src, []string{"XYZ"}, Options{})
	require.Equal(t, Summary{Loaded: 1, Rows: 2}, sum)

	require.Equal(t, model.Incremental, src.requests[0].Window.Mode)
	require.Equal(t, date(2020, time.January, 4), src.requests[0].Window.Start)

	got := store.symbolBars("XYZ")
	require.Len(t, got, 3)
	require.Equal(t, date(2020, time.January, 5), got[2].Timestamp)
}

func TestLoadRangeSourceNotFiltered(t *testing.T) {
	// A range-capable source already scopes its response; the loader must not
	// second-guess it even when rows predate the stored tail (custom backfill).
	now := date(2020, time.June, 15)
	store := newFakeStore()
	require.NoError(t, store.UpsertBars(context.Background(), []model.Bar{bar("XYZ", date(2020, time.June, 1), 50)}))

	start := date(2020, time.January, 1)
	end := date(2020, time.January, 2)
	src := &fakeSource{
		name:       "yahoo",
		capability: fetch.CapabilityRange,
		bars: []model.Bar{
			bar("XYZ", start, 10),
			bar("XYZ", end, 11),
		},
	}

	sum := testLoader(store, now).Load(context.Background(), src, []string{"XYZ"}, Options{CustomStart: &start, CustomEnd: &end})
	require.Equal(t, Summary{Loaded: 1, Rows: 2}, sum)
	require.Equal(t, model.CustomRange, src.requests[0].Window.Mode)
	require.Len(t, store.symbolBars("XYZ"), 3)
}

func TestLoadUpsertIsIdempotent(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	src := &fakeSource{
		name:       "yahoo",
		capability: fetch.CapabilityRange,
		bars:       []model.Bar{bar("XYZ", date(2020, time.January, 2), 10)},
	}
	ldr := testLoader(store, now)
	opts := Options{ForceHistorical: true}

	ldr.Load(context.Background(), src, []string{"XYZ"}, opts)

	// Same date, new price: the row must be overwritten, never duplicated.
	src.bars = []model.Bar{bar("XYZ", date(2020, time.January, 2), 99)}
	ldr.Load(context.Background(), src, []string{"XYZ"}, opts)

	got := store.symbolBars("XYZ")
	require.Len(t, got, 1)
	require.Equal(t, "99", got[0].Close.String())
}

func TestLoadContinuesPastFailures(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	store.failSymbols["BAD"] = true

	src := &fakeSource{
		name:       "yahoo",
		capability: fetch.CapabilityRange,
	}
	// Return one bar per requested symbol.
	srcBars := func(symbol string) []model.Bar { return []model.Bar{bar(symbol, date(2020, time.January, 2), 10)} }

	ldr := testLoader(store, now)
	var sum Summary
	for _, symbol := range []string{"GOOD1", "BAD", "GOOD2"} {
		src.bars = srcBars(symbol)
		s := ldr.Load(context.Background(), src, []string{symbol}, Options{})
		sum.Loaded += s.Loaded
		sum.Rows += s.Rows
		sum.Failed += s.Failed
	}

	require.Equal(t, 2, sum.Loaded)
	require.Equal(t, 1, sum.Failed)
	require.Len(t, store.symbolBars("GOOD1"), 1)
	require.Empty(t, store.symbolBars("BAD"))
	require.Len(t, store.symbolBars("GOOD2"), 1)
}

func TestLoadFetchFailureContinuesRun(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	src := &fakeSource{
		name:       "yahoo",
		capability: fetch.CapabilityRange,
		err:        fmt.Errorf("transport down"),
	}

	sum := testLoader(store, now).Load(context.Background(), src, []string{"A", "B"}, Options{})
	require.Equal(t, Summary{Failed: 2}, sum)
	require.Len(t, src.requests, 2, "every symbol must still be attempted")
}

func TestLoadNoDataSkips(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	src := &fakeSource{
		name:       "yahoo",
		capability: fetch.CapabilityRange,
		err:        fmt.Errorf("nothing here: %w", fetch.ErrNoData),
	}

	sum := testLoader(store, now).Load(context.Background(), src, []string{"XYZ"}, Options{})
	require.Equal(t, Summary{Skipped: 1}, sum)
	require.Equal(t, 0, store.upserts)
}

func TestLoadLatestOnlySource(t *testing.T) {
	now := date(2020, time.June, 15)
	store := newFakeStore()
	px := decimal.NewFromFloat(42000.5)
	src := &fakeSource{
		name:       "coinmarketcap",
		capability: fetch.CapabilityLatest,
		bars: []model.Bar{{
			Symbol: "BTC", Timestamp: now,
			Open: px, High: px, Low: px, Close: px,
			Volume: decimal.Zero,
		}},
	}

	sum := testLoader(store, now).Load(context.Background(), src, []string{"BTC"}, Options{})
	require.Equal(t, Summary{Loaded: 1, Rows: 1}, sum)

	require.Len(t, src.requests, 1)
	require.Equal(t, model.LatestSnapshot, src.requests[0].Window.Mode)
	require.True(t, src.requests[0].Window.Start.IsZero(), "a spot quote carries no range")

	got := store.symbolBars("BTC")
	require.Len(t, got, 1)
	require.True(t, got[0].Open.Equal(got[0].Close))
	require.True(t, got[0].Volume.IsZero())
	require.Equal(t, now, got[0].Timestamp)
}

func TestBarsAfter(t *testing.T) {
	latest := date(2020, time.January, 3)
	bars := []model.Bar{
		bar("X", date(2020, time.January, 1), 1),
		bar("X", date(2020, time.January, 3), 3),
		bar("X", date(2020, time.January, 4), 4),
		bar("X", date(2020, time.January, 5), 5),
	}
	got := barsAfter(bars, latest)
	require.Len(t, got, 2)
	require.Equal(t, date(2020, time.January, 4), got[0].Timestamp)
	require.Equal(t, date(2020, time.January, 5), got[1].Timestamp)
}
