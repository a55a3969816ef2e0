package store

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

func TestUpsertStatement(t *testing.T) {
	stmt := upsertStatement(1)
	require.True(t, strings.HasPrefix(stmt, "INSERT INTO stock_prices (timestamp, symbol, open_price, high_price, low_price, close_price, volume, load_timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"))
	require.Contains(t, stmt, "ON CONFLICT (timestamp, symbol) DO UPDATE SET")
	require.Contains(t, stmt, "load_timestamp = EXCLUDED.load_timestamp")

	stmt = upsertStatement(3)
	require.Contains(t, stmt, "($9, $10, $11, $12, $13, $14, $15, $16)")
	require.Contains(t, stmt, "($17, $18, $19, $20, $21, $22, $23, $24)")
	require.Equal(t, 1, strings.Count(stmt, "ON CONFLICT"))
}

func TestUpsertArgs(t *testing.T) {
	day := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
	loaded := time.Date(2020, time.January, 5, 10, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		{
			Symbol:        "MSFT",
			Timestamp:     day,
			Open:          decimal.NewFromInt(1),
			High:          decimal.NewFromInt(2),
			Low:           decimal.NewFromInt(3),
			Close:         decimal.NewFromInt(4),
			Volume:        decimal.NewFromInt(5),
			LoadTimestamp: loaded,
		},
		{Symbol: "KO", Timestamp: day.AddDate(0, 0, 1)},
	}

	args := upsertArgs(bars)
	require.Len(t, args, 2*upsertColumns)
	require.Equal(t, day, args[0])
	require.Equal(t, "MSFT", args[1])
	require.Equal(t, decimal.NewFromInt(4), args[5])
	require.Equal(t, loaded, args[7])
	require.Equal(t, "KO", args[upsertColumns+1])
}
