package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

func TestCoinMarketCapFetch(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-CMC_PRO_API_KEY")
		fmt.Fprint(w, `{"status":{"error_code":0},"data":{"BTC":[{"symbol":"BTC","quote":{"USD":{"price":42123.45}}}]}}`)
	}))
	defer srv.Close()

	now := time.Date(2020, time.June, 15, 14, 30, 0, 0, time.UTC)
	c := NewCoinMarketCapClient("cmc-key")
	c.BaseURL = srv.URL
	c.Clock = func() time.Time { return now }

	bars, err := c.Fetch(context.Background(), Request{
		Symbol: "BTC",
		// Latest-only sources ignore any requested range.
		Window: model.FetchWindow{Mode: model.Incremental, Start: now.AddDate(0, 0, -10)},
	})
	require.NoError(t, err)
	require.Equal(t, "cmc-key", gotKey)
	require.Len(t, bars, 1)

	bar := bars[0]
	require.Equal(t, "BTC", bar.Symbol)
	require.Equal(t, model.Day(now), bar.Timestamp)
	require.Equal(t, "42123.45", bar.Close.String())
	require.True(t, bar.Open.Equal(bar.Close))
	require.True(t, bar.High.Equal(bar.Close))
	require.True(t, bar.Low.Equal(bar.Close))
	require.True(t, bar.Volume.IsZero())
}

func TestCoinMarketCapFetchErrors(t *testing.T) {
	t.Run("bad symbol is no data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"status":{"error_code":400,"error_message":"Invalid value for \"symbol\": \"NOPE\""}}`)
		}))
		defer srv.Close()

		c := NewCoinMarketCapClient("cmc-key")
		c.BaseURL = srv.URL

		_, err := c.Fetch(context.Background(), Request{Symbol: "NOPE"})
		require.ErrorIs(t, err, ErrNoData)
	})

	t.Run("missing quote is no data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":{"error_code":0},"data":{}}`)
		}))
		defer srv.Close()

		c := NewCoinMarketCapClient("cmc-key")
		c.BaseURL = srv.URL

		_, err := c.Fetch(context.Background(), Request{Symbol: "BTC"})
		require.ErrorIs(t, err, ErrNoData)
	})

	t.Run("server error is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewCoinMarketCapClient("cmc-key")
		c.BaseURL = srv.URL

		_, err := c.Fetch(context.Background(), Request{Symbol: "BTC"})
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNoData)
	})
}
