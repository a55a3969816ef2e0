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

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient fetches daily bars from the Yahoo Finance chart API. It is
// range-capable: the window's start and end become period1/period2 bounds.
type YahooClient struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooClient returns a client against the public Yahoo endpoint. Yahoo
// needs no API key.
func NewYahooClient() *YahooClient {
	return &YahooClient{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(),
	}
}

func (c *YahooClient) Name() string { return "yahoo" }

func (c *YahooClient) Capability() Capability { return CapabilityRange }

// yahooChart is the chart API response envelope.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) Fetch(ctx context.Context, req Request) ([]model.Bar, error) {
	start := req.Window.Start
	if start.IsZero() {
		start = time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	end := req.Window.End
	if end.IsZero() {
		end = model.Day(time.Now())
	}

	// period2 is exclusive, so push it one day past the requested end date.
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.BaseURL, url.PathEscape(req.Symbol), start.Unix(), end.AddDate(0, 0, 1).Unix())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %q: %w", req.Symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("yahoo: unknown symbol %q: %w", req.Symbol, ErrNoData)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("yahoo: status %d for %q: %s", resp.StatusCode, req.Symbol, readBody(resp.Body))
	}

	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("yahoo decode %q: %w", req.Symbol, err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo: %s: %w", chart.Chart.Error.Description, ErrNoData)
		}
		return nil, fmt.Errorf("yahoo api error for %q: %s", req.Symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: empty result for %q: %w", req.Symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: empty quote set for %q: %w", req.Symbol, ErrNoData)
	}
	quote := result.Indicators.Quote[0]

	// The quote arrays must line up with the timestamps; a shorter array is a
	// malformed body, not missing data.
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n || len(quote.Volume) != n {
		return nil, fmt.Errorf("yahoo: malformed response for %q: %d timestamps with mismatched quote arrays", req.Symbol, n)
	}

	bars := make([]model.Bar, 0, n)
	for i, ts := range result.Timestamp {
		// Null bars show up on holidays and half-days; skip them.
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		day := model.Day(time.Unix(ts, 0))
		if day.Before(start) || day.After(end) {
			continue
		}
		var volume float64
		if quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		bars = append(bars, model.Bar{
			Symbol:    req.Symbol,
			Timestamp: day,
			Open:      decimal.NewFromFloat(*quote.Open[i]),
			High:      decimal.NewFromFloat(*quote.High[i]),
			Low:       decimal.NewFromFloat(*quote.Low[i]),
			Close:     decimal.NewFromFloat(*quote.Close[i]),
			Volume:    decimal.NewFromFloat(volume),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: no bars in window for %q: %w", req.Symbol, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}
