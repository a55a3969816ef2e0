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
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AssetClass selects which Alpha Vantage daily function to call.
type AssetClass string

const (
	AssetStocks AssetClass = "stocks"
	AssetCrypto AssetClass = "crypto"
)

// AlphaVantageClient fetches daily series from Alpha Vantage. The API is
// size-tiered rather than range-capable: outputsize is either the whole
// history ("full") or roughly the 100 most recent rows ("compact"), so
// callers doing incremental updates must trim already-stored rows themselves.
type AlphaVantageClient struct {
	BaseURL string
	APIKey  string
	Asset   AssetClass
	Client  *http.Client
}

func NewAlphaVantageClient(apiKey string, asset AssetClass) *AlphaVantageClient {
	return &AlphaVantageClient{
		BaseURL: alphaVantageBaseURL,
		APIKey:  apiKey,
		Asset:   asset,
		Client:  newHTTPClient(),
	}
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

func (c *AlphaVantageClient) Capability() Capability { return CapabilitySnapshot }

// Alpha Vantage prefixes every field with an ordinal ("1. open"). Strip the
// prefixes before decoding so the field names are stable.
var avNumberedKey = regexp.MustCompile(`"[0-9]+[a-z]?\. `)

func cleanResponseBody(body []byte) []byte {
	return avNumberedKey.ReplaceAll(body, []byte(`"`))
}

type avDailyResponse struct {
	ErrorMessage string           `json:"Error Message"`
	Note         string           `json:"Note"`
	Information  string           `json:"Information"`
	Stocks       map[string]avBar `json:"Time Series (Daily)"`
	Crypto       map[string]avBar `json:"Time Series (Digital Currency Daily)"`
}

type avBar struct {
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

func (c *AlphaVantageClient) requestURL(symbol string, full bool) string {
	outputSize := "compact"
	if full {
		outputSize = "full"
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.APIKey)
	switch c.Asset {
	case AssetCrypto:
		q.Set("function", "DIGITAL_CURRENCY_DAILY")
		q.Set("market", "USD")
	default:
		q.Set("function", "TIME_SERIES_DAILY")
		q.Set("outputsize", outputSize)
	}
	return c.BaseURL + "/query?" + q.Encode()
}

func (c *AlphaVantageClient) Fetch(ctx context.Context, req Request) ([]model.Bar, error) {
	full := req.Window.Mode == model.FullHistorical
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(req.Symbol, full), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage fetch %q: %w", req.Symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage: status %d for %q: %s", resp.StatusCode, req.Symbol, readBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage read %q: %w", req.Symbol, err)
	}

	var daily avDailyResponse
	if err := json.Unmarshal(cleanResponseBody(body), &daily); err != nil {
		return nil, fmt.Errorf("alpha vantage decode %q: %w", req.Symbol, err)
	}

	switch {
	case daily.ErrorMessage != "":
		// Unknown symbols come back as an error message, not a status code.
		return nil, fmt.Errorf("alpha vantage: %s: %w", daily.ErrorMessage, ErrNoData)
	case daily.Note != "":
		return nil, fmt.Errorf("alpha vantage throttled %q: %s", req.Symbol, daily.Note)
	case daily.Information != "":
		return nil, fmt.Errorf("alpha vantage rejected %q: %s", req.Symbol, daily.Information)
	}

	series := daily.Stocks
	if c.Asset == AssetCrypto {
		series = daily.Crypto
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("alpha vantage: missing time series for %q: %w", req.Symbol, ErrNoData)
	}

	bars := make([]model.Bar, 0, len(series))
	for dateStr, v := range series {
		bar, err := avParseBar(req.Symbol, dateStr, v)
		if err != nil {
			return nil, fmt.Errorf("alpha vantage parse %q: %w", req.Symbol, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

func avParseBar(symbol, dateStr string, v avBar) (model.Bar, error) {
	ts, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return model.Bar{}, fmt.Errorf("bad date %q: %w", dateStr, err)
	}

	var bar model.Bar
	bar.Symbol = symbol
	bar.Timestamp = model.Day(ts)

	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", v.Open, &bar.Open},
		{"high", v.High, &bar.High},
		{"low", v.Low, &bar.Low},
		{"close", v.Close, &bar.Close},
		{"volume", v.Volume, &bar.Volume},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return model.Bar{}, fmt.Errorf("bad %s %q on %s: %w", f.name, f.raw, dateStr, err)
		}
		*f.dst = d
	}
	return bar, nil
}
