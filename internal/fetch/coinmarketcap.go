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
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

const coinMarketCapBaseURL = "https://pro-api.coinmarketcap.com"

// CoinMarketCapClient is a latest-only source: the API offers real-time
// quotes, not historical OHLC, so Fetch ignores any requested range and
// returns a single synthetic bar with open=high=low=close=current price and
// zero volume, stamped with the call date. This is a deliberate
// approximation.
type CoinMarketCapClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Clock   func() time.Time
}

func NewCoinMarketCapClient(apiKey string) *CoinMarketCapClient {
	return &CoinMarketCapClient{
		BaseURL: coinMarketCapBaseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(),
		Clock:   time.Now,
	}
}

func (c *CoinMarketCapClient) Name() string { return "coinmarketcap" }

func (c *CoinMarketCapClient) Capability() Capability { return CapabilityLatest }

type cmcQuoteResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string][]struct {
		Symbol string `json:"symbol"`
		Quote  map[string]struct {
			Price float64 `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

func (c *CoinMarketCapClient) Fetch(ctx context.Context, req Request) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/v2/cryptocurrency/quotes/latest?symbol=%s&convert=USD",
		c.BaseURL, url.QueryEscape(req.Symbol))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-CMC_PRO_API_KEY", c.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("coinmarketcap fetch %q: %w", req.Symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("coinmarketcap: status %d for %q: %s", resp.StatusCode, req.Symbol, readBody(resp.Body))
	}

	var quote cmcQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("coinmarketcap decode %q: %w", req.Symbol, err)
	}

	if quote.Status.ErrorCode != 0 {
		// Bad symbols surface as a 400 with an error message.
		if strings.Contains(quote.Status.ErrorMessage, `"symbol"`) {
			return nil, fmt.Errorf("coinmarketcap: %s: %w", quote.Status.ErrorMessage, ErrNoData)
		}
		return nil, fmt.Errorf("coinmarketcap api error for %q: %s", req.Symbol, quote.Status.ErrorMessage)
	}

	entries := quote.Data[strings.ToUpper(req.Symbol)]
	if len(entries) == 0 {
		return nil, fmt.Errorf("coinmarketcap: no quote for %q: %w", req.Symbol, ErrNoData)
	}
	usd, ok := entries[0].Quote["USD"]
	if !ok {
		return nil, fmt.Errorf("coinmarketcap: missing USD quote for %q: %w", req.Symbol, ErrNoData)
	}

	price := decimal.NewFromFloat(usd.Price)
	return []model.Bar{{
		Symbol:    req.Symbol,
		Timestamp: model.Day(c.Clock()),
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    decimal.Zero,
	}}, nil
}
