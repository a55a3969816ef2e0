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
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/config"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/fetch"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/store"
)

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(level string) *log.Logger {
	return &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: time.RFC3339,
		Writer: &log.ConsoleWriter{
			Writer:         os.Stderr,
			EndWithMessage: true,
		},
	}
}

func provideStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	return store.New(ctx, cfg.DatabaseURL)
}

// provideSource builds the fetch client for a symbol group. Sources whose
// API key is missing return an error so the caller can skip the group.
func provideSource(cfg *config.Config, group *config.Group) (fetch.Source, error) {
	switch group.Source {
	case "yahoo":
		return fetch.NewYahooClient(), nil
	case "alphavantage":
		if cfg.AlphaVantage.APIKey == "" {
			return nil, fmt.Errorf("group %q needs alpha_vantage.api_key (or ALPHA_VANTAGE_API_KEY)", group.Name)
		}
		asset := fetch.AssetStocks
		if group.AssetClass == "crypto" {
			asset = fetch.AssetCrypto
		}
		return fetch.NewAlphaVantageClient(cfg.AlphaVantage.APIKey, asset), nil
	case "coinmarketcap":
		if cfg.CoinMarketCap.APIKey == "" {
			return nil, fmt.Errorf("group %q needs coinmarketcap.api_key (or COINMARKETCAP_API_KEY)", group.Name)
		}
		return fetch.NewCoinMarketCapClient(cfg.CoinMarketCap.APIKey), nil
	default:
		return nil, fmt.Errorf("group %q: unknown source %q", group.Name, group.Source)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
