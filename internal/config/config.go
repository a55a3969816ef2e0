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

// Package config loads the pipeline configuration from a YAML file with
// environment variable overrides. Environment always wins over the file so
// secrets never have to live on disk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Group is a set of symbols loaded from one data source.
type Group struct {
	Name       string   `yaml:"name"`
	Source     string   `yaml:"source"`
	AssetClass string   `yaml:"asset_class"`
	Symbols    []string `yaml:"symbols"`
}

// Config holds all application configuration.
type Config struct {
	DatabaseURL     string        `yaml:"database_url"`
	MigrationSource string        `yaml:"migration_source"`
	LogLevel        string        `yaml:"log_level"`
	RateInterval    time.Duration `yaml:"rate_interval"`
	DailyCron       string        `yaml:"daily_cron"`
	AlphaVantage    struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"alpha_vantage"`
	CoinMarketCap struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"coinmarketcap"`
	Groups []Group `yaml:"groups"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; everything can
// come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("COINMARKETCAP_API_KEY"); v != "" {
		cfg.CoinMarketCap.APIKey = v
	}
	if v := os.Getenv("FINDATA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FINDATA_RATE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse FINDATA_RATE_INTERVAL: %w", err)
		}
		cfg.RateInterval = d
	}

	// Defaults
	if cfg.MigrationSource == "" {
		cfg.MigrationSource = "file://migrations"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateInterval == 0 {
		cfg.RateInterval = time.Second
	}
	if cfg.DailyCron == "" {
		// After the US market close, weekdays.
		cfg.DailyCron = "0 23 * * 1-5"
	}
	if len(cfg.Groups) == 0 {
		cfg.Groups = defaultGroups()
	}

	return cfg, nil
}

func defaultGroups() []Group {
	return []Group{
		{
			Name:       "stocks",
			Source:     "alphavantage",
			AssetClass: "stocks",
			Symbols:    []string{"MSFT", "KO", "JPM", "GLD", "SLV"},
		},
		{
			Name:       "cryptos",
			Source:     "yahoo",
			AssetClass: "crypto",
			Symbols:    []string{"BTC-USD", "ETH-USD"},
		},
	}
}

// Validate checks that required fields are set. API keys are not required
// here: a group whose source needs a missing key is skipped at load time.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required (or set DATABASE_URL)")
	}
	for _, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("every group needs a name")
		}
		if g.Source == "" {
			return fmt.Errorf("group %q: source is required", g.Name)
		}
		if len(g.Symbols) == 0 {
			return fmt.Errorf("group %q: at least one symbol is required", g.Name)
		}
	}
	return nil
}

// Group returns the named symbol group.
func (c *Config) Group(name string) (*Group, error) {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			return &c.Groups[i], nil
		}
	}
	return nil, fmt.Errorf("unknown group %q", name)
}
