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
	"strings"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/config"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/load"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/store"
)

var (
	loadHistorical bool
	loadStart      string
	loadEnd        string
	loadGroups     []string
	loadSymbols    []string
	loadSource     string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fetch daily bars and upsert them into Postgres",
	Long: `Runs one load pass over the configured symbol groups. By default each
symbol is loaded incrementally from the day after its latest stored bar
through today; --historical forces a full reload and --start/--end load an
explicit date range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := provideConfig()
		if err != nil {
			return err
		}
		lg := provideLogger(cfg.LogLevel)

		st, err := provideStore(cmd.Context(), cfg)
		if err != nil {
			// No database means nothing can be persisted; abort hard.
			lg.Error().Err(err).Msg("cannot connect to database")
			os.Exit(1)
		}
		defer st.Close()

		opts, err := loadOptions()
		if err != nil {
			return err
		}

		sum := runLoadPass(cmd.Context(), cfg, lg, st, opts)
		lg.Info().
			Int("loaded", sum.Loaded).
			Int("rows", sum.Rows).
			Int("skipped", sum.Skipped).
			Int("failed", sum.Failed).
			Msg("load pass finished")
		return nil
	},
}

func loadOptions() (load.Options, error) {
	opts := load.Options{ForceHistorical: loadHistorical}
	if loadStart != "" {
		t, err := parseDate(loadStart)
		if err != nil {
			return opts, fmt.Errorf("--start: %w", err)
		}
		opts.CustomStart = &t
	}
	if loadEnd != "" {
		t, err := parseDate(loadEnd)
		if err != nil {
			return opts, fmt.Errorf("--end: %w", err)
		}
		opts.CustomEnd = &t
	}
	if opts.CustomEnd != nil && opts.CustomStart == nil {
		return opts, fmt.Errorf("--end requires --start")
	}
	return opts, nil
}

// runLoadPass loads every selected group sequentially. A group whose source
// cannot be built (missing API key, unknown source) is skipped with a
// warning; the pass continues.
func runLoadPass(ctx context.Context, cfg *config.Config, lg *log.Logger, st *store.Store, opts load.Options) load.Summary {
	ldr := load.New(st, lg, cfg.RateInterval)

	var total load.Summary
	for i := range cfg.Groups {
		group := &cfg.Groups[i]
		if len(loadGroups) > 0 && !contains(loadGroups, group.Name) {
			continue
		}
		if loadSource != "" && group.Source != loadSource {
			continue
		}

		symbols := group.Symbols
		if len(loadSymbols) > 0 {
			symbols = intersect(symbols, loadSymbols)
			if len(symbols) == 0 {
				continue
			}
		}

		src, err := provideSource(cfg, group)
		if err != nil {
			lg.Warn().Err(err).Str("group", group.Name).Msg("skipping group")
			continue
		}

		lg.Info().Str("group", group.Name).Str("source", src.Name()).Int("symbols", len(symbols)).Msg("loading group")
		sum := ldr.Load(ctx, src, symbols, opts)
		total.Loaded += sum.Loaded
		total.Rows += sum.Rows
		total.Skipped += sum.Skipped
		total.Failed += sum.Failed
	}
	return total
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func intersect(symbols, wanted []string) []string {
	var out []string
	for _, s := range symbols {
		if contains(wanted, s) {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	loadCmd.Flags().BoolVar(&loadHistorical, "historical", false, "reload full history from the epoch")
	loadCmd.Flags().StringVar(&loadStart, "start", "", "custom range start (YYYY-MM-DD)")
	loadCmd.Flags().StringVar(&loadEnd, "end", "", "custom range end (YYYY-MM-DD), defaults to today")
	loadCmd.Flags().StringSliceVar(&loadGroups, "group", nil, "only load the named groups")
	loadCmd.Flags().StringSliceVar(&loadSymbols, "symbols", nil, "only load these symbols")
	loadCmd.Flags().StringVar(&loadSource, "source", "", "only load groups using this source")
	rootCmd.AddCommand(loadCmd)
}
