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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/report"
)

var reportSymbols []string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print per-symbol performance and risk metrics",
	Long: `Computes total and annualized return, annualized volatility, maximum
drawdown and Sharpe ratio from the stored daily closes and prints them as
a table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := provideConfig()
		if err != nil {
			return err
		}

		st, err := provideStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("cannot connect to database: %w", err)
		}
		defer st.Close()

		bars, err := st.AllBars(cmd.Context())
		if err != nil {
			return err
		}
		if len(reportSymbols) > 0 {
			bars = filterBars(bars, reportSymbols)
		}

		summaries, err := report.Summaries(bars)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "no symbols with enough data; run `findata load` first")
			return nil
		}
		return report.Render(os.Stdout, summaries)
	},
}

func filterBars(bars []model.Bar, symbols []string) []model.Bar {
	var out []model.Bar
	for _, b := range bars {
		if contains(symbols, b.Symbol) {
			out = append(out, b)
		}
	}
	return out
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportSymbols, "symbols", nil, "only report these symbols")
	rootCmd.AddCommand(reportCmd)
}
