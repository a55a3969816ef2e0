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

// Package report computes per-symbol performance and risk figures from the
// stored daily close prices.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/montanaflynn/stats"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

// Daily bars, so a trading-day year for volatility and Sharpe scaling and a
// calendar year for annualizing total return.
const (
	tradingDays  = 252
	calendarDays = 365

	// Annual risk-free rate assumed for the Sharpe ratio.
	riskFreeRate = 0.02
)

// Summary holds the computed figures for one symbol. Ratios are plain
// fractions (0.12 means 12%).
type Summary struct {
	Symbol           string
	Bars             int
	FirstDate        string
	LastDate         string
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64
	MaxDrawdown      float64
	Sharpe           float64
}

// DailyReturns converts a close-price series into simple day-over-day
// returns. The result has one fewer element than the input.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// TotalReturn is the simple return from the first close to the last.
func TotalReturn(closes []float64) float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return 0
	}
	return closes[len(closes)-1]/closes[0] - 1
}

// AnnualizedReturn scales a total return observed over spanDays calendar
// days to a compound annual rate.
func AnnualizedReturn(totalReturn float64, spanDays int) float64 {
	if spanDays <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, float64(calendarDays)/float64(spanDays)) - 1
}

// AnnualizedVolatility is the sample standard deviation of the daily
// returns scaled by the square root of the trading-day year.
func AnnualizedVolatility(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, nil
	}
	stdev, err := stats.StandardDeviationSample(stats.Float64Data(returns))
	if err != nil {
		return 0, err
	}
	return stdev * math.Sqrt(tradingDays), nil
}

// MaxDrawdown is the largest peak-to-trough decline of the close series,
// returned as a negative fraction (or zero for a series that never falls).
func MaxDrawdown(closes []float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	peak := closes[0]
	worst := 0.0
	for _, px := range closes {
		if px > peak {
			peak = px
		}
		if peak == 0 {
			continue
		}
		dd := px/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// SharpeRatio is the annualized excess return over a fixed risk-free rate
// divided by the annualized volatility of the daily returns.
func SharpeRatio(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, nil
	}
	data := stats.Float64Data(returns)
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, err
	}
	stdev, err := stats.StandardDeviationSample(data)
	if err != nil {
		return 0, err
	}
	if stdev == 0 {
		return 0, nil
	}
	dailyRiskFree := riskFreeRate / tradingDays
	return (mean - dailyRiskFree) / stdev * math.Sqrt(tradingDays), nil
}

// Summarize computes the full figure set for one symbol's bars. Bars may
// arrive in any order; fewer than two bars yields nil since no return can
// be computed.
func Summarize(symbol string, bars []model.Bar) (*Summary, error) {
	if len(bars) < 2 {
		return nil, nil
	}
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close.InexactFloat64()
	}
	returns := DailyReturns(closes)

	total := TotalReturn(closes)
	first, last := sorted[0].Timestamp, sorted[len(sorted)-1].Timestamp
	spanDays := int(last.Sub(first).Hours() / 24)

	vol, err := AnnualizedVolatility(returns)
	if err != nil {
		return nil, fmt.Errorf("volatility for %s: %w", symbol, err)
	}
	sharpe, err := SharpeRatio(returns)
	if err != nil {
		return nil, fmt.Errorf("sharpe for %s: %w", symbol, err)
	}

	return &Summary{
		Symbol:           symbol,
		Bars:             len(sorted),
		FirstDate:        first.Format("2006-01-02"),
		LastDate:         last.Format("2006-01-02"),
		TotalReturn:      total,
		AnnualizedReturn: AnnualizedReturn(total, spanDays),
		Volatility:       vol,
		MaxDrawdown:      MaxDrawdown(closes),
		Sharpe:           sharpe,
	}, nil
}

// Summaries groups bars by symbol and summarizes each. Symbols with too few
// bars are silently omitted; the output is sorted by symbol.
func Summaries(bars []model.Bar) ([]Summary, error) {
	bySymbol := map[string][]model.Bar{}
	for _, b := range bars {
		bySymbol[b.Symbol] = append(bySymbol[b.Symbol], b)
	}

	out := make([]Summary, 0, len(bySymbol))
	for symbol, group := range bySymbol {
		s, err := Summarize(symbol, group)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// Render writes the summaries as an aligned table.
func Render(w io.Writer, summaries []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tBARS\tFIRST\tLAST\tTOTAL\tANNUAL\tVOL\tMAX DD\tSHARPE")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.2f%%\t%.2f%%\t%.2f%%\t%.2f%%\t%.2f\n",
			s.Symbol, s.Bars, s.FirstDate, s.LastDate,
			s.TotalReturn*100, s.AnnualizedReturn*100,
			s.Volatility*100, s.MaxDrawdown*100, s.Sharpe)
	}
	return tw.Flush()
}
