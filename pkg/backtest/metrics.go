// Package backtest applies the execution template library (and, when
// present, a custom executor) to a signal list and computes the
// per-template result table (spec.md §4.7).
package backtest

import (
	"math"

	"github.com/stratlab/stratlab/pkg/models"
)

// ComputeMetrics reduces a template's trade list into its result row
// (spec.md §4.7). It is a pure function, independently testable from the
// evaluator's I/O.
func ComputeMetrics(tag string, trades []models.Trade) models.TemplateMetrics {
	m := models.TemplateMetrics{Template: tag, TotalTrades: len(trades)}
	if len(trades) == 0 {
		return m
	}

	var grossWin, grossLoss, sumReturn float64
	for _, t := range trades {
		sumReturn += t.PnL
		switch {
		case t.PnL > 0:
			m.Winners++
			grossWin += t.PnL
		case t.PnL < 0:
			m.Losers++
			grossLoss += -t.PnL
		}
	}

	m.WinRate = float64(m.Winners) / float64(m.TotalTrades)
	m.TotalReturn = sumReturn
	m.AverageReturn = sumReturn / float64(m.TotalTrades)
	m.ProfitFactor = profitFactor(grossWin, grossLoss, m.Winners)
	m.Sharpe = tradeSharpe(trades)
	return m
}

// profitFactor implements spec.md §4.7's definition: gross winning $ /
// gross losing $, infinite when there are winners and no losers, zero
// when there are no winners at all (including the no-trades case).
func profitFactor(grossWin, grossLoss float64, winners int) float64 {
	if winners == 0 {
		return 0
	}
	if grossLoss == 0 {
		return math.Inf(1)
	}
	return grossWin / grossLoss
}

// tradeSharpe computes the trade-level (not daily) Sharpe ratio: mean /
// stdev * sqrt(N), zero when N < 2 (spec.md §4.7).
func tradeSharpe(trades []models.Trade) float64 {
	n := len(trades)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, t := range trades {
		sum += t.PnL
	}
	mean := sum / float64(n)

	var variance float64
	for _, t := range trades {
		d := t.PnL - mean
		variance += d * d
	}
	variance /= float64(n)
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}
	return mean / stdev * math.Sqrt(float64(n))
}
