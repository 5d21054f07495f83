// Package templates implements the closed set of exit-management
// strategies applied to scanner signals (spec.md §4.6). Templates are a
// fixed part of the program, never data the LLM may rewrite.
package templates

import (
	"errors"
	"math"
	"time"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
)

// ErrUnknownTemplate is returned when a tag has no registered template.
var ErrUnknownTemplate = errors.New("unknown execution template")

// NotionalPerTrade is the uniform position-sizing notional (spec.md §4.6).
const NotionalPerTrade = 10000.0

// Template is one named exit-management strategy: a pure function from a
// signal and its future-bar window to a trade, or nil when the template
// finds nothing actionable (e.g. insufficient future bars).
type Template interface {
	// Tag returns the template's stable identifier (spec.md §4.6).
	Tag() string
	// Apply simulates the template's exit logic against futureBars, which
	// must be sorted ascending by timestamp and start at or after the
	// signal's entry bar. Returns (nil, nil) when the signal should be
	// skipped for this template (does not count as a trade).
	Apply(signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, params config.TemplateParamsConfig) (*models.Trade, error)
}

// Registry is the fixed, ordered set of built-in templates. Order matches
// config.TemplateTags — the lexicographic tie-break order referenced by
// spec.md §4.1 step 6 — and must never be reordered once agents have
// recorded a winning_template against it.
func Registry() []Template {
	return []Template{
		&Aggressive{},
		&ATRAdaptive{},
		&Conservative{},
		&PriceAction{},
		&TimeBased{},
	}
}

// ByTag returns the registered template for tag, or ErrUnknownTemplate.
func ByTag(tag string) (Template, error) {
	for _, t := range Registry() {
		if t.Tag() == tag {
			return t, nil
		}
	}
	return nil, ErrUnknownTemplate
}

// sizeShares applies the uniform position-sizing rule: qty = floor(notional
// / entry price) (spec.md §4.6).
func sizeShares(entryPrice float64) int {
	if entryPrice <= 0 {
		return 0
	}
	return int(math.Floor(NotionalPerTrade / entryPrice))
}

// isShort reports whether a signal's side indicates a short trade. Absent
// or unrecognized sides default to long.
func isShort(signal *models.Signal) bool {
	return signal.Side == "short"
}

// buildTrade computes quantity, P&L, and P&L percent per the uniform
// sizing/accounting rule (spec.md §4.6) and returns the finished Trade.
func buildTrade(signal *models.Signal, tag string, entryTime, exitTime time.Time, entryPrice, exitPrice float64) *models.Trade {
	short := isShort(signal)
	qty := sizeShares(entryPrice)

	sign := 1.0
	if short {
		sign = -1.0
	}

	return &models.Trade{
		Ticker:         signal.Ticker,
		Side:           sideOf(signal),
		EntryTimestamp: entryTime,
		ExitTimestamp:  exitTime,
		EntryPrice:     entryPrice,
		ExitPrice:      exitPrice,
		Quantity:       qty,
		PnL:            sign * float64(qty) * (exitPrice - entryPrice),
		PnLPercent:     sign * (exitPrice - entryPrice) / entryPrice,
		Template:       tag,
	}
}

func sideOf(signal *models.Signal) string {
	if signal.Side == "" {
		return "long"
	}
	return signal.Side
}

// stopTouched reports whether a bar's range crossed a stop level. Longs are
// stopped out on a dip (Low), shorts on a rally (High).
func stopTouched(bar market.Bar, stopPrice float64, short bool) bool {
	if short {
		return bar.High >= stopPrice
	}
	return bar.Low <= stopPrice
}

// targetTouched reports whether a bar's range crossed a target level. Longs
// hit target on a rally (High), shorts on a dip (Low).
func targetTouched(bar market.Bar, targetPrice float64, short bool) bool {
	if short {
		return bar.Low <= targetPrice
	}
	return bar.High >= targetPrice
}
