package templates

import (
	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
)

// PriceAction is the `price_action` template: trail a stop below (above,
// for shorts) the low (high) of the last N bars, N default 3 (spec.md §4.6).
type PriceAction struct{}

// Tag implements Template.
func (PriceAction) Tag() string { return config.TemplatePriceAction }

// Apply implements Template.
func (PriceAction) Apply(signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, params config.TemplateParamsConfig) (*models.Trade, error) {
	if len(futureBars) == 0 {
		return nil, nil
	}

	n := params.TrailBars
	if n <= 0 {
		n = 3
	}

	short := isShort(signal)
	entryPrice := entryBar.Close

	// window holds the trailing N bars seen so far, oldest first, seeded
	// with the entry bar itself so the first trail level is defined.
	window := []market.Bar{entryBar}

	for _, bar := range futureBars {
		trail := trailLevel(window, n, short)
		if stopTouched(bar, trail, short) {
			return buildTrade(signal, config.TemplatePriceAction, entryBar.Timestamp, bar.Timestamp, entryPrice, trail), nil
		}

		window = append(window, bar)
		if len(window) > n {
			window = window[len(window)-n:]
		}
	}

	last := futureBars[len(futureBars)-1]
	return buildTrade(signal, config.TemplatePriceAction, entryBar.Timestamp, last.Timestamp, entryPrice, last.Close), nil
}

// trailLevel returns the low (long) or high (short) across the last N bars
// in window, i.e. the trailing stop price for the next bar.
func trailLevel(window []market.Bar, n int, short bool) float64 {
	start := 0
	if len(window) > n {
		start = len(window) - n
	}
	slice := window[start:]

	level := slice[0].Low
	if short {
		level = slice[0].High
	}
	for _, b := range slice[1:] {
		if short {
			if b.High > level {
				level = b.High
			}
		} else {
			if b.Low < level {
				level = b.Low
			}
		}
	}
	return level
}
