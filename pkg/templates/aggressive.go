package templates

import (
	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
)

// Aggressive is the `aggressive` template: stop 3%, target 6%, max hold
// 3 days (spec.md §4.6).
type Aggressive struct{}

// Tag implements Template.
func (Aggressive) Tag() string { return config.TemplateAggressive }

// Apply implements Template.
func (Aggressive) Apply(signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, params config.TemplateParamsConfig) (*models.Trade, error) {
	return fixedStopTargetExit(config.TemplateAggressive, signal, entryBar, futureBars, params.StopLossPct, params.TakeProfitPct, params.MaxHoldDays)
}

// fixedStopTargetExit is the shared exit simulation for the two fixed
// percentage-band templates (conservative, aggressive): walk futureBars in
// order, exiting at the stop or target price on whichever is touched
// first, or at the last available bar's close once maxHoldDays elapses.
func fixedStopTargetExit(tag string, signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, stopPct, targetPct float64, maxHoldDays int) (*models.Trade, error) {
	if len(futureBars) == 0 {
		return nil, nil
	}

	short := isShort(signal)
	entryPrice := entryBar.Close
	entryTime := entryBar.Timestamp

	var stopPrice, targetPrice float64
	if short {
		stopPrice = entryPrice * (1 + stopPct)
		targetPrice = entryPrice * (1 - targetPct)
	} else {
		stopPrice = entryPrice * (1 - stopPct)
		targetPrice = entryPrice * (1 + targetPct)
	}

	cutoff := entryTime.AddDate(0, 0, maxHoldDays)

	var last market.Bar
	for _, bar := range futureBars {
		if bar.Timestamp.After(cutoff) {
			break
		}
		last = bar

		stopHit := stopTouched(bar, stopPrice, short)
		targetHit := targetTouched(bar, targetPrice, short)
		switch {
		case stopHit && targetHit:
			// Both touched within the same bar: the conservative assumption
			// is the adverse level filled first.
			return buildTrade(signal, tag, entryTime, bar.Timestamp, entryPrice, stopPrice), nil
		case stopHit:
			return buildTrade(signal, tag, entryTime, bar.Timestamp, entryPrice, stopPrice), nil
		case targetHit:
			return buildTrade(signal, tag, entryTime, bar.Timestamp, entryPrice, targetPrice), nil
		}
	}

	if last.Timestamp.IsZero() {
		return nil, nil
	}
	return buildTrade(signal, tag, entryTime, last.Timestamp, entryPrice, last.Close), nil
}
