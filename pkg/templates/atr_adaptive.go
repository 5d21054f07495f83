package templates

import (
	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
)

// ATRAdaptive is the `atr_adaptive` template: stop = k*ATR(14), target =
// 2k*ATR, k default 1.5 (spec.md §4.6).
type ATRAdaptive struct{}

// Tag implements Template.
func (ATRAdaptive) Tag() string { return config.TemplateATRAdaptive }

// Apply implements Template.
func (ATRAdaptive) Apply(signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, params config.TemplateParamsConfig) (*models.Trade, error) {
	if len(futureBars) == 0 {
		return nil, nil
	}

	k := params.ATRMultiplier
	if k <= 0 {
		k = 1.5
	}

	atr := atrFromSignal(signal)
	if atr <= 0 {
		atr = estimateATR(entryBar, futureBars)
	}
	if atr <= 0 {
		return nil, nil
	}

	short := isShort(signal)
	entryPrice := entryBar.Close
	var stopPrice, targetPrice float64
	if short {
		stopPrice = entryPrice + k*atr
		targetPrice = entryPrice - 2*k*atr
	} else {
		stopPrice = entryPrice - k*atr
		targetPrice = entryPrice + 2*k*atr
	}

	var last market.Bar
	for _, bar := range futureBars {
		last = bar
		stopHit := stopTouched(bar, stopPrice, short)
		targetHit := targetTouched(bar, targetPrice, short)
		switch {
		case stopHit && targetHit:
			return buildTrade(signal, config.TemplateATRAdaptive, entryBar.Timestamp, bar.Timestamp, entryPrice, stopPrice), nil
		case stopHit:
			return buildTrade(signal, config.TemplateATRAdaptive, entryBar.Timestamp, bar.Timestamp, entryPrice, stopPrice), nil
		case targetHit:
			return buildTrade(signal, config.TemplateATRAdaptive, entryBar.Timestamp, bar.Timestamp, entryPrice, targetPrice), nil
		}
	}
	return buildTrade(signal, config.TemplateATRAdaptive, entryBar.Timestamp, last.Timestamp, entryPrice, last.Close), nil
}

// atrFromSignal reads a scanner-supplied "atr" metadata key when present;
// the scanner is expected to compute this strictly from bars at or before
// the signal (anti-lookahead contract, spec.md §4.2).
func atrFromSignal(signal *models.Signal) float64 {
	if signal.Extra == nil {
		return 0
	}
	v, ok := signal.Extra["atr"]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

// estimateATR approximates ATR(14) from the available future window when
// the scanner did not supply one. This is a fallback for evaluator
// purposes only — it is never exposed to generated code and never
// influences which signals are emitted.
func estimateATR(entryBar market.Bar, futureBars []market.Bar) float64 {
	n := len(futureBars)
	if n > 14 {
		n = 14
	}
	prevClose := entryBar.Close
	var sum float64
	for i := 0; i < n; i++ {
		b := futureBars[i]
		tr := trueRange(b, prevClose)
		sum += tr
		prevClose = b.Close
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func trueRange(bar market.Bar, prevClose float64) float64 {
	hl := bar.High - bar.Low
	hc := absFloat(bar.High - prevClose)
	lc := absFloat(bar.Low - prevClose)
	tr := hl
	if hc > tr {
		tr = hc
	}
	if lc > tr {
		tr = lc
	}
	return tr
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
