package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/stratlab/stratlab/pkg/market"
)

// lookaheadWindow is how far past a signal's entry time bars are fetched
// to build the template's future-bar window. Ten calendar days comfortably
// covers every built-in template's longest hold (Aggressive's three-day
// cap) with headroom for weekends/holidays in the underlying bar series.
const lookaheadWindow = 10 * 24 * time.Hour

var signalTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseSignalTime accepts any of the timestamp shapes a scanner may emit
// for Signal.Timestamp (spec.md §4.5's "timestamp-or-date" mandatory key).
func parseSignalTime(ts string) (time.Time, error) {
	for _, layout := range signalTimeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized signal timestamp %q", ts)
}

// entryAndFuture fetches the bar window a template needs to evaluate one
// signal: the entry bar (the first bar at or after the signal's time) and
// every subsequent bar up to lookaheadWindow later, ascending.
func entryAndFuture(ctx context.Context, client *market.Client, timeframe market.Timeframe, ticker string, entryTime time.Time) (market.Bar, []market.Bar, bool, error) {
	bars, err := client.BarsBetween(ctx, ticker, timeframe, entryTime, entryTime.Add(lookaheadWindow))
	if err != nil {
		return market.Bar{}, nil, false, err
	}
	if len(bars) == 0 {
		return market.Bar{}, nil, false, nil
	}
	return bars[0], bars[1:], true, nil
}
