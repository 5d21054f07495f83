package templates

import (
	"time"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
)

// TimeBased is the `time_based` template: no price target, exit at a fixed
// wall-clock offset from entry (default 2h) (spec.md §4.6).
type TimeBased struct{}

// Tag implements Template.
func (TimeBased) Tag() string { return config.TemplateTimeBased }

// Apply implements Template.
func (TimeBased) Apply(signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, params config.TemplateParamsConfig) (*models.Trade, error) {
	if len(futureBars) == 0 {
		return nil, nil
	}

	offset := time.Duration(params.TimeOffsetMins) * time.Minute
	if offset <= 0 {
		offset = 120 * time.Minute
	}
	target := entryBar.Timestamp.Add(offset)

	var chosen market.Bar
	found := false
	for _, bar := range futureBars {
		chosen = bar
		found = true
		if !bar.Timestamp.Before(target) {
			break
		}
	}
	if !found {
		return nil, nil
	}
	return buildTrade(signal, config.TemplateTimeBased, entryBar.Timestamp, chosen.Timestamp, entryBar.Close, chosen.Close), nil
}
