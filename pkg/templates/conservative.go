package templates

import (
	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
)

// Conservative is the `conservative` template: stop 2%, target 3%, max
// hold 1 day (spec.md §4.6).
type Conservative struct{}

// Tag implements Template.
func (Conservative) Tag() string { return config.TemplateConservative }

// Apply implements Template.
func (Conservative) Apply(signal *models.Signal, entryBar market.Bar, futureBars []market.Bar, params config.TemplateParamsConfig) (*models.Trade, error) {
	return fixedStopTargetExit(config.TemplateConservative, signal, entryBar, futureBars, params.StopLossPct, params.TakeProfitPct, params.MaxHoldDays)
}
