package backtest

import "github.com/stratlab/stratlab/pkg/models"

// CustomExecutorTag is the tag a custom executor's result row is labeled
// with so it competes for "winner" on equal terms with the built-in
// templates (spec.md §4.7).
const CustomExecutorTag = "custom"

// SelectWinner implements the deterministic tie-break rule of spec.md
// §4.1 step 6: highest profit factor, then highest win rate, then highest
// total return, then lexicographically first template tag. Returns "" if
// there are no candidates at all.
func SelectWinner(perTemplate []models.TemplateMetrics, custom *models.TemplateMetrics) string {
	candidates := make([]models.TemplateMetrics, 0, len(perTemplate)+1)
	candidates = append(candidates, perTemplate...)
	if custom != nil {
		c := *custom
		c.Template = CustomExecutorTag
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return ""
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if beats(c, best) {
			best = c
		}
	}
	return best.Template
}

// beats reports whether a strictly outranks b under the tie-break chain.
// When profit factor, win rate and total return are all equal, the
// lexicographically smaller tag wins, so the result does not depend on
// the order of the candidates (spec.md §4.1 step 6).
func beats(a, b models.TemplateMetrics) bool {
	if a.ProfitFactor != b.ProfitFactor {
		return a.ProfitFactor > b.ProfitFactor
	}
	if a.WinRate != b.WinRate {
		return a.WinRate > b.WinRate
	}
	if a.TotalReturn != b.TotalReturn {
		return a.TotalReturn > b.TotalReturn
	}
	return a.Template < b.Template
}
