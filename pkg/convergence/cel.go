package convergence

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// celPolicy wraps a compiled CEL program evaluated against a
// GraduationMetrics snapshot, the same compile-once/evaluate-many shape as
// vishprometa/agent-warden's internal/policy.CELEvaluator, specialized to
// this detector's single variable namespace instead of a general rule engine.
type celPolicy struct {
	program cel.Program
}

// metricsVariables declares the `metrics.*` namespace CEL expressions read
// (config.GraduationConfig.PolicyExpr, spec.md §4.9's "explicit policy override").
var metricsVariables = []cel.EnvOption{
	cel.Variable("metrics.completed_count", cel.IntType),
	cel.Variable("metrics.win_rate", cel.DoubleType),
	cel.Variable("metrics.sharpe", cel.DoubleType),
	cel.Variable("metrics.total_return", cel.DoubleType),
}

func newCELPolicy(expr string) (*celPolicy, error) {
	env, err := cel.NewEnv(metricsVariables...)
	if err != nil {
		return nil, fmt.Errorf("build CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile CEL expression %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("CEL expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build CEL program for %q: %w", expr, err)
	}
	return &celPolicy{program: prg}, nil
}

func (p *celPolicy) evaluate(m GraduationMetrics) (bool, error) {
	vars := map[string]any{
		"metrics.completed_count": int64(m.CompletedCount),
		"metrics.win_rate":        m.WinRate,
		"metrics.sharpe":          m.Sharpe,
		"metrics.total_return":    m.TotalReturn,
	}

	out, _, err := p.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate CEL graduation policy: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL graduation policy returned non-bool: %T", out.Value())
	}
	return result, nil
}
