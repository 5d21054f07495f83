package backtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/parseoutput"
	"github.com/stratlab/stratlab/pkg/sandbox"
	"github.com/stratlab/stratlab/pkg/templates"
)

// Evaluator runs the fixed execution template library (and, when an
// iteration supplies one, a custom executor) against a signal list and
// produces the per-template result table stored on the iteration
// (spec.md §4.7).
type Evaluator struct {
	market    *market.Client
	sandbox   *sandbox.Sandbox
	sbCfg     config.SandboxConfig
	timeframe market.Timeframe
	log       *slog.Logger
}

// New builds an Evaluator. timeframe selects the bar granularity used to
// materialize template windows; pass "" for the spec's default (5-minute
// bars).
func New(marketClient *market.Client, sbox *sandbox.Sandbox, sbCfg config.SandboxConfig, timeframe market.Timeframe) *Evaluator {
	if timeframe == "" {
		timeframe = market.Timeframe5Min
	}
	return &Evaluator{
		market:    marketClient,
		sandbox:   sbox,
		sbCfg:     sbCfg,
		timeframe: timeframe,
		log:       slog.With("component", "backtest"),
	}
}

// Evaluate applies every built-in template, and the supplied custom
// executor source if non-empty, to signals and returns the combined
// result table with WinningTemplate resolved (spec.md §4.7).
func (e *Evaluator) Evaluate(ctx context.Context, signals []*models.Signal, params *config.TemplateRegistry, executorSource string) (*models.BacktestResults, error) {
	results := &models.BacktestResults{SignalsFound: len(signals)}

	perTemplate, err := e.runBuiltins(ctx, signals, params)
	if err != nil {
		return nil, err
	}
	results.PerTemplate = perTemplate

	if executorSource != "" {
		custom, err := e.runCustomExecutor(ctx, signals, executorSource)
		if err != nil {
			return nil, err
		}
		results.CustomExecutor = custom
	}

	results.WinningTemplate = SelectWinner(results.PerTemplate, results.CustomExecutor)
	return results, nil
}

// runBuiltins applies every registered template to every signal,
// materializing each signal's bar window once per (ticker, entry time)
// pair and reusing it across templates.
func (e *Evaluator) runBuiltins(ctx context.Context, signals []*models.Signal, params *config.TemplateRegistry) ([]models.TemplateMetrics, error) {
	registry := templates.Registry()
	tradesByTag := make(map[string][]models.Trade, len(registry))

	for _, signal := range signals {
		entryTime, err := parseSignalTime(signal.Timestamp)
		if err != nil {
			e.log.Warn("skipping signal with unparseable timestamp", "ticker", signal.Ticker, "timestamp", signal.Timestamp)
			continue
		}

		entryBar, futureBars, ok, err := entryAndFuture(ctx, e.market, e.timeframe, signal.Ticker, entryTime)
		if err != nil {
			return nil, fmt.Errorf("fetch bar window for %s: %w", signal.Ticker, err)
		}
		if !ok {
			continue
		}

		for _, tmpl := range registry {
			tag := tmpl.Tag()
			tp, err := params.Get(tag)
			if err != nil {
				return nil, err
			}

			trade, err := tmpl.Apply(signal, entryBar, futureBars, *tp)
			if err != nil {
				return nil, fmt.Errorf("apply template %s to %s: %w", tag, signal.Ticker, err)
			}
			if trade == nil {
				continue
			}
			tradesByTag[tag] = append(tradesByTag[tag], *trade)
		}
	}

	out := make([]models.TemplateMetrics, 0, len(registry))
	for _, tmpl := range registry {
		out = append(out, ComputeMetrics(tmpl.Tag(), tradesByTag[tmpl.Tag()]))
	}
	return out, nil
}

// runCustomExecutor pipes the signal list to the agent-authored executor
// as JSON on stdin and recovers its trade list from stdout (spec.md §4.7's
// custom-executor path). A sandbox failure here is reported to the caller
// so the orchestrator can record it as an iteration failure rather than
// silently scoring the custom path as empty.
func (e *Evaluator) runCustomExecutor(ctx context.Context, signals []*models.Signal, executorSource string) (*models.TemplateMetrics, error) {
	stdin, err := encodeSignals(signals)
	if err != nil {
		return nil, fmt.Errorf("encode signals for custom executor: %w", err)
	}

	result, err := e.sandbox.Execute(ctx, executorSource, sandbox.Options{
		Filename:      "executor.py",
		Stdin:         stdin,
		Timeout:       e.sbCfg.ExecutorTimeout,
		StdoutByteCap: e.sbCfg.StdoutByteCap,
		DenyNetwork:   e.sbCfg.DenyNetwork,
	})
	if err != nil && !errors.Is(err, sandbox.ErrExecutionTruncated) {
		return nil, fmt.Errorf("%w: custom executor", err)
	}

	trades := parseoutput.ParseTrades(result.Stdout)
	flat := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		t.Template = CustomExecutorTag
		flat = append(flat, *t)
	}

	m := ComputeMetrics(CustomExecutorTag, flat)
	return &m, nil
}

func encodeSignals(signals []*models.Signal) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(signals); err != nil {
		return "", err
	}
	return buf.String(), nil
}
