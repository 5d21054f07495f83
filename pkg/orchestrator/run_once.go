package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/llmclient"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/parseoutput"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/sandbox"
	"github.com/stratlab/stratlab/pkg/slack"
)

// generationRetries and its backoff bound the orchestrator-level retry
// wrapped around one llmclient.Generate call (spec.md §4.1 step 3) — a
// layer above llmclient's own transport-failure retry, covering the case
// where the call succeeds but extraction/validation still leaves nothing
// usable.
const (
	generationRetries    = 2
	generationBackoffMin = 2 * time.Second
	generationBackoffMax = 16 * time.Second
)

// RunOnce executes exactly one iteration for agentID and returns the
// finished Iteration row, COMPLETED or FAILED (spec.md §4.1). It never
// returns a "converged" condition — that is runContinuous's concern.
func (o *Orchestrator) RunOnce(ctx context.Context, agentID uuid.UUID, opts RunOnceOptions) (*models.Iteration, error) {
	release, err := o.locks.TryAcquire(agentID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	return o.executeIteration(ctx, agentID, opts)
}

// executeIteration runs the 9-step algorithm of spec.md §4.1 without
// touching the per-agent lock; callers (RunOnce, RunContinuous) own that.
func (o *Orchestrator) executeIteration(ctx context.Context, agentID uuid.UUID, opts RunOnceOptions) (*models.Iteration, error) {
	agent, err := o.agents.Get(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAgentNotFound, err)
	}
	if opts.DiscoveryModeOverride != nil {
		agent.DiscoveryMode = *opts.DiscoveryModeOverride
	}

	// Step 1: allocate the next iteration number under the DB advisory
	// lock, status NEW.
	iteration, err := o.iterations.AllocateAndCreate(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate iteration: %v", ErrPersistenceFailed, err)
	}

	finish := func(failErr error) (*models.Iteration, error) {
		return o.finalize(ctx, agent, iteration, failErr)
	}

	// Step 2: assemble the deterministic prompt text.
	prompts, err := o.prompts.Assemble(ctx, agent, opts.ManualGuidance)
	if err != nil {
		return finish(fmt.Errorf("%w: assemble prompts: %v", ErrGenerationFailed, err))
	}

	// Step 3: generate the scanner source.
	scanResult, err := o.generateWithRetry(ctx, "", prompts.ScanPrompt)
	if err != nil {
		return finish(fmt.Errorf("%w: scanner generation: %v", ErrGenerationFailed, err))
	}
	if err := o.iterations.UpdateScanner(ctx, iteration.ID, scanResult.SourceCode, prompts.ScanPrompt); err != nil {
		return finish(fmt.Errorf("%w: persist scanner: %v", ErrPersistenceFailed, err))
	}

	// Step 4: generate a custom executor when the agent is NOT restricted to
	// the template library and a prior iteration exists to build on;
	// discovery-mode agents (or first iterations) run the fixed template
	// library alone against this iteration's signals.
	prior, err := o.iterations.LatestCompleted(ctx, agentID)
	if err != nil && !errors.Is(err, repo.ErrIterationNotFound) {
		return finish(fmt.Errorf("%w: load prior iteration: %v", ErrPersistenceFailed, err))
	}

	var executorSource string
	if !agent.DiscoveryMode && prior != nil && prompts.ExecutionPrompt != "" {
		execResult, err := o.generateWithRetry(ctx, "", prompts.ExecutionPrompt)
		if err != nil {
			return finish(fmt.Errorf("%w: executor generation: %v", ErrGenerationFailed, err))
		}
		executorSource = execResult.SourceCode
		if err := o.iterations.UpdateExecutor(ctx, iteration.ID, executorSource, prompts.ExecutionPrompt); err != nil {
			return finish(fmt.Errorf("%w: persist executor: %v", ErrPersistenceFailed, err))
		}
	} else {
		if err := o.iterations.UpdateExecutor(ctx, iteration.ID, "template library", ""); err != nil {
			return finish(fmt.Errorf("%w: persist executor: %v", ErrPersistenceFailed, err))
		}
	}

	// Step 5: run the scanner in the sandbox against the read-only market
	// data store, then recover its signal list.
	signals, err := o.runScanner(ctx, scanResult.SourceCode)
	if err != nil {
		return finish(fmt.Errorf("%w: run scanner: %v", ErrSandboxFailed, err))
	}
	if err := o.iterations.UpdateSignals(ctx, iteration.ID, len(signals)); err != nil {
		return finish(fmt.Errorf("%w: persist signal count: %v", ErrPersistenceFailed, err))
	}

	// Step 6 + 7: evaluate every execution template (and the custom
	// executor, if any) and select the winner.
	release, err := o.acquireSandboxSlot(ctx)
	if err != nil {
		return finish(fmt.Errorf("%w: acquire sandbox slot: %v", ErrSandboxFailed, err))
	}
	results, err := o.evaluator.Evaluate(ctx, signals, o.templates, executorSource)
	release()
	if err != nil {
		return finish(fmt.Errorf("%w: evaluate signals: %v", ErrSandboxFailed, err))
	}

	winRate, sharpe, totalReturn := headlineMetrics(results)
	if err := o.iterations.UpdateBacktestResults(ctx, iteration.ID, results, winRate, sharpe, totalReturn); err != nil {
		return finish(fmt.Errorf("%w: persist backtest results: %v", ErrPersistenceFailed, err))
	}

	// Step 8: request the structured expert critique.
	systemPrompt, userPrompt, err := o.prompts.AssembleAnalysis(ctx, agent, results)
	if err != nil {
		return finish(fmt.Errorf("%w: assemble analysis prompt: %v", ErrGenerationFailed, err))
	}
	analysis, err := o.generateAnalysisWithRetry(ctx, systemPrompt, userPrompt)
	if err != nil {
		return finish(fmt.Errorf("%w: generate analysis: %v", ErrGenerationFailed, err))
	}
	if err := o.iterations.UpdateAnalysis(ctx, iteration.ID, analysis); err != nil {
		return finish(fmt.Errorf("%w: persist analysis: %v", ErrPersistenceFailed, err))
	}

	// Step 9: mine the critique into durable knowledge, persist the
	// refinements it suggested, and finalize.
	if _, err := o.extractor.Apply(ctx, agentID, iteration.IterationNumber, analysis); err != nil {
		return finish(fmt.Errorf("%w: extract knowledge: %v", ErrPersistenceFailed, err))
	}
	refinements := flattenRecommendations(analysis)
	if err := o.iterations.MarkKnowledgeUpdated(ctx, iteration.ID, refinements); err != nil {
		return finish(fmt.Errorf("%w: persist refinements: %v", ErrPersistenceFailed, err))
	}
	if err := o.iterations.Complete(ctx, iteration.ID); err != nil {
		return finish(fmt.Errorf("%w: complete iteration: %v", ErrPersistenceFailed, err))
	}

	return finish(nil)
}

// finalize records success or failure against iteration and the agent's
// consecutive-failure streak (spec.md §4.1's failure-semantics paragraph),
// then returns the final row read back from the store.
func (o *Orchestrator) finalize(ctx context.Context, agent *models.Agent, iteration *models.Iteration, failErr error) (*models.Iteration, error) {
	if failErr == nil {
		o.resetFailures(agent.ID)
		_ = o.activity.Record(ctx, agent.ID, "iteration_completed", map[string]any{
			"iteration_number": iteration.IterationNumber,
		})
		final, err := o.iterations.Get(ctx, iteration.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: reload completed iteration: %v", ErrPersistenceFailed, err)
		}
		return final, nil
	}

	reason := reasonTag(failErr)
	if err := o.iterations.Fail(ctx, iteration.ID, reason); err != nil {
		o.log.Error("failed to persist FAILED status", "iteration_id", iteration.ID, "error", err)
	}
	_ = o.activity.Record(ctx, agent.ID, "iteration_failed", map[string]any{
		"iteration_number": iteration.IterationNumber,
		"reason":           reason,
	})

	streak, shouldPause := o.recordFailure(agent.ID)
	if shouldPause {
		if err := o.agents.ChangeStatus(ctx, agent.ID, string(config.AgentStatusPaused), true); err != nil {
			o.log.Error("failed to pause agent after failure streak", "agent_id", agent.ID, "error", err)
		} else {
			_ = o.activity.Record(ctx, agent.ID, "agent_paused_failure_streak", map[string]any{
				"consecutive_failures": streak,
			})
			o.slack.NotifyPaused(ctx, slack.PausedInput{
				AgentID:             agent.ID.String(),
				AgentName:           agent.Name,
				ConsecutiveFailures: streak,
				LastFailReason:      reason,
			})
		}
	}

	final, getErr := o.iterations.Get(ctx, iteration.ID)
	if getErr != nil {
		return nil, failErr
	}
	return final, failErr
}

func reasonTag(err error) string {
	switch {
	case errors.Is(err, ErrAgentNotFound):
		return ErrAgentNotFound.Error()
	case errors.Is(err, ErrGenerationFailed):
		return ErrGenerationFailed.Error()
	case errors.Is(err, ErrSandboxFailed):
		return ErrSandboxFailed.Error()
	default:
		return ErrPersistenceFailed.Error()
	}
}

// generateWithRetry wraps llmclient.Client.Generate with an orchestrator-
// level retry (spec.md §4.1 step 3): up to generationRetries additional
// attempts, exponential backoff from generationBackoffMin capped at
// generationBackoffMax.
func (o *Orchestrator) generateWithRetry(ctx context.Context, systemPrompt, userPrompt string) (*llmclient.GenerateResult, error) {
	var lastErr error
	for attempt := 0; attempt <= generationRetries; attempt++ {
		result, err := o.llm.Generate(ctx, systemPrompt, userPrompt, llmclient.GenerateOpts{})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == generationRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffFor(attempt)):
		}
	}
	return nil, lastErr
}

func (o *Orchestrator) generateAnalysisWithRetry(ctx context.Context, systemPrompt, userPrompt string) (*models.ExpertAnalysis, error) {
	var lastErr error
	for attempt := 0; attempt <= generationRetries; attempt++ {
		analysis, err := o.llm.GenerateAnalysis(ctx, systemPrompt, userPrompt, llmclient.GenerateOpts{})
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		if attempt == generationRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffFor(attempt)):
		}
	}
	return nil, lastErr
}

func backoffFor(attempt int) time.Duration {
	d := generationBackoffMin * time.Duration(math.Pow(2, float64(attempt)))
	if d > generationBackoffMax {
		return generationBackoffMax
	}
	return d
}

// runScanner executes scanner source against the read-only market data
// store, under the global sandbox concurrency cap.
func (o *Orchestrator) runScanner(ctx context.Context, source string) ([]*models.Signal, error) {
	release, err := o.acquireSandboxSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := o.sandbox.Execute(ctx, source, sandbox.Options{
		Filename:      "scanner.py",
		Timeout:       o.sbCfg.ScannerTimeout,
		StdoutByteCap: o.sbCfg.StdoutByteCap,
		DenyNetwork:   o.sbCfg.DenyNetwork,
		Env:           []string{"STRATLAB_MARKET_DATA_ADDR=" + o.marketDataAddr},
	})
	if err != nil && !errors.Is(err, sandbox.ErrExecutionTruncated) {
		return nil, err
	}
	return parseoutput.ParseSignals(result.Stdout), nil
}

// headlineMetrics reads the winning row's win rate, sharpe, and total
// return off the result table (spec.md §4.1 step 9).
func headlineMetrics(results *models.BacktestResults) (winRate, sharpe, totalReturn float64) {
	if results.CustomExecutor != nil && results.WinningTemplate == results.CustomExecutor.Template {
		return results.CustomExecutor.WinRate, results.CustomExecutor.Sharpe, results.CustomExecutor.TotalReturn
	}
	for _, m := range results.PerTemplate {
		if m.Template == results.WinningTemplate {
			return m.WinRate, m.Sharpe, m.TotalReturn
		}
	}
	return 0, 0, 0
}

func flattenRecommendations(analysis *models.ExpertAnalysis) []string {
	if analysis == nil {
		return nil
	}
	out := make([]string, 0,
		len(analysis.Recommendations.Scanning)+len(analysis.Recommendations.Execution)+len(analysis.Recommendations.RiskManagement))
	out = append(out, analysis.Recommendations.Scanning...)
	out = append(out, analysis.Recommendations.Execution...)
	out = append(out, analysis.Recommendations.RiskManagement...)
	return out
}
