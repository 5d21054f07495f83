// Package orchestrator drives one agent's learning loop: it is the only
// component that moves an Iteration through its full state machine, from
// NEW to COMPLETED or FAILED (spec.md §4.1). Everything it touches —
// prompt assembly, LLM generation, sandboxed execution, backtesting,
// knowledge extraction, convergence detection — is a package it composes,
// never reimplements.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/agentlock"
	"github.com/stratlab/stratlab/pkg/backtest"
	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/convergence"
	"github.com/stratlab/stratlab/pkg/knowledge"
	"github.com/stratlab/stratlab/pkg/llmclient"
	"github.com/stratlab/stratlab/pkg/promptctx"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/sandbox"
	"github.com/stratlab/stratlab/pkg/services"
	"github.com/stratlab/stratlab/pkg/slack"
)

// Deps are the Orchestrator's wired collaborators. New does not validate
// them; SandboxCfg and QueueCfg are plain values whose zero fields fall back
// to this package's defaults.
type Deps struct {
	Agents     *services.AgentService
	Activity   *services.ActivityLogService
	Iterations *repo.IterationRepo
	Knowledge  *repo.KnowledgeRepo

	Prompts   *promptctx.Assembler
	LLM       *llmclient.Client
	Sandbox   *sandbox.Sandbox
	Evaluator *backtest.Evaluator
	Extractor *knowledge.Extractor
	Detector  *convergence.Detector

	Templates *config.TemplateRegistry
	SandboxCfg config.SandboxConfig
	QueueCfg   config.QueueConfig

	// MarketDataAddr is the read-only local address exported to sandboxed
	// scanner/executor processes (spec.md §4.4, §6).
	MarketDataAddr string

	// Slack is optional; nil disables pause/graduation notifications
	// (slack.Service is itself nil-safe, so this can be passed through
	// straight from config without a branch at every call site).
	Slack *slack.Service
}

// Orchestrator implements spec.md §4.1's runOnce/runContinuous over Deps.
type Orchestrator struct {
	agents     *services.AgentService
	activity   *services.ActivityLogService
	iterations *repo.IterationRepo
	knowledge  *repo.KnowledgeRepo

	prompts   *promptctx.Assembler
	llm       *llmclient.Client
	sandbox   *sandbox.Sandbox
	evaluator *backtest.Evaluator
	extractor *knowledge.Extractor
	detector  *convergence.Detector

	templates *config.TemplateRegistry
	sbCfg     config.SandboxConfig
	queueCfg  config.QueueConfig

	marketDataAddr string
	slack          *slack.Service

	locks      *agentlock.Registry
	sandboxSem chan struct{}

	mu               sync.Mutex
	consecutiveFails map[uuid.UUID]int

	log *slog.Logger
}

// New builds an Orchestrator. The global sandbox concurrency cap
// (Deps.QueueCfg.MaxConcurrentSandboxes) is enforced as a shared semaphore
// across every agent this Orchestrator runs (spec.md §5).
func New(d Deps) *Orchestrator {
	slots := d.QueueCfg.MaxConcurrentSandboxes
	if slots <= 0 {
		slots = 1
	}
	return &Orchestrator{
		agents:           d.Agents,
		activity:         d.Activity,
		iterations:       d.Iterations,
		knowledge:        d.Knowledge,
		prompts:          d.Prompts,
		llm:              d.LLM,
		sandbox:          d.Sandbox,
		evaluator:        d.Evaluator,
		extractor:        d.Extractor,
		detector:         d.Detector,
		templates:        d.Templates,
		sbCfg:            d.SandboxCfg,
		queueCfg:         d.QueueCfg,
		marketDataAddr:   d.MarketDataAddr,
		slack:            d.Slack,
		locks:            agentlock.NewRegistry(),
		sandboxSem:       make(chan struct{}, slots),
		consecutiveFails: make(map[uuid.UUID]int),
		log:              slog.With("component", "orchestrator"),
	}
}

// acquireSandboxSlot blocks until the global sandbox concurrency cap has
// room, or ctx is cancelled first.
func (o *Orchestrator) acquireSandboxSlot(ctx context.Context) (func(), error) {
	select {
	case o.sandboxSem <- struct{}{}:
		return func() { <-o.sandboxSem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) failureCount(agentID uuid.UUID) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.consecutiveFails[agentID]
}

// recordFailure increments agentID's consecutive-failure streak and
// reports whether it just crossed MaxConsecutiveFailures.
func (o *Orchestrator) recordFailure(agentID uuid.UUID) (streak int, shouldPause bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.consecutiveFails[agentID]++
	streak = o.consecutiveFails[agentID]
	max := o.queueCfg.MaxConsecutiveFailures
	if max <= 0 {
		max = 5
	}
	return streak, streak >= max
}

func (o *Orchestrator) resetFailures(agentID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.consecutiveFails, agentID)
}
