// Package promptctx assembles the deterministic LLM prompt text for one
// iteration: agent identity, prior-iteration context, ranked knowledge,
// manual guidance, and the invariant anti-lookahead contract (spec.md §4.2).
package promptctx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// Prompts is the assembler's output: two prompt texts saved verbatim on
// the iteration row for audit (spec.md §4.2). ExecutionPrompt is empty
// when the agent is restricted to the template library (discovery mode,
// or no prior iteration yet to build on), since execution is then handled
// by the fixed templates and needs no generated code.
type Prompts struct {
	ScanPrompt      string
	ExecutionPrompt string
}

// Assembler builds Prompts for one agent/iteration.
type Assembler struct {
	iterations *repo.IterationRepo
	knowledge  *repo.KnowledgeRepo
}

// New builds an Assembler over the repositories it reads prior context from.
func New(iterationRepo *repo.IterationRepo, knowledgeRepo *repo.KnowledgeRepo) *Assembler {
	return &Assembler{iterations: iterationRepo, knowledge: knowledgeRepo}
}

// Assemble produces this iteration's prompt text for agent, given any
// operator-supplied manual guidance. The same agent/knowledge/prior-state
// inputs always produce the same prompt text (spec.md §4.2's determinism
// requirement); only the LLM's own response may vary.
func (a *Assembler) Assemble(ctx context.Context, agent *models.Agent, manualGuidance string) (*Prompts, error) {
	prev, err := a.iterations.LatestCompleted(ctx, agent.ID)
	if err != nil && !errors.Is(err, repo.ErrIterationNotFound) {
		return nil, fmt.Errorf("load previous iteration: %w", err)
	}

	entries, err := a.knowledge.ListByAgent(ctx, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("load knowledge entries: %w", err)
	}

	sections := []string{
		formatAgentSection(agent),
		formatPreviousIterationSection(prev),
		formatKnowledgeSection(entries),
	}
	if guidance := formatManualGuidanceSection(manualGuidance); guidance != "" {
		sections = append(sections, guidance)
	}
	sections = append(sections, dataSchemaDescription, antiLookaheadContract)

	base := strings.Join(sections, "\n\n")

	scanPrompt := base + "\n\nTASK: Write a scanner program that reads the available data and emits a JSON " +
		"array of signals matching this agent's personality and strategy. Follow the sequential data access " +
		"contract above without exception."

	var executionPrompt string
	if !agent.DiscoveryMode && prev != nil {
		executionPrompt = base + "\n\nTASK: Write a custom executor program that reads a JSON array of signals " +
			"on stdin and emits a JSON array of trades (entry/exit timestamps and prices) on stdout, competing " +
			"against the built-in execution templates. Follow the sequential data access contract above " +
			"without exception."
	}

	return &Prompts{ScanPrompt: scanPrompt, ExecutionPrompt: executionPrompt}, nil
}
