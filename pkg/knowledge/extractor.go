// Package knowledge mines an iteration's expert analysis into typed,
// durable Knowledge Entries and reconciles them against what the agent
// already believes (spec.md §4.8).
package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// dedupThreshold is the token-overlap fraction above which a candidate
// entry is treated as a restatement of an existing one (spec.md §4.8).
const dedupThreshold = 0.8

// Extractor turns an ExpertAnalysis into persisted Knowledge Entries.
type Extractor struct {
	repo *repo.KnowledgeRepo
	log  *slog.Logger
}

// New builds an Extractor over a knowledge repository.
func New(knowledgeRepo *repo.KnowledgeRepo) *Extractor {
	return &Extractor{repo: knowledgeRepo, log: slog.With("component", "knowledge")}
}

// candidate is an entry not yet reconciled against the existing store.
type candidate struct {
	kind       config.KnowledgeKind
	patternTag string
	insight    string
	confidence float64
}

// Apply maps analysis into candidate entries, reconciles each against the
// agent's existing knowledge, and returns the entries actually inserted
// (candidates resolved as dedup reinforcements are not returned). Re-running
// Apply on the same analysis is idempotent: reinforcement increments
// times_validated by exactly 1 per matched row and inserts nothing new
// (spec.md §8).
func (e *Extractor) Apply(ctx context.Context, agentID uuid.UUID, iterationNumber int, analysis *models.ExpertAnalysis) ([]*models.KnowledgeEntry, error) {
	if analysis == nil {
		return nil, nil
	}

	var inserted []*models.KnowledgeEntry
	for _, c := range candidates(analysis) {
		entry, wasInserted, err := e.reconcile(ctx, agentID, iterationNumber, c)
		if err != nil {
			return nil, err
		}
		if wasInserted {
			inserted = append(inserted, entry)
		}
	}
	return inserted, nil
}

// candidates builds the full candidate list from one analysis object,
// per the three mapping rules of spec.md §4.8.
func candidates(analysis *models.ExpertAnalysis) []candidate {
	var out []candidate

	for _, text := range analysis.Recommendations.Scanning {
		out = append(out, candidate{kind: config.KnowledgeInsight, insight: text, confidence: 0.6})
	}
	for _, text := range analysis.Recommendations.Execution {
		out = append(out, candidate{kind: config.KnowledgeInsight, insight: text, confidence: 0.6})
	}
	for _, text := range analysis.Recommendations.RiskManagement {
		out = append(out, candidate{kind: config.KnowledgeInsight, insight: text, confidence: 0.6})
	}

	comparison := analysis.ExecutionAnalysis.TemplateComparison
	for _, tag := range mentionedTemplateTags(comparison) {
		out = append(out, candidate{
			kind: config.KnowledgeParameterPref, patternTag: tag,
			insight: templateTagInsight(comparison, tag), confidence: 0.6,
		})
	}

	for _, issue := range analysis.ExecutionAnalysis.ExitTimingIssues {
		phrased := ensureAvoidPhrasing(issue)
		if phrased == "" {
			continue
		}
		c := candidate{kind: config.KnowledgePatternRule, insight: phrased, confidence: 0.7}
		if tags := mentionedTemplateTags(issue); len(tags) > 0 {
			c.patternTag = tags[0]
		}
		out = append(out, c)
	}

	return out
}

// reconcile applies the dedup/contradiction rules of spec.md §4.8 for one
// candidate against the agent's existing knowledge of the same kind.
func (e *Extractor) reconcile(ctx context.Context, agentID uuid.UUID, iterationNumber int, c candidate) (*models.KnowledgeEntry, bool, error) {
	existing, err := e.repo.ListByAgentAndKind(ctx, agentID, string(c.kind))
	if err != nil {
		return nil, false, fmt.Errorf("list existing knowledge: %w", err)
	}

	for _, ex := range existing {
		if jaccardSimilarity(c.insight, ex.Insight) >= dedupThreshold {
			if err := e.repo.ReinforceExisting(ctx, ex.ID); err != nil {
				return nil, false, fmt.Errorf("reinforce existing knowledge entry: %w", err)
			}
			e.log.Debug("reinforced existing knowledge entry", "agent_id", agentID, "entry_id", ex.ID)
			return nil, false, nil
		}
	}

	if c.patternTag != "" {
		for _, ex := range existing {
			if ex.PatternTag != c.patternTag {
				continue
			}
			if negativePolarity(c.insight) == negativePolarity(ex.Insight) {
				continue
			}
			if err := e.repo.Contradict(ctx, ex.ID); err != nil {
				return nil, false, fmt.Errorf("contradict existing knowledge entry: %w", err)
			}
			e.log.Debug("contradicted existing knowledge entry", "agent_id", agentID, "entry_id", ex.ID)
		}
	}

	entry := &models.KnowledgeEntry{
		ID:                   uuid.New(),
		AgentID:              agentID,
		Kind:                 string(c.kind),
		PatternTag:           c.patternTag,
		Insight:              c.insight,
		Confidence:           c.confidence,
		LearnedFromIteration: iterationNumber,
	}
	if err := e.repo.Insert(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("insert knowledge entry: %w", err)
	}
	return entry, true, nil
}
