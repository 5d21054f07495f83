package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/models"
)

// KnowledgeRepo persists Knowledge Entry rows.
type KnowledgeRepo struct {
	db *sql.DB
}

// NewKnowledgeRepo builds a KnowledgeRepo over a connection pool.
func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

// Insert creates a new, independent knowledge entry (spec.md §4.8).
func (r *KnowledgeRepo) Insert(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	var supporting []byte
	if entry.SupportingData != nil {
		var err error
		supporting, err = json.Marshal(entry.SupportingData)
		if err != nil {
			return fmt.Errorf("%w: marshal supporting data: %v", ErrPersistenceFailed, err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO knowledge_entries
			(id, agent_id, kind, pattern_tag, content, supporting_data, confidence,
			 learned_from_iteration, times_validated, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.AgentID, entry.Kind, entry.PatternTag, entry.Insight, supporting,
		entry.Confidence, entry.LearnedFromIteration, entry.TimesValidated, tagsForEntry(entry),
	)
	if err != nil {
		return fmt.Errorf("%w: insert knowledge entry: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func tagsForEntry(entry *models.KnowledgeEntry) []string {
	if entry.PatternTag == "" {
		return []string{}
	}
	return []string{entry.PatternTag}
}

// ListByAgent returns all knowledge entries for an agent. The Prompt
// Context Assembler is responsible for the confidence/times_validated
// ordering and 40-entry cap (spec.md §4.2); this method returns the full set.
func (r *KnowledgeRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*models.KnowledgeEntry, error) {
	rows, err := r.db.QueryContext(ctx, knowledgeSelectColumns+` FROM knowledge_entries WHERE agent_id = $1`, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list knowledge entries: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.KnowledgeEntry
	for rows.Next() {
		entry, err := scanKnowledgeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ListByAgentAndKind returns knowledge entries filtered by kind, the shape
// the dedup pass and the "list knowledge filterable by kind and tag" query
// (spec.md §6) both need.
func (r *KnowledgeRepo) ListByAgentAndKind(ctx context.Context, agentID uuid.UUID, kind string) ([]*models.KnowledgeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		knowledgeSelectColumns+` FROM knowledge_entries WHERE agent_id = $1 AND kind = $2`, agentID, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: list knowledge entries by kind: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.KnowledgeEntry
	for rows.Next() {
		entry, err := scanKnowledgeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// CountHighConfidenceSince counts knowledge entries with confidence ≥
// threshold learned at or after fromIteration (the convergence detector's
// "no new Knowledge Entry with confidence ≥ 0.7 in the last 3 iterations"
// check, spec.md §4.9).
func (r *KnowledgeRepo) CountHighConfidenceSince(ctx context.Context, agentID uuid.UUID, threshold float64, fromIteration int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM knowledge_entries
		WHERE agent_id = $1 AND confidence >= $2 AND learned_from_iteration >= $3`,
		agentID, threshold, fromIteration,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count high confidence entries: %v", ErrPersistenceFailed, err)
	}
	return count, nil
}

// ReinforceExisting increments times_validated and nudges confidence toward
// min(1.0, confidence+0.05) on a dedup match (spec.md §4.8).
func (r *KnowledgeRepo) ReinforceExisting(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE knowledge_entries
		SET times_validated = times_validated + 1,
		    confidence = LEAST(1.0, confidence + 0.05),
		    last_validated = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: reinforce knowledge entry: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrKnowledgeEntryNotFound)
}

// Contradict reduces an existing entry's confidence by 0.1, floored at 0,
// on detecting an opposite-polarity entry for the same tag (spec.md §4.8).
func (r *KnowledgeRepo) Contradict(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE knowledge_entries SET confidence = GREATEST(0, confidence - 0.1) WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: contradict knowledge entry: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrKnowledgeEntryNotFound)
}

const knowledgeSelectColumns = `
	SELECT id, agent_id, kind, pattern_tag, content, supporting_data, confidence,
	       learned_from_iteration, times_validated, last_validated, created_at`

func scanKnowledgeEntry(row rowScanner) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	var supporting []byte

	err := row.Scan(&entry.ID, &entry.AgentID, &entry.Kind, &entry.PatternTag, &entry.Insight,
		&supporting, &entry.Confidence, &entry.LearnedFromIteration, &entry.TimesValidated,
		&entry.LastValidated, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKnowledgeEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan knowledge entry: %v", ErrPersistenceFailed, err)
	}

	if len(supporting) > 0 {
		if err := json.Unmarshal(supporting, &entry.SupportingData); err != nil {
			return nil, fmt.Errorf("%w: unmarshal supporting data: %v", ErrPersistenceFailed, err)
		}
	}
	return &entry, nil
}
