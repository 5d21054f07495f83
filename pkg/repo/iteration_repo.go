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

// IterationRepo persists Iteration rows and allocates iteration numbers.
type IterationRepo struct {
	db *sql.DB
}

// NewIterationRepo builds an IterationRepo over a connection pool.
func NewIterationRepo(db *sql.DB) *IterationRepo {
	return &IterationRepo{db: db}
}

// AllocateAndCreate opens a new iteration in status NEW, allocating
// `max(iteration_number)+1` for the agent under a transactional advisory
// lock (spec.md §4.1, §5) so concurrent orchestrators never race on the
// same number.
func (r *IterationRepo) AllocateAndCreate(ctx context.Context, agentID uuid.UUID) (*models.Iteration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ErrPersistenceFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	// pg_advisory_xact_lock serializes concurrent allocation attempts for
	// the same agent; the lock is released automatically at transaction end.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, agentID); err != nil {
		return nil, fmt.Errorf("%w: acquire agent lock: %v", ErrPersistenceFailed, err)
	}

	var maxNumber sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT max(iteration_number) FROM iterations WHERE agent_id = $1`, agentID,
	).Scan(&maxNumber); err != nil {
		return nil, fmt.Errorf("%w: read max iteration number: %v", ErrPersistenceFailed, err)
	}

	next := int(maxNumber.Int64) + 1

	iteration := &models.Iteration{
		ID:              uuid.New(),
		AgentID:         agentID,
		IterationNumber: next,
		Status:          "new",
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO iterations (id, agent_id, iteration_number, status)
		VALUES ($1, $2, $3, $4)`,
		iteration.ID, iteration.AgentID, iteration.IterationNumber, iteration.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert iteration: %v", ErrPersistenceFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit iteration allocation: %v", ErrPersistenceFailed, err)
	}
	return iteration, nil
}

// UpdateScanner persists the generated scanner source/prompt and advances
// status to scanner_generated.
func (r *IterationRepo) UpdateScanner(ctx context.Context, id uuid.UUID, scanSource, scanPrompt string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE iterations SET scan_source = $1, scan_prompt = $2, status = 'scanner_generated'
		WHERE id = $3`, scanSource, scanPrompt, id)
	if err != nil {
		return fmt.Errorf("%w: update scanner: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// UpdateExecutor persists the generated executor source/prompt (or marks
// "template library" when discovery mode is on or no prior iteration
// exists) and advances status to executor_generated.
func (r *IterationRepo) UpdateExecutor(ctx context.Context, id uuid.UUID, executorSource, executionPrompt string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE iterations SET executor_source = $1, execution_prompt = $2, status = 'executor_generated'
		WHERE id = $3`, executorSource, executionPrompt, id)
	if err != nil {
		return fmt.Errorf("%w: update executor: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// UpdateSignals records the scanner's signal count and advances status to
// signals_computed.
func (r *IterationRepo) UpdateSignals(ctx context.Context, id uuid.UUID, signalsFound int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE iterations SET signals_found = $1, status = 'signals_computed'
		WHERE id = $2`, signalsFound, id)
	if err != nil {
		return fmt.Errorf("%w: update signals: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// UpdateBacktestResults persists the per-template result table and
// headline metrics, advancing status to backtested.
func (r *IterationRepo) UpdateBacktestResults(ctx context.Context, id uuid.UUID, results *models.BacktestResults, winRate, sharpe, totalReturn float64) error {
	blob, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("%w: marshal backtest results: %v", ErrPersistenceFailed, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE iterations
		SET backtest_results = $1, win_rate = $2, sharpe = $3, total_return = $4,
		    winning_template = $5, status = 'backtested'
		WHERE id = $6`,
		blob, winRate, sharpe, totalReturn, results.WinningTemplate, id)
	if err != nil {
		return fmt.Errorf("%w: update backtest results: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// UpdateAnalysis persists the LLM's expert analysis and advances status to analyzed.
func (r *IterationRepo) UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis *models.ExpertAnalysis) error {
	blob, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("%w: marshal expert analysis: %v", ErrPersistenceFailed, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE iterations SET expert_analysis = $1, status = 'analyzed' WHERE id = $2`, blob, id)
	if err != nil {
		return fmt.Errorf("%w: update analysis: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// MarkKnowledgeUpdated advances status to knowledge_updated, persisting the
// refinements suggested by the analysis.
func (r *IterationRepo) MarkKnowledgeUpdated(ctx context.Context, id uuid.UUID, refinements []string) error {
	blob, err := json.Marshal(refinements)
	if err != nil {
		return fmt.Errorf("%w: marshal refinements: %v", ErrPersistenceFailed, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE iterations SET refinements_suggested = $1, status = 'knowledge_updated' WHERE id = $2`, blob, id)
	if err != nil {
		return fmt.Errorf("%w: mark knowledge updated: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// Complete finalizes the iteration to status completed. Once complete, the
// row is never mutated again (spec.md §3).
func (r *IterationRepo) Complete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE iterations SET status = 'completed' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: complete iteration: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// Fail finalizes the iteration to status failed with a reason tag
// (spec.md §7). Whatever partial state was already persisted is retained.
func (r *IterationRepo) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE iterations SET status = 'failed', fail_reason = $1 WHERE id = $2`, reason, id)
	if err != nil {
		return fmt.Errorf("%w: fail iteration: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// Review applies a human-operator disposition (spec.md §3's status domain
// {approved, rejected, improved_upon}) on top of an already-COMPLETED
// iteration. Unlike the processing state machine's one-way transitions,
// a review may be applied repeatedly as an operator's judgment changes.
func (r *IterationRepo) Review(ctx context.Context, id uuid.UUID, disposition string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE iterations SET status = $1 WHERE id = $2 AND status IN ('completed', 'approved', 'rejected', 'improved_upon')`,
		disposition, id)
	if err != nil {
		return fmt.Errorf("%w: review iteration: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrIterationNotFound)
}

// Get fetches a single iteration by id.
func (r *IterationRepo) Get(ctx context.Context, id uuid.UUID) (*models.Iteration, error) {
	row := r.db.QueryRowContext(ctx, iterationSelectColumns+` FROM iterations WHERE id = $1`, id)
	return scanIteration(row)
}

// LatestCompleted returns the most recent COMPLETED iteration for an agent,
// used by the prompt assembler to reference "the previous iteration"
// (spec.md §4.2).
func (r *IterationRepo) LatestCompleted(ctx context.Context, agentID uuid.UUID) (*models.Iteration, error) {
	row := r.db.QueryRowContext(ctx,
		iterationSelectColumns+` FROM iterations WHERE agent_id = $1 AND status = 'completed'
		ORDER BY iteration_number DESC LIMIT 1`, agentID)
	return scanIteration(row)
}

// ListByAgent returns all iterations for an agent, ordered by iteration number.
func (r *IterationRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*models.Iteration, error) {
	rows, err := r.db.QueryContext(ctx,
		iterationSelectColumns+` FROM iterations WHERE agent_id = $1 ORDER BY iteration_number ASC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list iterations: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.Iteration
	for rows.Next() {
		it, err := scanIteration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// LastNCompleted returns up to n most-recent COMPLETED iterations, oldest
// first — the window the Convergence Detector and graduation gate evaluate
// (spec.md §4.9).
func (r *IterationRepo) LastNCompleted(ctx context.Context, agentID uuid.UUID, n int) ([]*models.Iteration, error) {
	rows, err := r.db.QueryContext(ctx,
		iterationSelectColumns+` FROM iterations WHERE agent_id = $1 AND status = 'completed'
		ORDER BY iteration_number DESC LIMIT $2`, agentID, n)
	if err != nil {
		return nil, fmt.Errorf("%w: last n completed: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.Iteration
	for rows.Next() {
		it, err := scanIteration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	// reverse to oldest-first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// CountCompleted returns the number of COMPLETED iterations for an agent
// (the graduation gate's "≥ 20 COMPLETED iterations" check).
func (r *IterationRepo) CountCompleted(ctx context.Context, agentID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM iterations WHERE agent_id = $1 AND status = 'completed'`, agentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count completed: %v", ErrPersistenceFailed, err)
	}
	return count, nil
}

const iterationSelectColumns = `
	SELECT id, agent_id, iteration_number, scan_source, executor_source, scan_prompt,
	       execution_prompt, manual_guidance, signals_found, backtest_results,
	       win_rate, sharpe, total_return, winning_template, expert_analysis,
	       refinements_suggested, status, fail_reason, created_at`

func scanIteration(row rowScanner) (*models.Iteration, error) {
	var it models.Iteration
	var backtestBlob, analysisBlob, refinementsBlob []byte

	err := row.Scan(&it.ID, &it.AgentID, &it.IterationNumber, &it.ScanSource, &it.ExecutorSource,
		&it.ScanPrompt, &it.ExecutionPrompt, &it.ManualGuidance, &it.SignalsFound, &backtestBlob,
		&it.WinRate, &it.Sharpe, &it.TotalReturn, &it.WinningTemplate, &analysisBlob,
		&refinementsBlob, &it.Status, &it.FailReason, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIterationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan iteration: %v", ErrPersistenceFailed, err)
	}

	if len(backtestBlob) > 0 {
		it.BacktestResults = &models.BacktestResults{}
		if err := json.Unmarshal(backtestBlob, it.BacktestResults); err != nil {
			return nil, fmt.Errorf("%w: unmarshal backtest results: %v", ErrPersistenceFailed, err)
		}
	}
	if len(analysisBlob) > 0 {
		it.ExpertAnalysis = &models.ExpertAnalysis{}
		if err := json.Unmarshal(analysisBlob, it.ExpertAnalysis); err != nil {
			return nil, fmt.Errorf("%w: unmarshal expert analysis: %v", ErrPersistenceFailed, err)
		}
	}
	if len(refinementsBlob) > 0 {
		if err := json.Unmarshal(refinementsBlob, &it.RefinementsSuggested); err != nil {
			return nil, fmt.Errorf("%w: unmarshal refinements: %v", ErrPersistenceFailed, err)
		}
	}
	return &it, nil
}
