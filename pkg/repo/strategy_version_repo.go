package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/models"
)

// StrategyVersionRepo persists Strategy Version rows.
type StrategyVersionRepo struct {
	db *sql.DB
}

// NewStrategyVersionRepo builds a StrategyVersionRepo over a connection pool.
func NewStrategyVersionRepo(db *sql.DB) *StrategyVersionRepo {
	return &StrategyVersionRepo{db: db}
}

// PromoteAsCurrent inserts a new strategy version and atomically demotes
// any previously current version for the agent, preserving the invariant
// that at most one version per agent has is_current = true (spec.md §3, §8).
func (r *StrategyVersionRepo) PromoteAsCurrent(ctx context.Context, version *models.StrategyVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrPersistenceFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE strategy_versions SET is_current = FALSE WHERE agent_id = $1 AND is_current`,
		version.AgentID,
	); err != nil {
		return fmt.Errorf("%w: demote prior current version: %v", ErrPersistenceFailed, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO strategy_versions
			(id, agent_id, version, scan_source, executor_source, win_rate, sharpe,
			 total_return, is_current, parent_version, change_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10)`,
		version.ID, version.AgentID, version.Version, version.ScanSource, version.ExecutorSource,
		version.WinRate, version.Sharpe, version.TotalReturn, version.ParentVersion, version.ChangeSummary,
	)
	if err != nil {
		return fmt.Errorf("%w: insert strategy version: %v", ErrPersistenceFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit strategy version promotion: %v", ErrPersistenceFailed, err)
	}
	version.IsCurrent = true
	return nil
}

// GetCurrent returns the agent's current strategy version, if any.
func (r *StrategyVersionRepo) GetCurrent(ctx context.Context, agentID uuid.UUID) (*models.StrategyVersion, error) {
	row := r.db.QueryRowContext(ctx,
		strategyVersionSelectColumns+` FROM strategy_versions WHERE agent_id = $1 AND is_current`, agentID)
	return scanStrategyVersion(row)
}

// ListByAgent returns all strategy versions for an agent, newest first.
func (r *StrategyVersionRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*models.StrategyVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		strategyVersionSelectColumns+` FROM strategy_versions WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list strategy versions: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.StrategyVersion
	for rows.Next() {
		v, err := scanStrategyVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

const strategyVersionSelectColumns = `
	SELECT id, agent_id, version, scan_source, executor_source, win_rate, sharpe,
	       total_return, is_current, parent_version, change_summary, created_at`

func scanStrategyVersion(row rowScanner) (*models.StrategyVersion, error) {
	var v models.StrategyVersion
	err := row.Scan(&v.ID, &v.AgentID, &v.Version, &v.ScanSource, &v.ExecutorSource,
		&v.WinRate, &v.Sharpe, &v.TotalReturn, &v.IsCurrent, &v.ParentVersion, &v.ChangeSummary, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStrategyVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan strategy version: %v", ErrPersistenceFailed, err)
	}
	return &v, nil
}
