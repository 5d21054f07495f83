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

// AgentRepo persists Agent rows.
type AgentRepo struct {
	db *sql.DB
}

// NewAgentRepo builds an AgentRepo over a connection pool.
func NewAgentRepo(db *sql.DB) *AgentRepo {
	return &AgentRepo{db: db}
}

// Create inserts a new agent, allocating the next display counter from the
// shared sequence.
func (r *AgentRepo) Create(ctx context.Context, agent *models.Agent) error {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}

	personality, err := json.Marshal(agent.Personality)
	if err != nil {
		return fmt.Errorf("%w: marshal personality: %v", ErrPersistenceFailed, err)
	}

	row := r.db.QueryRowContext(ctx, `SELECT nextval('agents_display_counter_seq')`)
	var counter int64
	if err := row.Scan(&counter); err != nil {
		return fmt.Errorf("%w: allocate display counter: %v", ErrPersistenceFailed, err)
	}
	agent.DisplayCounter = int(counter)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO agents (id, name, instructions, personality, discovery_mode, status, active, display_counter, backoff_schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		agent.ID, agent.Name, agent.Instructions, personality, agent.DiscoveryMode, agent.Status, agent.Active, agent.DisplayCounter, agent.BackoffSchedule,
	)
	if err != nil {
		return fmt.Errorf("%w: insert agent: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// Get fetches an agent by id.
func (r *AgentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, instructions, personality, discovery_mode, status, active, display_counter, backoff_schedule, created_at, updated_at
		FROM agents WHERE id = $1`, id)
	return scanAgent(row)
}

// UpdateBackoffSchedule sets the cron expression governing a paused agent's
// automatic resume eligibility. An empty schedule disables automatic
// backoff entirely.
func (r *AgentRepo) UpdateBackoffSchedule(ctx context.Context, id uuid.UUID, schedule string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agents SET backoff_schedule = $1, updated_at = now() WHERE id = $2`, schedule, id)
	if err != nil {
		return fmt.Errorf("%w: update backoff schedule: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrAgentNotFound)
}

// UpdateStatus applies a validated status transition (spec.md §4.9).
func (r *AgentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agents SET status = $1, updated_at = now() WHERE id = $2`, newStatus, id)
	if err != nil {
		return fmt.Errorf("%w: update status: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrAgentNotFound)
}

// SetActive toggles the agent's active flag (soft on/off switch distinct
// from its lifecycle status).
func (r *AgentRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agents SET active = $1, updated_at = now() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("%w: set active: %v", ErrPersistenceFailed, err)
	}
	return requireRowsAffected(res, ErrAgentNotFound)
}

// List returns all agents ordered by display_counter.
func (r *AgentRepo) List(ctx context.Context) ([]*models.Agent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, instructions, personality, discovery_mode, status, active, display_counter, backoff_schedule, created_at, updated_at
		FROM agents ORDER BY display_counter ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list agents: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, agent)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var agent models.Agent
	var personality []byte
	err := row.Scan(&agent.ID, &agent.Name, &agent.Instructions, &personality,
		&agent.DiscoveryMode, &agent.Status, &agent.Active, &agent.DisplayCounter, &agent.BackoffSchedule,
		&agent.CreatedAt, &agent.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan agent: %v", ErrPersistenceFailed, err)
	}
	if len(personality) > 0 {
		if err := json.Unmarshal(personality, &agent.Personality); err != nil {
			return nil, fmt.Errorf("%w: unmarshal personality: %v", ErrPersistenceFailed, err)
		}
	}
	return &agent, nil
}

func requireRowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
