package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/models"
)

// ActivityLogRepo persists append-only audit entries (spec.md §6).
type ActivityLogRepo struct {
	db *sql.DB
}

// NewActivityLogRepo builds an ActivityLogRepo over a connection pool.
func NewActivityLogRepo(db *sql.DB) *ActivityLogRepo {
	return &ActivityLogRepo{db: db}
}

// Append records a new activity-log entry.
func (r *ActivityLogRepo) Append(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	var payload []byte
	if entry.Payload != nil {
		var err error
		payload, err = json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("%w: marshal activity payload: %v", ErrPersistenceFailed, err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, agent_id, event_type, payload) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.AgentID, entry.EventType, payload,
	)
	if err != nil {
		return fmt.Errorf("%w: insert activity log entry: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// ListByAgent returns activity-log entries for an agent, newest first.
func (r *ActivityLogRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*models.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, agent_id, event_type, payload, created_at
		FROM activity_log WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list activity log: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []*models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.AgentID, &entry.EventType, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan activity log entry: %v", ErrPersistenceFailed, err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &entry.Payload); err != nil {
				return nil, fmt.Errorf("%w: unmarshal activity payload: %v", ErrPersistenceFailed, err)
			}
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes activity-log entries older than the retention
// window (pkg/config RetentionConfig); agents, iterations, knowledge, and
// strategy versions are never auto-deleted (spec.md §3).
func (r *ActivityLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activity_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: delete old activity log entries: %v", ErrPersistenceFailed, err)
	}
	return res.RowsAffected()
}
