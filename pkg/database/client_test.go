package database

import (
	"context"
	stdsql "database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient starts a throwaway Postgres container, applies the embedded
// migrations through the real NewClient path, and returns a ready Client.
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("stratlab_test"),
		postgres.WithUsername("stratlab"),
		postgres.WithPassword("stratlab"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{
		Host:            host,
		Port:            port.Int(),
		User:            "stratlab",
		Password:        "stratlab",
		Database:        "stratlab_test",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestDatabaseClient_ConnectionPool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.DB().PingContext(ctx))

	health, err := Health(ctx, client.DB())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxOpenConns, 0)
}

func TestMigrations_CreateExpectedTables(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, table := range []string{"agents", "iterations", "knowledge_entries", "strategy_versions", "activity_log", "bars", "daily_metrics", "universe_members"} {
		var exists bool
		err := client.DB().QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "expected migrations to create table %q", table)
	}
}

func TestKnowledgeEntriesFullTextSearch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	insertAgent(ctx, t, client.DB(), "00000000-0000-0000-0000-000000000001")
	insertKnowledge(ctx, t, client.DB(), "00000000-0000-0000-0000-000000000001", "00000000-0000-0000-0000-000000000011", "Scanner overfits to low-volume breakouts in choppy markets")
	insertKnowledge(ctx, t, client.DB(), "00000000-0000-0000-0000-000000000001", "00000000-0000-0000-0000-000000000012", "Stop loss too tight during high volatility regimes")

	rows, err := client.DB().QueryContext(ctx,
		`SELECT id FROM knowledge_entries WHERE to_tsvector('english', content) @@ to_tsquery('english', $1)`,
		"volatility")
	require.NoError(t, err)
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"00000000-0000-0000-0000-000000000012"}, ids)
}

func insertAgent(ctx context.Context, t *testing.T, db *stdsql.DB, id string) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`INSERT INTO agents (id, name, instructions, display_counter) VALUES ($1, $2, $3, $4)`,
		id, "test agent", "find breakouts", 1)
	require.NoError(t, err)
}

func insertKnowledge(ctx context.Context, t *testing.T, db *stdsql.DB, agentID, id, content string) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`INSERT INTO knowledge_entries (id, agent_id, kind, content, learned_from_iteration) VALUES ($1, $2, $3, $4, $5)`,
		id, agentID, "INSIGHT", content, 1)
	require.NoError(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5,
			},
		},
		{
			name: "missing password",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "",
				Database: "test", MaxOpenConns: 10, MaxIdleConns: 5,
			},
			wantErr: true,
		},
		{
			name: "idle conns exceed max conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxOpenConns: 5, MaxIdleConns: 10,
			},
			wantErr: true,
		},
		{
			name: "zero max open conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxOpenConns: 0, MaxIdleConns: 0,
			},
			wantErr: true,
		},
		{
			name: "negative idle conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxOpenConns: 10, MaxIdleConns: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
