package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSearchIndexes creates GIN indexes on knowledge_entries: full-text
// search over content and containment search over the tags array. The
// repository queries (including those behind the prompt context assembler)
// filter by agent_id and do not use these indexes.
func CreateSearchIndexes(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_entries_content_gin
		ON knowledge_entries USING gin(to_tsvector('english', content))`)
	if err != nil {
		return fmt.Errorf("failed to create knowledge_entries content GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_entries_tags_gin
		ON knowledge_entries USING gin(tags)`)
	if err != nil {
		return fmt.Errorf("failed to create knowledge_entries tags GIN index: %w", err)
	}

	return nil
}
