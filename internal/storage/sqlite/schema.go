package sqlite

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the digests table if it does not exist. The rendered
// digest text is stored as-is so the text format stays the single contract.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS digests (
            date TEXT PRIMARY KEY,
            content TEXT NOT NULL,
            entry_count INTEGER NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
