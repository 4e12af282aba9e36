package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ApplySchema runs every statement of the named embedded schema file.
// Statements are idempotent, so this is safe on every start.
func ApplySchema(ctx context.Context, db *sql.DB, dialect string) error {
	content, err := schemaFS.ReadFile("schema/" + dialect + ".sql")
	if err != nil {
		return fmt.Errorf("read %s schema: %w", dialect, err)
	}

	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", dialect, err)
		}
	}

	return nil
}
