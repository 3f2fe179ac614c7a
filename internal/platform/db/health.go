package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// IntegrityCheck pings the database and runs SQLite's built-in integrity
// check. It returns an error describing the first reported problem, or nil
// when the file is sound. gaitdoc runs this once at startup.
func IntegrityCheck(ctx context.Context, conn *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var result string
	if err := conn.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
