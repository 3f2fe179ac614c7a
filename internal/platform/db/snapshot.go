package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot writes a consistent point-in-time copy of the database to
// destPath using VACUUM INTO, which is safe to run while the source
// connection is open for regular reads and writes. VACUUM INTO refuses to
// write over an existing file, so any previous snapshot at destPath is
// removed first.
func Snapshot(ctx context.Context, conn *sql.DB, destPath string) error {
	if dir := filepath.Dir(destPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.Remove(destPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous snapshot: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("vacuum into %s: %w", destPath, err)
	}
	return nil
}
