// Package backup produces dated snapshots of the gaitdoc database and runs
// the schedule that writes one every night at local midnight.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaitdoc/gaitdoc/internal/platform/db"
)

// Manager takes snapshots of a live database into a backup directory. The
// snapshot file name embeds the database's base name and the calendar date,
// so a second snapshot on the same day replaces the first.
type Manager struct {
	conn   *sql.DB
	dbPath string
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewManager creates a backup manager writing snapshots of the database at
// dbPath into dir. dir is created on first use if it does not exist.
func NewManager(conn *sql.DB, dbPath, dir string, logger zerolog.Logger) *Manager {
	return &Manager{
		conn:   conn,
		dbPath: dbPath,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// SnapshotName returns the dated snapshot file name for time t, e.g.
// "gaitdoc_backup_20240110.db" for a database named gaitdoc.db.
func (m *Manager) SnapshotName(t time.Time) string {
	base := strings.TrimSuffix(filepath.Base(m.dbPath), filepath.Ext(m.dbPath))
	return fmt.Sprintf("%s_backup_%s.db", base, t.Format("20060102"))
}

// Snapshot writes a snapshot for the current date and returns its path. Safe
// to call while the database is in regular use.
func (m *Manager) Snapshot(ctx context.Context) (string, error) {
	dest := filepath.Join(m.dir, m.SnapshotName(m.now()))
	if err := db.Snapshot(ctx, m.conn, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Start launches the daily backup loop in a background goroutine and returns
// immediately. The loop sleeps until the next local midnight, snapshots,
// and repeats. Snapshot failures are logged and never stop the loop. The
// goroutine exits when ctx is canceled; nothing waits for it at shutdown.
func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	for {
		timer := time.NewTimer(untilNextMidnight(m.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		path, err := m.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error().Err(err).Msg("daily backup failed")
			continue
		}
		m.logger.Info().Str("path", path).Msg("daily backup written")
	}
}

// untilNextMidnight returns the time to sleep before the next backup: the
// duration until the next local midnight, never less than one second.
func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	wait := next.Sub(now)
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}
