// Package store implements the local relational cache for courses and
// todos: typed CRUD, sync-state filtering, and schema migration.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coursesync/syncengine/internal/db/migrations"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store persists courses and todos in a local SQLite database.
type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

// Open opens (creating if necessary) the SQLite database at dsn and runs
// pending migrations. dsn is a filesystem path, not a full DSN string; the
// journal-mode and foreign-key pragmas are applied the same way regardless
// of the caller's path.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store: database path is required")
	}
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("store: create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: one writer at a time keeps WAL contention away

	s := &Store{db: db, log: logrus.WithField("component", "store")}

	migrationManager := migrations.NewMigrationManager(db, logrus.StandardLogger())
	if err := migrationManager.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}

	s.log.WithField("path", dsn).Info("store initialized")
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// nowCanonical returns the current time in the canonical lexicographically
// comparable ISO-UTC form used for every updated_at this system writes.
func nowCanonical() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
