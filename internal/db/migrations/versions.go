package migrations

import (
	"database/sql"
)

// getAllMigrations returns all available migrations, in order.
func getAllMigrations() []Migration {
	return []Migration{
		migration1_CoursesAndTodos(),
	}
}

// migration1_CoursesAndTodos creates the courses and todos tables along with
// the indices the Reconciler and Store rely on for indexed sync-state scans.
func migration1_CoursesAndTodos() Migration {
	return Migration{
		Version:     1,
		Description: "create courses and todos tables",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS courses (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					semester TEXT NOT NULL,
					day_of_week TEXT NOT NULL,
					period INTEGER NOT NULL,
					room TEXT,
					instructor TEXT,
					is_archived INTEGER NOT NULL DEFAULT 0,
					updated_at TEXT NOT NULL,
					sync_state TEXT NOT NULL CHECK (sync_state IN ('synced','pending','conflict')),
					last_synced_at TEXT
				)
			`); err != nil {
				return err
			}

			if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_courses_sync_state ON courses(sync_state)`); err != nil {
				return err
			}

			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS todos (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					due_date TEXT NOT NULL,
					status TEXT NOT NULL,
					course_id TEXT NOT NULL REFERENCES courses(id),
					completed_at TEXT,
					is_archived INTEGER NOT NULL DEFAULT 0,
					updated_at TEXT NOT NULL,
					sync_state TEXT NOT NULL CHECK (sync_state IN ('synced','pending','conflict')),
					last_synced_at TEXT
				)
			`); err != nil {
				return err
			}

			if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_todos_sync_state ON todos(sync_state)`); err != nil {
				return err
			}
			if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_todos_course_id ON todos(course_id)`); err != nil {
				return err
			}
			if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status)`); err != nil {
				return err
			}

			return nil
		},
	}
}
