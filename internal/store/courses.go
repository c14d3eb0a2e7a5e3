package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// ListCourses returns all courses, optionally including archived ones.
func (s *Store) ListCourses(ctx context.Context, includeArchived bool) ([]*Course, error) {
	query := `
		SELECT id, title, semester, day_of_week, period, room, instructor,
		       is_archived, updated_at, sync_state, last_synced_at
		FROM courses
	`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("list_courses", err)
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, wrapErr("list_courses", err)
		}
		out = append(out, c)
	}
	return out, wrapErr("list_courses", rows.Err())
}

// GetCourse fetches a single course by id. Returns ErrNotFound if absent.
func (s *Store) GetCourse(ctx context.Context, id string) (*Course, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, semester, day_of_week, period, room, instructor,
		       is_archived, updated_at, sync_state, last_synced_at
		FROM courses WHERE id = ?
	`, id)

	c, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get_course", err)
	}
	return c, nil
}

// InsertCourse assigns an id, stamps updated_at=now and sync_state=pending,
// and inserts the new course locally.
func (s *Store) InsertCourse(ctx context.Context, req NewCourseRequest) (*Course, error) {
	c := &Course{
		ID:         uuid.New().String(),
		Title:      req.Title,
		Semester:   req.Semester,
		DayOfWeek:  req.DayOfWeek,
		Period:     req.Period,
		Room:       req.Room,
		Instructor: req.Instructor,
		IsArchived: false,
		UpdatedAt:  nowCanonical(),
		SyncState:  StatePending,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, title, semester, day_of_week, period, room, instructor,
		                      is_archived, updated_at, sync_state, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, c.ID, c.Title, c.Semester, c.DayOfWeek, c.Period, c.Room, c.Instructor,
		boolToInt(c.IsArchived), c.UpdatedAt, string(c.SyncState))
	if err != nil {
		return nil, wrapErr("insert_course", err)
	}
	return c, nil
}

// UpsertCourse performs a primary-key upsert of c's full field set. The
// Reconciler calls this (the HTTP Surface only inserts courses); the caller
// decides c.SyncState explicitly before calling, so this never
// second-guesses the caller's chosen state.
func (s *Store) UpsertCourse(ctx context.Context, c *Course) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, title, semester, day_of_week, period, room, instructor,
		                      is_archived, updated_at, sync_state, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			semester = excluded.semester,
			day_of_week = excluded.day_of_week,
			period = excluded.period,
			room = excluded.room,
			instructor = excluded.instructor,
			is_archived = excluded.is_archived,
			updated_at = excluded.updated_at,
			sync_state = excluded.sync_state,
			last_synced_at = excluded.last_synced_at
	`, c.ID, c.Title, c.Semester, c.DayOfWeek, c.Period, c.Room, c.Instructor,
		boolToInt(c.IsArchived), c.UpdatedAt, string(c.SyncState), c.LastSyncedAt)
	return wrapErr("upsert_course", err)
}

// ListCoursesBySyncState is the indexed scan used by the Reconciler's push
// phase to find locally-pending courses.
func (s *Store) ListCoursesBySyncState(ctx context.Context, state SyncState) ([]*Course, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, semester, day_of_week, period, room, instructor,
		       is_archived, updated_at, sync_state, last_synced_at
		FROM courses WHERE sync_state = ?
	`, string(state))
	if err != nil {
		return nil, wrapErr("list_courses_by_sync_state", err)
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, wrapErr("list_courses_by_sync_state", err)
		}
		out = append(out, c)
	}
	return out, wrapErr("list_courses_by_sync_state", rows.Err())
}

// ArchiveCoursesNotIn marks every non-archived, non-pending course whose id
// is absent from presentIDs as archived, and returns the ids that were
// newly archived — the set the Reconciler must cascade to todos. A pending
// course has never reached the remote, so its absence from a fetched
// snapshot is not disappearance; it is excluded from the sweep.
func (s *Store) ArchiveCoursesNotIn(ctx context.Context, presentIDs map[string]struct{}) ([]string, error) {
	courses, err := s.ListCourses(ctx, false)
	if err != nil {
		return nil, err
	}

	var archived []string
	for _, c := range courses {
		if _, ok := presentIDs[c.ID]; ok {
			continue
		}
		if c.SyncState == StatePending {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE courses SET is_archived = 1 WHERE id = ?`, c.ID); err != nil {
			return nil, wrapErr("archive_courses_not_in", err)
		}
		archived = append(archived, c.ID)
	}
	return archived, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner) (*Course, error) {
	c := &Course{}
	var isArchived int
	var room, instructor, lastSyncedAt sql.NullString
	if err := row.Scan(&c.ID, &c.Title, &c.Semester, &c.DayOfWeek, &c.Period,
		&room, &instructor, &isArchived, &c.UpdatedAt, &c.SyncState, &lastSyncedAt); err != nil {
		return nil, err
	}
	c.IsArchived = isArchived != 0
	if room.Valid {
		c.Room = &room.String
	}
	if instructor.Valid {
		c.Instructor = &instructor.String
	}
	if lastSyncedAt.Valid {
		c.LastSyncedAt = &lastSyncedAt.String
	}
	return c, nil
}
