package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// ListTodos returns all todos, optionally including archived ones.
func (s *Store) ListTodos(ctx context.Context, includeArchived bool) ([]*Todo, error) {
	query := `
		SELECT id, title, due_date, status, course_id, completed_at,
		       is_archived, updated_at, sync_state, last_synced_at
		FROM todos
	`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("list_todos", err)
	}
	defer rows.Close()

	var out []*Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, wrapErr("list_todos", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("list_todos", rows.Err())
}

// GetTodo fetches a single todo by id. Returns ErrNotFound if absent.
func (s *Store) GetTodo(ctx context.Context, id string) (*Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, due_date, status, course_id, completed_at,
		       is_archived, updated_at, sync_state, last_synced_at
		FROM todos WHERE id = ?
	`, id)

	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get_todo", err)
	}
	return t, nil
}

// InsertTodo assigns an id, stamps updated_at=now and sync_state=pending,
// and inserts the new todo locally.
func (s *Store) InsertTodo(ctx context.Context, req NewTodoRequest) (*Todo, error) {
	t := &Todo{
		ID:         uuid.New().String(),
		Title:      req.Title,
		DueDate:    req.DueDate,
		Status:     req.Status,
		CourseID:   req.CourseID,
		IsArchived: false,
		UpdatedAt:  nowCanonical(),
		SyncState:  StatePending,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, due_date, status, course_id, completed_at,
		                    is_archived, updated_at, sync_state, last_synced_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, NULL)
	`, t.ID, t.Title, t.DueDate, string(t.Status), t.CourseID,
		boolToInt(t.IsArchived), t.UpdatedAt, string(t.SyncState))
	if err != nil {
		return nil, wrapErr("insert_todo", err)
	}
	return t, nil
}

// UpsertTodo performs a primary-key upsert of t's full field set. Both the
// HTTP Surface and the Reconciler call this; each decides t.SyncState
// explicitly before calling.
func (s *Store) UpsertTodo(ctx context.Context, t *Todo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, due_date, status, course_id, completed_at,
		                    is_archived, updated_at, sync_state, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			due_date = excluded.due_date,
			status = excluded.status,
			course_id = excluded.course_id,
			completed_at = excluded.completed_at,
			is_archived = excluded.is_archived,
			updated_at = excluded.updated_at,
			sync_state = excluded.sync_state,
			last_synced_at = excluded.last_synced_at
	`, t.ID, t.Title, t.DueDate, string(t.Status), t.CourseID, t.CompletedAt,
		boolToInt(t.IsArchived), t.UpdatedAt, string(t.SyncState), t.LastSyncedAt)
	return wrapErr("upsert_todo", err)
}

// UpdateTodo applies a partial patch to an existing todo, bumping updated_at
// and marking the record pending so the next push phase picks it up.
func (s *Store) UpdateTodo(ctx context.Context, id string, patch UpdateTodoRequest) (*Todo, error) {
	t, err := s.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		if *patch.Status == StatusDone {
			now := nowCanonical()
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
	}
	if patch.CourseID != nil {
		t.CourseID = *patch.CourseID
	}
	t.UpdatedAt = nowCanonical()
	t.SyncState = StatePending

	if err := s.UpsertTodo(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ArchiveTodo marks a single todo archived, bumping updated_at and marking
// it pending so the archival is pushed upstream on the next sync cycle.
func (s *Store) ArchiveTodo(ctx context.Context, id string) (*Todo, error) {
	t, err := s.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsArchived = true
	t.UpdatedAt = nowCanonical()
	t.SyncState = StatePending
	if err := s.UpsertTodo(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UnarchiveTodo clears the archived flag on a single todo.
func (s *Store) UnarchiveTodo(ctx context.Context, id string) (*Todo, error) {
	t, err := s.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsArchived = false
	t.UpdatedAt = nowCanonical()
	t.SyncState = StatePending
	if err := s.UpsertTodo(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTodosBySyncState is the indexed scan used by the Reconciler's push
// phase to find locally-pending todos.
func (s *Store) ListTodosBySyncState(ctx context.Context, state SyncState) ([]*Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, due_date, status, course_id, completed_at,
		       is_archived, updated_at, sync_state, last_synced_at
		FROM todos WHERE sync_state = ?
	`, string(state))
	if err != nil {
		return nil, wrapErr("list_todos_by_sync_state", err)
	}
	defer rows.Close()

	var out []*Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, wrapErr("list_todos_by_sync_state", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("list_todos_by_sync_state", rows.Err())
}

// ArchiveTodosByCourseIDs cascade-archives every non-archived todo whose
// course_id is in courseIDs. Used by the Reconciler when a course
// disappears from the remote.
func (s *Store) ArchiveTodosByCourseIDs(ctx context.Context, courseIDs []string) error {
	for _, cid := range courseIDs {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, title, due_date, status, course_id, completed_at,
			       is_archived, updated_at, sync_state, last_synced_at
			FROM todos WHERE course_id = ? AND is_archived = 0
		`, cid)
		if err != nil {
			return wrapErr("archive_todos_by_course_ids", err)
		}

		var todos []*Todo
		for rows.Next() {
			t, err := scanTodo(rows)
			if err != nil {
				rows.Close()
				return wrapErr("archive_todos_by_course_ids", err)
			}
			todos = append(todos, t)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return wrapErr("archive_todos_by_course_ids", err)
		}

		for _, t := range todos {
			t.IsArchived = true
			t.UpdatedAt = nowCanonical()
			t.SyncState = StatePending
			if err := s.UpsertTodo(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// ArchiveTodosNotIn marks every non-archived, non-pending todo whose id is
// absent from presentIDs as archived. Mirrors ArchiveCoursesNotIn's rule:
// disappearance from a full remote fetch is the archival signal, but only
// for a todo that has previously reached the remote — a pending todo has
// never arrived, so its absence is not disappearance.
func (s *Store) ArchiveTodosNotIn(ctx context.Context, presentIDs map[string]struct{}) ([]string, error) {
	todos, err := s.ListTodos(ctx, false)
	if err != nil {
		return nil, err
	}

	var archived []string
	for _, t := range todos {
		if _, ok := presentIDs[t.ID]; ok {
			continue
		}
		if t.SyncState == StatePending {
			continue
		}
		t.IsArchived = true
		t.UpdatedAt = nowCanonical()
		if err := s.UpsertTodo(ctx, t); err != nil {
			return nil, err
		}
		archived = append(archived, t.ID)
	}
	return archived, nil
}

func scanTodo(row rowScanner) (*Todo, error) {
	t := &Todo{}
	var isArchived int
	var status string
	var completedAt, lastSyncedAt sql.NullString
	if err := row.Scan(&t.ID, &t.Title, &t.DueDate, &status, &t.CourseID, &completedAt,
		&isArchived, &t.UpdatedAt, &t.SyncState, &lastSyncedAt); err != nil {
		return nil, err
	}
	t.Status = TodoStatus(status)
	t.IsArchived = isArchived != 0
	if completedAt.Valid {
		t.CompletedAt = &completedAt.String
	}
	if lastSyncedAt.Valid {
		t.LastSyncedAt = &lastSyncedAt.String
	}
	return t, nil
}
