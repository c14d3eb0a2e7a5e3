package store_test

import (
	"context"
	"testing"

	"github.com/coursesync/syncengine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCourseCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("InsertAndGet", func(t *testing.T) {
		room := "101"
		c, err := s.InsertCourse(ctx, store.NewCourseRequest{
			Title: "Algorithms", Semester: "2026-spring",
			DayOfWeek: "Mon", Period: 2, Room: &room,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, store.StatePending, c.SyncState)
		assert.False(t, c.IsArchived)

		fetched, err := s.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Title, fetched.Title)
		assert.Equal(t, "101", *fetched.Room)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.GetCourse(ctx, "does-not-exist")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ListExcludesArchivedByDefault", func(t *testing.T) {
		c, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "Networks", Semester: "2026-spring", DayOfWeek: "Tue", Period: 1})
		require.NoError(t, err)
		c.IsArchived = true
		require.NoError(t, s.UpsertCourse(ctx, c))

		active, err := s.ListCourses(ctx, false)
		require.NoError(t, err)
		for _, got := range active {
			assert.NotEqual(t, c.ID, got.ID)
		}

		all, err := s.ListCourses(ctx, true)
		require.NoError(t, err)
		found := false
		for _, got := range all {
			if got.ID == c.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("UpsertPreservesCallerSyncState", func(t *testing.T) {
		c, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "DB Systems", Semester: "2026-spring", DayOfWeek: "Wed", Period: 3})
		require.NoError(t, err)

		c.SyncState = store.StateSynced
		require.NoError(t, s.UpsertCourse(ctx, c))

		got, err := s.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, store.StateSynced, got.SyncState)
	})

	t.Run("ArchiveCoursesNotInCascadesCandidateSet", func(t *testing.T) {
		keep, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "Keep", Semester: "2026-spring", DayOfWeek: "Thu", Period: 1})
		require.NoError(t, err)
		keep.SyncState = store.StateSynced
		require.NoError(t, s.UpsertCourse(ctx, keep))

		drop, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "Drop", Semester: "2026-spring", DayOfWeek: "Fri", Period: 1})
		require.NoError(t, err)
		drop.SyncState = store.StateSynced
		require.NoError(t, s.UpsertCourse(ctx, drop))

		archived, err := s.ArchiveCoursesNotIn(ctx, map[string]struct{}{keep.ID: {}})
		require.NoError(t, err)
		assert.Contains(t, archived, drop.ID)
		assert.NotContains(t, archived, keep.ID)

		got, err := s.GetCourse(ctx, drop.ID)
		require.NoError(t, err)
		assert.True(t, got.IsArchived)
	})

	t.Run("ArchiveCoursesNotInExcludesPendingCourses", func(t *testing.T) {
		pending, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "Never Pushed", Semester: "2026-spring", DayOfWeek: "Sat", Period: 1})
		require.NoError(t, err)

		archived, err := s.ArchiveCoursesNotIn(ctx, map[string]struct{}{})
		require.NoError(t, err)
		assert.NotContains(t, archived, pending.ID)

		got, err := s.GetCourse(ctx, pending.ID)
		require.NoError(t, err)
		assert.False(t, got.IsArchived)
	})
}

func TestTodoCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	course, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "Algorithms", Semester: "2026-spring", DayOfWeek: "Mon", Period: 2})
	require.NoError(t, err)

	t.Run("InsertAndGet", func(t *testing.T) {
		td, err := s.InsertTodo(ctx, store.NewTodoRequest{
			Title: "Problem set 1", DueDate: "2026-08-15", Status: store.StatusNotStarted, CourseID: course.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, store.StatePending, td.SyncState)

		got, err := s.GetTodo(ctx, td.ID)
		require.NoError(t, err)
		assert.Equal(t, td.Title, got.Title)
	})

	t.Run("UpdateSetsCompletedAtOnDone", func(t *testing.T) {
		td, err := s.InsertTodo(ctx, store.NewTodoRequest{Title: "Lab 2", DueDate: "2026-08-20", Status: store.StatusNotStarted, CourseID: course.ID})
		require.NoError(t, err)

		done := store.StatusDone
		updated, err := s.UpdateTodo(ctx, td.ID, store.UpdateTodoRequest{Status: &done})
		require.NoError(t, err)
		assert.Equal(t, store.StatusDone, updated.Status)
		require.NotNil(t, updated.CompletedAt)
		assert.Equal(t, store.StatePending, updated.SyncState)
	})

	t.Run("UpdateClearsCompletedAtWhenLeavingDone", func(t *testing.T) {
		td, err := s.InsertTodo(ctx, store.NewTodoRequest{Title: "Quiz 1", DueDate: "2026-08-22", Status: store.StatusDone, CourseID: course.ID})
		require.NoError(t, err)
		completed := "2026-08-22T00:00:00.000Z"
		td.CompletedAt = &completed
		require.NoError(t, s.UpsertTodo(ctx, td))

		inProgress := store.StatusInProgress
		updated, err := s.UpdateTodo(ctx, td.ID, store.UpdateTodoRequest{Status: &inProgress})
		require.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("ArchiveAndUnarchive", func(t *testing.T) {
		td, err := s.InsertTodo(ctx, store.NewTodoRequest{Title: "Essay", DueDate: "2026-09-01", Status: store.StatusNotStarted, CourseID: course.ID})
		require.NoError(t, err)

		archived, err := s.ArchiveTodo(ctx, td.ID)
		require.NoError(t, err)
		assert.True(t, archived.IsArchived)

		unarchived, err := s.UnarchiveTodo(ctx, td.ID)
		require.NoError(t, err)
		assert.False(t, unarchived.IsArchived)
	})

	t.Run("ArchiveTodosByCourseIDsCascades", func(t *testing.T) {
		other, err := s.InsertCourse(ctx, store.NewCourseRequest{Title: "Cascade Target", Semester: "2026-spring", DayOfWeek: "Sat", Period: 4})
		require.NoError(t, err)
		td, err := s.InsertTodo(ctx, store.NewTodoRequest{Title: "Cascade todo", DueDate: "2026-09-05", Status: store.StatusNotStarted, CourseID: other.ID})
		require.NoError(t, err)

		require.NoError(t, s.ArchiveTodosByCourseIDs(ctx, []string{other.ID}))

		got, err := s.GetTodo(ctx, td.ID)
		require.NoError(t, err)
		assert.True(t, got.IsArchived)
		assert.Equal(t, store.StatePending, got.SyncState)
	})

	t.Run("ListBySyncState", func(t *testing.T) {
		pending, err := s.ListTodosBySyncState(ctx, store.StatePending)
		require.NoError(t, err)
		assert.NotEmpty(t, pending)
		for _, td := range pending {
			assert.Equal(t, store.StatePending, td.SyncState)
		}
	})

	t.Run("ArchiveTodosNotInExcludesPendingTodos", func(t *testing.T) {
		pending, err := s.InsertTodo(ctx, store.NewTodoRequest{Title: "Never Pushed", DueDate: "2026-09-10", Status: store.StatusNotStarted, CourseID: course.ID})
		require.NoError(t, err)

		archived, err := s.ArchiveTodosNotIn(ctx, map[string]struct{}{})
		require.NoError(t, err)
		assert.NotContains(t, archived, pending.ID)

		got, err := s.GetTodo(ctx, pending.ID)
		require.NoError(t, err)
		assert.False(t, got.IsArchived)
	})
}
