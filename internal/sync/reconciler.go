package sync

import (
	"context"
	"regexp"
	"time"

	"github.com/coursesync/syncengine/internal/remote"
	"github.com/coursesync/syncengine/internal/store"
	"github.com/sirupsen/logrus"
)

// canonicalTimestamp matches the fixed wire contract: a UTC ISO-8601
// timestamp with optional milliseconds, Z-suffixed. Comparison is
// lexicographic on this form, never on a parsed time.Time — see the design
// notes on why string comparison was chosen over parsed comparison.
var canonicalTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z$`)

// MetricsRecorder is the narrow observability hook the Reconciler reports
// through; nil is a valid no-op value.
type MetricsRecorder interface {
	RecordSyncCycle(stats Stats, err error, duration time.Duration)
}

// Reconciler is the engine proper: it orchestrates push-then-pull,
// detects conflicts by timestamp, cascades archival, and is the only
// component allowed to transition sync_state.
type Reconciler struct {
	store   *store.Store
	adapter remote.Adapter
	metrics MetricsRecorder
	log     *logrus.Entry
}

// New builds a Reconciler bound to a Store and a Remote Adapter. metrics
// may be nil.
func New(s *store.Store, adapter remote.Adapter, metrics MetricsRecorder) *Reconciler {
	return &Reconciler{
		store:   s,
		adapter: adapter,
		metrics: metrics,
		log:     logrus.WithField("component", "reconciler"),
	}
}

// SyncAll performs one reconciliation cycle: push local pendings, then pull
// courses, then pull todos. Phases execute strictly in that order so the
// todos pull observes the course archival state the courses pull produced.
func (r *Reconciler) SyncAll(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	coursesPushed, err := r.pushCourses(ctx)
	stats.CoursesPushed = coursesPushed
	if err != nil {
		r.finish(stats, err, start)
		return stats, err
	}

	todosPushed, err := r.pushTodos(ctx)
	stats.TodosPushed = todosPushed
	if err != nil {
		r.finish(stats, err, start)
		return stats, err
	}

	courseStats, err := r.pullCourses(ctx)
	stats.CoursesPulled, stats.CoursesSkipped = courseStats.pulled, courseStats.skipped
	if err != nil {
		r.finish(stats, err, start)
		return stats, err
	}

	todoStats, err := r.pullTodos(ctx, courseStats.archivedIDs)
	stats.TodosPulled, stats.TodosSkipped = todoStats.pulled, todoStats.skipped
	r.finish(stats, err, start)
	return stats, err
}

func (r *Reconciler) finish(stats Stats, err error, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordSyncCycle(stats, err, time.Since(start))
	}
	if err != nil {
		r.log.WithError(err).Warn("sync cycle aborted")
		return
	}
	r.log.WithFields(logrus.Fields{
		"courses_pushed": stats.CoursesPushed, "courses_pulled": stats.CoursesPulled,
		"todos_pushed": stats.TodosPushed, "todos_pulled": stats.TodosPulled,
	}).Info("sync cycle completed")
}

// pushCourses issues push_course for every locally-pending course. A
// per-record failure is logged and the record is left pending; failures
// are not counted in Stats, and one never aborts the cycle.
func (r *Reconciler) pushCourses(ctx context.Context) (int, error) {
	pendings, err := r.store.ListCoursesBySyncState(ctx, store.StatePending)
	if err != nil {
		return 0, err
	}

	pushed := 0
	for _, c := range pendings {
		if err := r.adapter.PushCourse(ctx, c); err != nil {
			r.log.WithError(err).WithField("course_id", c.ID).Warn("course push failed; left pending")
			continue
		}
		c.SyncState = store.StateSynced
		now := nowCanonical()
		c.LastSyncedAt = &now
		if err := r.store.UpsertCourse(ctx, c); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

// pushTodos mirrors pushCourses for todos.
func (r *Reconciler) pushTodos(ctx context.Context) (int, error) {
	pendings, err := r.store.ListTodosBySyncState(ctx, store.StatePending)
	if err != nil {
		return 0, err
	}

	pushed := 0
	for _, t := range pendings {
		if err := r.adapter.PushTodo(ctx, t); err != nil {
			r.log.WithError(err).WithField("todo_id", t.ID).Warn("todo push failed; left pending")
			continue
		}
		t.SyncState = store.StateSynced
		now := nowCanonical()
		t.LastSyncedAt = &now
		if err := r.store.UpsertTodo(ctx, t); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

type pullResult struct {
	pulled      int
	skipped     int
	archivedIDs []string
}

// pullCourses reconciles the full remote course snapshot against a
// once-per-cycle local snapshot, then archives any local course absent
// from the remote. Per-record local lookups inside the loop are
// deliberately avoided: a map built once is the only correctness posture
// that keeps this phase free of N+1 behavior.
func (r *Reconciler) pullCourses(ctx context.Context) (pullResult, error) {
	remoteCourses, err := r.adapter.FetchCourses(ctx)
	if err != nil {
		return pullResult{}, err
	}

	localCourses, err := r.store.ListCourses(ctx, true)
	if err != nil {
		return pullResult{}, err
	}
	localByID := make(map[string]*store.Course, len(localCourses))
	for _, c := range localCourses {
		localByID[c.ID] = c
	}

	present := make(map[string]struct{}, len(remoteCourses))
	var res pullResult

	for _, rc := range remoteCourses {
		present[rc.ID] = struct{}{}
		local, exists := localByID[rc.ID]

		if !exists {
			rc.SyncState = store.StateSynced
			now := nowCanonical()
			rc.LastSyncedAt = &now
			if err := r.store.UpsertCourse(ctx, rc); err != nil {
				return pullResult{}, err
			}
			res.pulled++
			continue
		}

		if local.SyncState == store.StatePending {
			res.skipped++
			continue
		}

		if localIsNewer(local.UpdatedAt, rc.UpdatedAt) {
			r.log.WithField("course_id", rc.ID).Warn("local course is newer than remote; skipping pull")
			res.skipped++
			continue
		}

		rc.SyncState = store.StateSynced
		now := nowCanonical()
		rc.LastSyncedAt = &now
		if err := r.store.UpsertCourse(ctx, rc); err != nil {
			return pullResult{}, err
		}
		res.pulled++
	}

	archivedIDs, err := r.store.ArchiveCoursesNotIn(ctx, present)
	if err != nil {
		return pullResult{}, err
	}
	res.archivedIDs = archivedIDs
	return res, nil
}

// pullTodos mirrors pullCourses, then cascades archival to every todo whose
// parent course was archived earlier in this cycle.
func (r *Reconciler) pullTodos(ctx context.Context, archivedCourseIDs []string) (pullResult, error) {
	remoteTodos, err := r.adapter.FetchTodos(ctx)
	if err != nil {
		return pullResult{}, err
	}

	localTodos, err := r.store.ListTodos(ctx, true)
	if err != nil {
		return pullResult{}, err
	}
	localByID := make(map[string]*store.Todo, len(localTodos))
	for _, t := range localTodos {
		localByID[t.ID] = t
	}

	present := make(map[string]struct{}, len(remoteTodos))
	var res pullResult

	for _, rt := range remoteTodos {
		present[rt.ID] = struct{}{}
		local, exists := localByID[rt.ID]

		if !exists {
			rt.SyncState = store.StateSynced
			now := nowCanonical()
			rt.LastSyncedAt = &now
			if err := r.store.UpsertTodo(ctx, rt); err != nil {
				return pullResult{}, err
			}
			res.pulled++
			continue
		}

		if local.SyncState == store.StatePending {
			res.skipped++
			continue
		}

		if localIsNewer(local.UpdatedAt, rt.UpdatedAt) {
			r.log.WithField("todo_id", rt.ID).Warn("local todo is newer than remote; skipping pull")
			res.skipped++
			continue
		}

		rt.SyncState = store.StateSynced
		now := nowCanonical()
		rt.LastSyncedAt = &now
		if err := r.store.UpsertTodo(ctx, rt); err != nil {
			return pullResult{}, err
		}
		res.pulled++
	}

	if _, err := r.store.ArchiveTodosNotIn(ctx, present); err != nil {
		return pullResult{}, err
	}

	if err := r.store.ArchiveTodosByCourseIDs(ctx, archivedCourseIDs); err != nil {
		return pullResult{}, err
	}

	return res, nil
}

// localIsNewer reports whether L should be kept over R during a pull.
// Timestamps that fail to match the canonical form are treated as missing;
// when either side is missing, the remote wins (pull is authoritative).
func localIsNewer(localUpdatedAt, remoteUpdatedAt string) bool {
	localValid := canonicalTimestamp.MatchString(localUpdatedAt)
	remoteValid := canonicalTimestamp.MatchString(remoteUpdatedAt)
	if !localValid || !remoteValid {
		return false
	}
	return localUpdatedAt > remoteUpdatedAt
}

func nowCanonical() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
