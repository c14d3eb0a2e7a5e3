// Package sync implements the Reconciler: the push/pull engine that
// reconciles the local Store against the remote Adapter and is the sole
// owner of sync-state transitions.
package sync

// Stats reports what one sync_all cycle did. It is observable by HTTP
// clients via POST /sync.
type Stats struct {
	CoursesPushed  int `json:"courses_pushed"`
	CoursesPulled  int `json:"courses_pulled"`
	CoursesSkipped int `json:"courses_skipped"`
	TodosPushed    int `json:"todos_pushed"`
	TodosPulled    int `json:"todos_pulled"`
	TodosSkipped   int `json:"todos_skipped"`
}
