package store

// SyncState is the three-way sync lifecycle state a record can be in.
type SyncState string

const (
	StateSynced   SyncState = "synced"
	StatePending  SyncState = "pending"
	StateConflict SyncState = "conflict"
)

// Valid reports whether s is one of the three allowed sync states.
func (s SyncState) Valid() bool {
	switch s {
	case StateSynced, StatePending, StateConflict:
		return true
	default:
		return false
	}
}

// TodoStatus is one of the four Japanese-labelled progress states a todo
// can carry. The labels are part of the wire contract, not display text.
type TodoStatus string

const (
	StatusNotStarted TodoStatus = "未着手"
	StatusInProgress TodoStatus = "進行中"
	StatusReview     TodoStatus = "最終確認"
	StatusDone       TodoStatus = "完了"
)

// Course is a master record representing a class; parent of todos.
type Course struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Semester     string     `json:"semester"`
	DayOfWeek    string     `json:"day_of_week"`
	Period       int        `json:"period"`
	Room         *string    `json:"room,omitempty"`
	Instructor   *string    `json:"instructor,omitempty"`
	IsArchived   bool       `json:"is_archived"`
	UpdatedAt    string     `json:"updated_at"`
	SyncState    SyncState  `json:"sync_state"`
	LastSyncedAt *string    `json:"last_synced_at,omitempty"`
}

// Todo is an assignment record bound to exactly one course.
type Todo struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	DueDate      string     `json:"due_date"`
	Status       TodoStatus `json:"status"`
	CourseID     string     `json:"course_id"`
	CompletedAt  *string    `json:"completed_at,omitempty"`
	IsArchived   bool       `json:"is_archived"`
	UpdatedAt    string     `json:"updated_at"`
	SyncState    SyncState  `json:"sync_state"`
	LastSyncedAt *string    `json:"last_synced_at,omitempty"`
}

// NewCourseRequest is the payload accepted by the course-creation endpoint.
type NewCourseRequest struct {
	Title      string  `json:"title"`
	Semester   string  `json:"semester"`
	DayOfWeek  string  `json:"day_of_week"`
	Period     int     `json:"period"`
	Room       *string `json:"room,omitempty"`
	Instructor *string `json:"instructor,omitempty"`
}

// NewTodoRequest is the payload accepted by the todo-creation endpoint.
type NewTodoRequest struct {
	Title    string     `json:"title"`
	DueDate  string     `json:"due_date"`
	Status   TodoStatus `json:"status,omitempty"`
	CourseID string     `json:"course_id"`
}

// UpdateTodoRequest is a partial patch; nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title    *string     `json:"title,omitempty"`
	DueDate  *string     `json:"due_date,omitempty"`
	Status   *TodoStatus `json:"status,omitempty"`
	CourseID *string     `json:"course_id,omitempty"`
}
