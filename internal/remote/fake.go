package remote

import (
	"context"
	"sync"

	"github.com/coursesync/syncengine/internal/store"
)

// EmptyAdapter returns an empty result for every fetch and records every
// push it receives. Used by archival and local-preservation tests.
type EmptyAdapter struct {
	mu            sync.Mutex
	PushedCourses []*store.Course
	PushedTodos   []*store.Todo
}

func NewEmptyAdapter() *EmptyAdapter {
	return &EmptyAdapter{}
}

func (a *EmptyAdapter) FetchCourses(ctx context.Context) ([]*store.Course, error) {
	return nil, nil
}

func (a *EmptyAdapter) FetchTodos(ctx context.Context) ([]*store.Todo, error) {
	return nil, nil
}

func (a *EmptyAdapter) PushCourse(ctx context.Context, c *store.Course) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *c
	a.PushedCourses = append(a.PushedCourses, &cp)
	return nil
}

func (a *EmptyAdapter) PushTodo(ctx context.Context, t *store.Todo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *t
	a.PushedTodos = append(a.PushedTodos, &cp)
	return nil
}

// ProgrammableAdapter returns caller-injected records from its fetch
// methods and records every push it receives, in order, so tests can
// assert push-before-pull ordering.
type ProgrammableAdapter struct {
	mu sync.Mutex

	Courses []*store.Course
	Todos   []*store.Todo

	PushedCourses []*store.Course
	PushedTodos   []*store.Todo
	CallLog       []string

	FetchCoursesErr error
	FetchTodosErr   error
	PushCourseErr   error
	PushTodoErr     error
}

func NewProgrammableAdapter() *ProgrammableAdapter {
	return &ProgrammableAdapter{}
}

func (a *ProgrammableAdapter) FetchCourses(ctx context.Context) ([]*store.Course, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CallLog = append(a.CallLog, "fetch_courses")
	if a.FetchCoursesErr != nil {
		return nil, a.FetchCoursesErr
	}
	out := make([]*store.Course, len(a.Courses))
	for i, c := range a.Courses {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func (a *ProgrammableAdapter) FetchTodos(ctx context.Context) ([]*store.Todo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CallLog = append(a.CallLog, "fetch_todos")
	if a.FetchTodosErr != nil {
		return nil, a.FetchTodosErr
	}
	out := make([]*store.Todo, len(a.Todos))
	for i, t := range a.Todos {
		cp := *t
		out[i] = &cp
	}
	return out, nil
}

func (a *ProgrammableAdapter) PushCourse(ctx context.Context, c *store.Course) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CallLog = append(a.CallLog, "push_course:"+c.ID)
	if a.PushCourseErr != nil {
		return a.PushCourseErr
	}
	cp := *c
	a.PushedCourses = append(a.PushedCourses, &cp)
	return nil
}

func (a *ProgrammableAdapter) PushTodo(ctx context.Context, t *store.Todo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CallLog = append(a.CallLog, "push_todo:"+t.ID)
	if a.PushTodoErr != nil {
		return a.PushTodoErr
	}
	cp := *t
	a.PushedTodos = append(a.PushedTodos, &cp)
	return nil
}
