// Package remote speaks the remote workspace-database's HTTP API and maps
// its wire format to the domain entities the Reconciler operates on.
package remote

import (
	"context"

	"github.com/coursesync/syncengine/internal/store"
)

// Adapter is the narrow capability surface the Reconciler depends on. HTTP
// types never cross this boundary; tests substitute EmptyAdapter or
// ProgrammableAdapter for the HTTP-backed implementation.
type Adapter interface {
	FetchCourses(ctx context.Context) ([]*store.Course, error)
	FetchTodos(ctx context.Context) ([]*store.Todo, error)
	PushCourse(ctx context.Context, c *store.Course) error
	PushTodo(ctx context.Context, t *store.Todo) error
}
