package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by id finds no matching row.
var ErrNotFound = errors.New("store: not found")

// Error wraps a local persistence failure with the operation that triggered
// it. It is the single opaque error kind the Reconciler and HTTP Surface see
// from the Store; callers distinguish not-found via errors.Is(err,
// ErrNotFound), everything else is treated as fatal-for-this-cycle.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
