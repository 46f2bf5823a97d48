package database

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("record not found")

	ErrSessionClosed   = errors.New("session closed")
	ErrReadOnlySession = errors.New("main session is read-only")
	ErrNoTransaction   = errors.New("session has no open transaction")
	ErrTransactionOpen = errors.New("session already has an open transaction")
)

// NotFoundError reports a reference that does not resolve in a session.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
