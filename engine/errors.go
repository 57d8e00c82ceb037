package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// PersistenceError is the caller-facing wrapper for lower-level
// persistence failures translated through a session.
type PersistenceError struct {
	Session uuid.UUID
	Err     error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error in session %s: %v", e.Session, e.Err)
}

// Unwrap returns the underlying error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
