package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrDocumentNotFound indicates a document was not found in its collection.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUserNotFound indicates a user was not found by the given identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrLogEntryNotFound indicates an audit log entry was not found.
	ErrLogEntryNotFound = errors.New("log entry not found")
)

// StoreError wraps persistence errors with operation and entity context.
type StoreError struct {
	Op     string // Operation being performed (e.g. "WorkflowByID", "Append")
	Entity string // Entity identifier if applicable
	Err    error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Entity, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, entity string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsDocumentNotFound checks if an error indicates a document was not found.
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsUserNotFound checks if an error indicates a user was not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsNotFound checks whether an error indicates any missing entity.
func IsNotFound(err error) bool {
	return IsWorkflowNotFound(err) || IsDocumentNotFound(err) || IsUserNotFound(err) ||
		errors.Is(err, ErrLogEntryNotFound)
}
