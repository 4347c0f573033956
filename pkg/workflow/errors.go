package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowInactive is returned when an action targets a workflow
	// that has been deactivated.
	ErrWorkflowInactive = errors.New("workflow is not active")

	// ErrWorkflowNotApplicable is returned when a workflow does not cover
	// the document's collection.
	ErrWorkflowNotApplicable = errors.New("workflow does not apply to collection")

	// ErrPermissionDenied is returned when the acting user is not an
	// assignee of the current step.
	ErrPermissionDenied = errors.New("user is not assigned to the current step")

	// ErrNoCurrentStep is returned when an action arrives for a document
	// with no workflow in progress.
	ErrNoCurrentStep = errors.New("document has no active workflow step")

	// ErrAlreadyAssigned is returned when a trigger targets a document
	// that already carries an in-flight workflow.
	ErrAlreadyAssigned = errors.New("document already has a workflow in progress")

	// ErrWorkflowCompleted is returned when an action arrives after the
	// workflow has finished.
	ErrWorkflowCompleted = errors.New("workflow already completed")

	ErrStepNotFound    = errors.New("step not found in workflow")
	ErrCommentRequired = errors.New("step requires a comment")
	ErrInvalidAction   = errors.New("invalid workflow action")
)

// EngineError wraps workflow engine errors with the operation and the
// document they concern.
type EngineError struct {
	Op         string
	Collection string
	DocumentID string
	Err        error
}

func (e *EngineError) Error() string {
	if e.Collection != "" || e.DocumentID != "" {
		return fmt.Sprintf("%s [%s/%s]: %v", e.Op, e.Collection, e.DocumentID, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newEngineError(op, collection, documentID string, err error) *EngineError {
	return &EngineError{Op: op, Collection: collection, DocumentID: documentID, Err: err}
}

// IsPermissionDenied checks if an error is an assignee permission failure
// that should return HTTP 403.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsConflict checks if an error is a state conflict that should return
// HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAssigned) ||
		errors.Is(err, ErrWorkflowCompleted) ||
		errors.Is(err, ErrWorkflowInactive)
}

// IsValidation checks if an error is a request problem that should return
// HTTP 400.
func IsValidation(err error) bool {
	return errors.Is(err, ErrWorkflowNotApplicable) ||
		errors.Is(err, ErrNoCurrentStep) ||
		errors.Is(err, ErrStepNotFound) ||
		errors.Is(err, ErrCommentRequired) ||
		errors.Is(err, ErrInvalidAction)
}
