package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the named task does not exist in the
	// current run.
	ErrNotFound = errors.New("engine: task not found")

	// ErrNotAwaitingApproval is returned when Approve targets a task that is
	// not suspended in WAITING_APPROVAL.
	ErrNotAwaitingApproval = errors.New("engine: task not awaiting approval")

	// ErrNoActiveRun is returned when Approve or Status is called before any
	// playbook has run.
	ErrNoActiveRun = errors.New("engine: no active run")

	// ErrRunSuspended is returned when a new run starts while the previous
	// one still holds tasks in WAITING_APPROVAL.
	ErrRunSuspended = errors.New("engine: previous run awaits approval")
)

// UnresolvedReferenceError indicates a task input referenced a context
// variable or sibling output that does not exist. References point at
// definition errors, so the task fails instead of passing the text through.
type UnresolvedReferenceError struct {
	Reference string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference {{%s}}", e.Reference)
}
