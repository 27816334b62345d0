package model

import (
	"fmt"
	"time"

	"github.com/caseflow/caseflow/internal/clock"
	"github.com/caseflow/caseflow/internal/idgen"
)

// TaskStatus represents the current status of a task.
type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "pending"
	TaskStatusWaitingApproval TaskStatus = "waiting_approval"
	TaskStatusApproved        TaskStatus = "approved"
	TaskStatusRunning         TaskStatus = "running"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusFailed          TaskStatus = "failed"
	TaskStatusSkipped         TaskStatus = "skipped"
	TaskStatusBlocked         TaskStatus = "blocked"
)

// IsTerminal reports whether no further transition is possible.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped, TaskStatusBlocked:
		return true
	}
	return false
}

// Task is the runtime record of one playbook task. Status moves only through
// the transition methods below; Output is set on completion only, Error on
// failure/block only.
type Task struct {
	ID          string                 `json:"id"`
	CaseID      string                 `json:"caseId"`
	PlaybookID  string                 `json:"playbookId"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Definition  *TaskDefinition        `json:"-"`
	Status      TaskStatus             `json:"status"`
	Inputs      map[string]interface{} `json:"inputs,omitempty"`
	Output      map[string]interface{} `json:"output,omitempty"`
	Error       string                 `json:"error,omitempty"`
	ApprovedBy  string                 `json:"approvedBy,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	StartedAt   *time.Time             `json:"startedAt,omitempty"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
}

// NewTask materializes a runtime task from its definition.
func NewTask(caseID, playbookID, name string, def *TaskDefinition) *Task {
	return &Task{
		ID:         idgen.New(),
		CaseID:     caseID,
		PlaybookID: playbookID,
		Name:       name,
		Type:       def.Type,
		Definition: def,
		Status:     TaskStatusPending,
		CreatedAt:  clock.Now(),
	}
}

func (t *Task) transition(to TaskStatus, from ...TaskStatus) error {
	for _, status := range from {
		if t.Status == status {
			t.Status = to
			return nil
		}
	}
	return fmt.Errorf("task %s: invalid transition %s -> %s", t.Name, t.Status, to)
}

// MarkRunning moves the task to RUNNING; allowed from PENDING or APPROVED.
func (t *Task) MarkRunning() error {
	if err := t.transition(TaskStatusRunning, TaskStatusPending, TaskStatusApproved); err != nil {
		return err
	}
	now := clock.Now()
	t.StartedAt = &now
	return nil
}

// MarkCompleted records the output; allowed from RUNNING only.
func (t *Task) MarkCompleted(output map[string]interface{}) error {
	if err := t.transition(TaskStatusCompleted, TaskStatusRunning); err != nil {
		return err
	}
	now := clock.Now()
	t.CompletedAt = &now
	t.Output = output
	return nil
}

// MarkFailed records the error; allowed from PENDING, APPROVED or RUNNING.
func (t *Task) MarkFailed(err error) error {
	if tErr := t.transition(TaskStatusFailed, TaskStatusPending, TaskStatusApproved, TaskStatusRunning); tErr != nil {
		return tErr
	}
	now := clock.Now()
	t.CompletedAt = &now
	if err != nil {
		t.Error = err.Error()
	}
	return nil
}

// MarkWaitingApproval suspends the task until an explicit approval.
func (t *Task) MarkWaitingApproval() error {
	return t.transition(TaskStatusWaitingApproval, TaskStatusPending)
}

// MarkApproved resumes a suspended task, recording the approver identity.
func (t *Task) MarkApproved(approver string) error {
	if err := t.transition(TaskStatusApproved, TaskStatusWaitingApproval); err != nil {
		return err
	}
	t.ApprovedBy = approver
	return nil
}

// MarkSkipped terminates the task without dispatch (idempotency hit).
func (t *Task) MarkSkipped() error {
	return t.transition(TaskStatusSkipped, TaskStatusPending)
}

// MarkBlocked terminates the task on a policy denial, a missing handler or
// an upstream producer that never completed. Allowed from RUNNING as well:
// the policy gate re-evaluates after the connector returns, before the
// completion commits.
func (t *Task) MarkBlocked(reason string) error {
	if err := t.transition(TaskStatusBlocked, TaskStatusPending, TaskStatusApproved, TaskStatusRunning); err != nil {
		return err
	}
	now := clock.Now()
	t.CompletedAt = &now
	t.Error = reason
	return nil
}

// Clone returns a deep copy so callers can read task fields without holding
// a reference to the engine-owned record.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Inputs != nil {
		clone.Inputs = make(map[string]interface{}, len(t.Inputs))
		for k, v := range t.Inputs {
			clone.Inputs[k] = v
		}
	}
	if t.Output != nil {
		clone.Output = make(map[string]interface{}, len(t.Output))
		for k, v := range t.Output {
			clone.Output[k] = v
		}
	}
	if t.StartedAt != nil {
		at := *t.StartedAt
		clone.StartedAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		clone.CompletedAt = &at
	}
	return &clone
}
