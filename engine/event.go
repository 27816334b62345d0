package engine

import (
	"time"

	"github.com/caseflow/caseflow/model"
)

// TaskEvent is published to the event queue whenever a task reaches a new
// status, so external listeners can follow a run without polling.
type TaskEvent struct {
	CaseID     string           `json:"caseId"`
	PlaybookID string           `json:"playbookId"`
	TaskName   string           `json:"taskName"`
	TaskType   string           `json:"taskType"`
	Status     model.TaskStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
	At         time.Time        `json:"at"`
}
