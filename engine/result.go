package engine

import (
	"sort"

	"github.com/caseflow/caseflow/model"
)

// RunResult is a point-in-time snapshot of a playbook run: every task in its
// current state plus the outputs of completed tasks keyed by task name.
type RunResult struct {
	CaseID     string                            `json:"caseId"`
	PlaybookID string                            `json:"playbookId"`
	Tasks      map[string]*model.Task            `json:"tasks"`
	Results    map[string]map[string]interface{} `json:"results"`
}

// Completed reports whether every task reached a satisfied terminal state
// (COMPLETED or SKIPPED).
func (r *RunResult) Completed() bool {
	for _, task := range r.Tasks {
		if task.Status != model.TaskStatusCompleted && task.Status != model.TaskStatusSkipped {
			return false
		}
	}
	return true
}

// TaskNames returns the task names in lexical order.
func (r *RunResult) TaskNames() []string {
	names := make([]string, 0, len(r.Tasks))
	for name := range r.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
