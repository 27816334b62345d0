package model

// TaskDefinition is the immutable declarative description of one playbook
// task. Type addresses a connector operation as "connector.operation".
// Inputs may contain literal values and textual references of the form
// {{context_var}} or {{task.output.field}}.
type TaskDefinition struct {
	Type             string                 `json:"type" yaml:"type"`
	Inputs           map[string]interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Needs            []string               `json:"needs,omitempty" yaml:"needs,omitempty"`
	ApprovalRequired bool                   `json:"approvalRequired,omitempty" yaml:"approval_required,omitempty"`
	IdempotencyKey   string                 `json:"idempotencyKey,omitempty" yaml:"idempotency_key,omitempty"`
}

// Playbook is a named set of task definitions and their dependency edges.
type Playbook struct {
	ID    string                     `json:"playbookId" yaml:"playbook_id"`
	Tasks map[string]*TaskDefinition `json:"tasks" yaml:"tasks"`
}

// WithTask adds a task definition, allocating the map on first use.
func (p *Playbook) WithTask(name string, def *TaskDefinition) *Playbook {
	if p.Tasks == nil {
		p.Tasks = make(map[string]*TaskDefinition)
	}
	p.Tasks[name] = def
	return p
}
