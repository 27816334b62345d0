package approval

import (
	"time"
)

// Event envelope published on the service queue.
type Event struct {
	Topic   string            // see topic constants below
	Data    interface{}       // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"`
}

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicDecisionCreated = "decision.created"
)

// Request represents a task waiting for human approval.
type Request struct {
	ID        string                 `json:"id"` // task identity, primary key
	CaseID    string                 `json:"caseId"`
	TaskName  string                 `json:"taskName"`
	Action    string                 `json:"action"` // fully qualified "connector.operation"
	Args      map[string]interface{} `json:"args,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Decision represents the approval outcome for a request.
type Decision struct {
	ID        string    `json:"id"` // same as request.ID
	Approved  bool      `json:"approved"`
	Approver  string    `json:"approver"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}
