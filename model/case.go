package model

import (
	"time"

	"github.com/caseflow/caseflow/internal/clock"
	"github.com/caseflow/caseflow/internal/idgen"
)

// CaseStatus represents the lifecycle of an incident case.
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusResolved   CaseStatus = "resolved"
	CaseStatusClosed     CaseStatus = "closed"
)

// Case represents a security-incident case a playbook runs against.
type Case struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Severity  string     `json:"severity,omitempty"`
	Status    CaseStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewCase creates an open case with a generated ID when none is supplied.
func NewCase(id, title string) *Case {
	if id == "" {
		id = idgen.New()
	}
	return &Case{
		ID:        id,
		Title:     title,
		Status:    CaseStatusOpen,
		CreatedAt: clock.Now(),
	}
}
