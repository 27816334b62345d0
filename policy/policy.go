package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/caseflow/caseflow/model"
)

// Violation is returned when a rule denies execution. It carries the rule
// name so callers can attribute the denial in the audit trail.
type Violation struct {
	Rule    string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// CaseRule is a named predicate over a case. Returning false denies.
type CaseRule struct {
	Name    string
	When    func(aCase *model.Case) bool
	Message string
}

// TaskRule is a named predicate over (case, task). Returning false denies.
type TaskRule struct {
	Name    string
	When    func(aCase *model.Case, task *model.Task) bool
	Message string
}

// Checker is an optional external policy hook evaluated after the gate's own
// rules, distinct from the gate so deployments can plug an OPA-style engine.
type Checker func(ctx context.Context, taskType, taskName string, inputs map[string]interface{}) (bool, error)

// Gate holds ordered case and task rules. Rules run in registration order
// with no short-circuit reordering; evaluation stops at the first denial.
type Gate struct {
	caseRules []CaseRule
	taskRules []TaskRule
}

func NewGate() *Gate {
	return &Gate{}
}

// RegisterCaseRule appends a case-level rule.
func (g *Gate) RegisterCaseRule(name string, when func(*model.Case) bool, message string) *Gate {
	g.caseRules = append(g.caseRules, CaseRule{Name: name, When: when, Message: message})
	return g
}

// RegisterTaskRule appends a task-level rule.
func (g *Gate) RegisterTaskRule(name string, when func(*model.Case, *model.Task) bool, message string) *Gate {
	g.taskRules = append(g.taskRules, TaskRule{Name: name, When: when, Message: message})
	return g
}

// EvaluateCase runs all case rules in order; the first denial is returned as
// a *Violation.
func (g *Gate) EvaluateCase(aCase *model.Case) error {
	if g == nil {
		return nil
	}
	for _, rule := range g.caseRules {
		if !rule.When(aCase) {
			return &Violation{Rule: rule.Name, Message: rule.Message}
		}
	}
	return nil
}

// EvaluateTask runs all case rules followed by all task rules in
// registration order.
func (g *Gate) EvaluateTask(aCase *model.Case, task *model.Task) error {
	if g == nil {
		return nil
	}
	if err := g.EvaluateCase(aCase); err != nil {
		return err
	}
	for _, rule := range g.taskRules {
		if !rule.When(aCase, task) {
			return &Violation{Rule: rule.Name, Message: rule.Message}
		}
	}
	return nil
}

// Default returns the stock rule set. It establishes the pattern and is
// replaceable wholesale: a non-empty case title, and approved tasks must
// produce output before they may complete.
func Default() *Gate {
	gate := NewGate()
	gate.RegisterCaseRule("case-title-present",
		func(aCase *model.Case) bool {
			return aCase != nil && strings.TrimSpace(aCase.Title) != ""
		},
		"case title is required")
	gate.RegisterTaskRule("outputs-after-approval",
		func(_ *model.Case, task *model.Task) bool {
			if task.Status != model.TaskStatusCompleted {
				return true
			}
			return task.ApprovedBy == "" || len(task.Output) > 0
		},
		"approved tasks must emit outputs before completion")
	return gate
}

// BlockList returns a task rule denying the listed task types. Matching is
// case-insensitive on the fully qualified "connector.operation" name.
func BlockList(types ...string) TaskRule {
	blocked := normalize(types)
	return TaskRule{
		Name: "type-block-list",
		When: func(_ *model.Case, task *model.Task) bool {
			_, found := blocked[strings.ToLower(task.Type)]
			return !found
		},
		Message: "task type is blocked by policy",
	}
}

// AllowList returns a task rule permitting only the listed task types. An
// empty list allows everything.
func AllowList(types ...string) TaskRule {
	allowed := normalize(types)
	return TaskRule{
		Name: "type-allow-list",
		When: func(_ *model.Case, task *model.Task) bool {
			if len(allowed) == 0 {
				return true
			}
			_, found := allowed[strings.ToLower(task.Type)]
			return found
		},
		Message: "task type is not on the policy allow list",
	}
}

// RegisterTaskRules appends pre-built task rules preserving order.
func (g *Gate) RegisterTaskRules(rules ...TaskRule) *Gate {
	g.taskRules = append(g.taskRules, rules...)
	return g
}

func normalize(types []string) map[string]struct{} {
	ret := make(map[string]struct{}, len(types))
	for _, t := range types {
		ret[strings.ToLower(t)] = struct{}{}
	}
	return ret
}
