package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow/model"
)

func TestGate_Default(t *testing.T) {
	gate := Default()

	aCase := model.NewCase("case-1", "Compromised mailbox")
	assert.NoError(t, gate.EvaluateCase(aCase))

	blank := model.NewCase("case-2", "   ")
	err := gate.EvaluateCase(blank)
	require.Error(t, err)
	violation, ok := err.(*Violation)
	require.True(t, ok)
	assert.Equal(t, "case-title-present", violation.Rule)
}

func TestGate_OutputsAfterApproval(t *testing.T) {
	gate := Default()
	aCase := model.NewCase("case-1", "Compromised mailbox")

	task := model.NewTask(aCase.ID, "pb", "rotate", &model.TaskDefinition{Type: "vault.rotate"})
	require.NoError(t, task.MarkWaitingApproval())
	require.NoError(t, task.MarkApproved("alice"))
	require.NoError(t, task.MarkRunning())
	require.NoError(t, task.MarkCompleted(map[string]interface{}{}))

	err := gate.EvaluateTask(aCase, task)
	require.Error(t, err)
	assert.Equal(t, "outputs-after-approval", err.(*Violation).Rule)

	task.Output = map[string]interface{}{"rotated": true}
	assert.NoError(t, gate.EvaluateTask(aCase, task))
}

func TestGate_RegistrationOrder(t *testing.T) {
	var evaluated []string
	gate := NewGate()
	gate.RegisterTaskRule("first", func(*model.Case, *model.Task) bool {
		evaluated = append(evaluated, "first")
		return true
	}, "")
	gate.RegisterTaskRule("deny", func(*model.Case, *model.Task) bool {
		evaluated = append(evaluated, "deny")
		return false
	}, "denied here")
	gate.RegisterTaskRule("never", func(*model.Case, *model.Task) bool {
		evaluated = append(evaluated, "never")
		return true
	}, "")

	aCase := model.NewCase("case-1", "title")
	task := model.NewTask(aCase.ID, "pb", "t", &model.TaskDefinition{Type: "nop.run"})
	err := gate.EvaluateTask(aCase, task)
	require.Error(t, err)
	assert.Equal(t, "deny", err.(*Violation).Rule)
	assert.Equal(t, []string{"first", "deny"}, evaluated)
}

func TestGate_AllowAndBlockLists(t *testing.T) {
	aCase := model.NewCase("case-1", "title")
	isolate := model.NewTask(aCase.ID, "pb", "isolate", &model.TaskDefinition{Type: "router.isolate"})
	wipe := model.NewTask(aCase.ID, "pb", "wipe", &model.TaskDefinition{Type: "device.wipe"})

	gate := NewGate().RegisterTaskRules(BlockList("device.wipe"))
	assert.NoError(t, gate.EvaluateTask(aCase, isolate))
	err := gate.EvaluateTask(aCase, wipe)
	require.Error(t, err)
	assert.Equal(t, "type-block-list", err.(*Violation).Rule)

	gate = NewGate().RegisterTaskRules(AllowList("Router.Isolate"))
	assert.NoError(t, gate.EvaluateTask(aCase, isolate))
	assert.Error(t, gate.EvaluateTask(aCase, wipe))
}
