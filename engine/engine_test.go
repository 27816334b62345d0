package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/caseflow/caseflow/extension"
	"github.com/caseflow/caseflow/ledger"
	"github.com/caseflow/caseflow/model"
	"github.com/caseflow/caseflow/model/types"
	"github.com/caseflow/caseflow/policy"
	"github.com/caseflow/caseflow/service/approval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConnector counts invocations per operation and writes a canned output.
type stubConnector struct {
	name string
	mu   sync.Mutex
	// calls per operation
	calls map[string]int
	// optional per-operation failure
	fail map[string]error
	// canned output merged into the result
	output map[string]interface{}
	// emptyOutput leaves the result untouched
	emptyOutput bool
	// delay holds each invocation open to overlap with concurrent readers
	delay time.Duration
}

func newStubConnector(name string) *stubConnector {
	return &stubConnector{
		name:  name,
		calls: map[string]int{},
		fail:  map[string]error{},
	}
}

func (c *stubConnector) Name() string { return c.name }

func (c *stubConnector) Methods() types.Signatures {
	return types.Signatures{
		{Name: "run"},
		{Name: "snapshot"},
	}
}

func (c *stubConnector) Method(name string) (types.Executable, error) {
	if c.Methods().Lookup(name) == nil {
		return nil, types.NewMethodNotFoundError(name)
	}
	return func(ctx context.Context, input, output interface{}) error {
		c.mu.Lock()
		c.calls[name]++
		count := c.calls[name]
		c.mu.Unlock()
		if c.delay > 0 {
			time.Sleep(c.delay)
		}
		if err := c.fail[name]; err != nil {
			return err
		}
		if c.emptyOutput {
			return nil
		}
		result, ok := output.(map[string]interface{})
		if !ok {
			return fmt.Errorf("unexpected output type %T", output)
		}
		result["status"] = "ok"
		result["invocation"] = count
		for k, v := range c.output {
			result[k] = v
		}
		return nil
	}, nil
}

func (c *stubConnector) callCount(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[operation]
}

func newTestEngine(t *testing.T, stub *stubConnector, opts ...Option) (*Engine, *ledger.Ledger) {
	t.Helper()
	auditLedger, err := ledger.New(
		ledger.WithID("case-1"),
		ledger.WithPath(filepath.Join(t.TempDir(), "audit.log")),
	)
	require.NoError(t, err)
	connectors := extension.NewConnectors()
	connectors.Register(stub)
	e, err := New(connectors, auditLedger, opts...)
	require.NoError(t, err)
	return e, auditLedger
}

func actionsOf(entries []*ledger.Entry) []string {
	ret := make([]string, 0, len(entries))
	for _, entry := range entries {
		ret = append(ret, entry.Action)
	}
	return ret
}

func countAction(entries []*ledger.Entry, action string) int {
	count := 0
	for _, entry := range entries {
		if entry.Action == action {
			count++
		}
	}
	return count
}

func TestEngine_Run_Layers(t *testing.T) {
	stub := newStubConnector("mail")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-triage",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "mail.run"},
			"B": {Type: "mail.run", Needs: []string{"A"}},
			"C": {Type: "mail.run", Needs: []string{"A"}},
		},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-1", "Phishing triage"), nil, false)
	require.NoError(t, err)

	for _, name := range []string{"A", "B", "C"} {
		assert.EqualValues(t, model.TaskStatusCompleted, result.Tasks[name].Status, name)
	}
	assert.True(t, result.Completed())
	assert.Equal(t, 3, stub.callCount("run"))

	entries := auditLedger.Entries()
	assert.Equal(t, 2, countAction(entries, "layer_completed"), "A alone, then B and C")
	assert.Equal(t, 1, countAction(entries, "playbook_completed"))
	assert.True(t, auditLedger.VerifyChain())
}

func TestEngine_Run_ReferenceFlow(t *testing.T) {
	stub := newStubConnector("evidence")
	stub.output = map[string]interface{}{"artifact_id": "art-001"}
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-evidence",
		Tasks: map[string]*model.TaskDefinition{
			"snapshot": {Type: "evidence.snapshot"},
			"notify": {
				Type:  "evidence.run",
				Needs: []string{"snapshot"},
				Inputs: map[string]interface{}{
					"to":       "{{incident_email}}",
					"artifact": "{{snapshot.output.artifact_id}}",
				},
			},
		},
	}
	result, err := e.Run(context.Background(), playbook,
		model.NewCase("case-2", "Evidence collection"),
		map[string]interface{}{"incident_email": "soc@example.com"}, false)
	require.NoError(t, err)

	notify := result.Tasks["notify"]
	assert.EqualValues(t, model.TaskStatusCompleted, notify.Status)
	assert.Equal(t, "soc@example.com", notify.Inputs["to"])
	assert.Equal(t, "art-001", notify.Inputs["artifact"])
}

func TestEngine_Run_UnresolvedReference(t *testing.T) {
	stub := newStubConnector("mail")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-bad-ref",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "mail.run", Inputs: map[string]interface{}{"to": "{{missing}}"}},
		},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-3", "Bad reference"), nil, false)
	require.NoError(t, err)

	task := result.Tasks["A"]
	assert.EqualValues(t, model.TaskStatusFailed, task.Status)
	assert.Contains(t, task.Error, "unresolved reference")
	assert.Zero(t, stub.callCount("run"))
	assert.Equal(t, 1, countAction(auditLedger.Entries(), "task_failed"))
}

func TestEngine_Approval(t *testing.T) {
	stub := newStubConnector("router")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-isolate",
		Tasks: map[string]*model.TaskDefinition{
			"D": {Type: "router.run", ApprovalRequired: true},
		},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-4", "Host isolation"), nil, false)
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusWaitingApproval, result.Tasks["D"].Status)
	assert.Zero(t, stub.callCount("run"))

	pending, err := e.Approvals().ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "D", pending[0].TaskName)

	task, err := e.Approve(context.Background(), "D", "alice")
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusCompleted, task.Status)
	assert.Equal(t, "alice", task.ApprovedBy)
	assert.Equal(t, 1, stub.callCount("run"))

	entries := auditLedger.Entries()
	approvedAt, completedAt := -1, -1
	for i, entry := range entries {
		switch entry.Action {
		case "task_approved":
			approvedAt = i
			assert.Equal(t, "alice", entry.Actor)
		case "task_completed":
			completedAt = i
		}
	}
	require.NotEqual(t, -1, approvedAt)
	require.NotEqual(t, -1, completedAt)
	assert.Less(t, approvedAt, completedAt)
}

func TestEngine_Approval_ResumesDependents(t *testing.T) {
	stub := newStubConnector("router")
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-chain",
		Tasks: map[string]*model.TaskDefinition{
			"isolate": {Type: "router.run", ApprovalRequired: true},
			"confirm": {Type: "router.run", Needs: []string{"isolate"}},
		},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-5", "Containment"), nil, false)
	require.NoError(t, err)

	status, err := e.Status("confirm")
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusPending, status, "dependent waits while producer is suspended")

	_, err = e.Approve(context.Background(), "isolate", "bob")
	require.NoError(t, err)

	status, err = e.Status("confirm")
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusCompleted, status)
	assert.Equal(t, 2, stub.callCount("run"))
}

func TestEngine_Approve_Errors(t *testing.T) {
	stub := newStubConnector("mail")
	e, _ := newTestEngine(t, stub)

	_, err := e.Approve(context.Background(), "A", "alice")
	assert.ErrorIs(t, err, ErrNoActiveRun)

	playbook := &model.Playbook{
		ID:    "pb-plain",
		Tasks: map[string]*model.TaskDefinition{"A": {Type: "mail.run"}},
	}
	_, err = e.Run(context.Background(), playbook, model.NewCase("case-6", "Plain run"), nil, false)
	require.NoError(t, err)

	_, err = e.Approve(context.Background(), "ghost", "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Approve(context.Background(), "A", "alice")
	assert.ErrorIs(t, err, ErrNotAwaitingApproval)
}

func TestEngine_Approval_EmptyOutputBlocks(t *testing.T) {
	stub := newStubConnector("router")
	stub.emptyOutput = true
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID:    "pb-no-output",
		Tasks: map[string]*model.TaskDefinition{"D": {Type: "router.run", ApprovalRequired: true}},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-18", "Silent connector"), nil, false)
	require.NoError(t, err)

	task, err := e.Approve(context.Background(), "D", "alice")
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusBlocked, task.Status, "approved task without recorded output must not complete")
	assert.Equal(t, 1, stub.callCount("run"))

	entries := auditLedger.Entries()
	require.Equal(t, 1, countAction(entries, "task_policy_failed"))
	assert.Zero(t, countAction(entries, "task_completed"))
	for _, entry := range entries {
		if entry.Action == "task_policy_failed" {
			assert.Equal(t, "outputs-after-approval", entry.Details["rule"])
		}
	}
}

func TestEngine_WatchApprovals(t *testing.T) {
	stub := newStubConnector("router")
	e, auditLedger := newTestEngine(t, stub)

	ctx := context.Background()
	stopWatch := e.WatchApprovals(ctx)
	defer stopWatch()

	playbook := &model.Playbook{
		ID:    "pb-unattended",
		Tasks: map[string]*model.TaskDefinition{"D": {Type: "router.run", ApprovalRequired: true}},
	}
	_, err := e.Run(ctx, playbook, model.NewCase("case-19", "Unattended approval"), nil, false)
	require.NoError(t, err)

	stopAuto := approval.AutoApprove(ctx, e.Approvals(), "oncall", 5*time.Millisecond)
	defer stopAuto()

	assert.Eventually(t, func() bool {
		status, err := e.Status("D")
		return err == nil && status == model.TaskStatusCompleted
	}, time.Second, 5*time.Millisecond, "decision event should resume the task")

	result, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, "oncall", result.Tasks["D"].ApprovedBy)
	assert.Equal(t, 1, stub.callCount("run"))
	for _, entry := range auditLedger.Entries() {
		if entry.Action == "task_approved" {
			assert.Equal(t, "oncall", entry.Actor)
		}
	}
}

func TestEngine_AutoApprove(t *testing.T) {
	stub := newStubConnector("router")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID:    "pb-auto",
		Tasks: map[string]*model.TaskDefinition{"D": {Type: "router.run", ApprovalRequired: true}},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-7", "Drill"), nil, true)
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusCompleted, result.Tasks["D"].Status)
	assert.Equal(t, 1, stub.callCount("run"))
	assert.Zero(t, countAction(auditLedger.Entries(), "task_waiting_approval"))
}

func TestEngine_Idempotency(t *testing.T) {
	stub := newStubConnector("mail")
	stub.output = map[string]interface{}{"message_id": "m-1"}
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-notify",
		Tasks: map[string]*model.TaskDefinition{
			"notify": {Type: "mail.run", IdempotencyKey: "notify-case-8"},
		},
	}
	aCase := model.NewCase("case-8", "Notification")
	first, err := e.Run(context.Background(), playbook, aCase, nil, false)
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusCompleted, first.Tasks["notify"].Status)

	second, err := e.Run(context.Background(), playbook, aCase, nil, false)
	require.NoError(t, err)
	assert.EqualValues(t, model.TaskStatusSkipped, second.Tasks["notify"].Status)
	assert.Equal(t, 1, stub.callCount("run"), "side effect must not repeat")
	assert.Equal(t, "m-1", second.Results["notify"]["message_id"], "cached output is exposed")
	assert.Equal(t, 1, countAction(auditLedger.Entries(), "task_skipped_idempotent"))
}

func TestEngine_PolicyDenied(t *testing.T) {
	stub := newStubConnector("mail")
	denyAll := func(ctx context.Context, taskType, taskName string, inputs map[string]interface{}) (bool, error) {
		return false, nil
	}
	e, auditLedger := newTestEngine(t, stub, WithPolicyChecker(denyAll))

	playbook := &model.Playbook{
		ID:    "pb-denied",
		Tasks: map[string]*model.TaskDefinition{"A": {Type: "mail.run"}},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-9", "Denied"), nil, false)
	require.NoError(t, err)

	assert.EqualValues(t, model.TaskStatusBlocked, result.Tasks["A"].Status)
	assert.Zero(t, stub.callCount("run"))
	assert.Equal(t, 1, countAction(auditLedger.Entries(), "task_policy_failed"))
}

func TestEngine_PolicyGateRule(t *testing.T) {
	stub := newStubConnector("mail")
	gate := policy.NewGate()
	gate.RegisterTaskRules(policy.BlockList("mail.run"))
	e, auditLedger := newTestEngine(t, stub, WithPolicyGate(gate))

	playbook := &model.Playbook{
		ID:    "pb-blocklist",
		Tasks: map[string]*model.TaskDefinition{"A": {Type: "mail.run"}},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-10", "Block list"), nil, false)
	require.NoError(t, err)

	assert.EqualValues(t, model.TaskStatusBlocked, result.Tasks["A"].Status)
	entries := auditLedger.Entries()
	require.Equal(t, 1, countAction(entries, "task_policy_failed"))
	for _, entry := range entries {
		if entry.Action == "task_policy_failed" {
			assert.Equal(t, "type-block-list", entry.Details["rule"])
		}
	}
}

func TestEngine_DependencyBlocked(t *testing.T) {
	stub := newStubConnector("mail")
	stub.fail["run"] = fmt.Errorf("smtp unavailable")
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-cascade",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "mail.run"},
			"B": {Type: "mail.snapshot", Needs: []string{"A"}},
		},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-11", "Cascade"), nil, false)
	require.NoError(t, err)

	assert.EqualValues(t, model.TaskStatusFailed, result.Tasks["A"].Status)
	assert.EqualValues(t, model.TaskStatusBlocked, result.Tasks["B"].Status)
	assert.Contains(t, result.Tasks["B"].Error, "dependency A")
	assert.Zero(t, stub.callCount("snapshot"))
}

func TestEngine_MissingHandler(t *testing.T) {
	stub := newStubConnector("mail")
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-missing",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "ghost.run"},
			"B": {Type: "mail.reveal"},
		},
	}
	result, err := e.Run(context.Background(), playbook, model.NewCase("case-12", "Missing handler"), nil, false)
	require.NoError(t, err)

	assert.EqualValues(t, model.TaskStatusBlocked, result.Tasks["A"].Status, "unknown connector")
	assert.EqualValues(t, model.TaskStatusBlocked, result.Tasks["B"].Status, "unknown operation")
}

func TestEngine_CycleFails(t *testing.T) {
	stub := newStubConnector("mail")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-cycle",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "mail.run", Needs: []string{"B"}},
			"B": {Type: "mail.run", Needs: []string{"A"}},
		},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-13", "Cycle"), nil, false)
	require.Error(t, err)
	assert.Equal(t, 1, countAction(auditLedger.Entries(), "dag_validation_failed"))
	assert.Zero(t, stub.callCount("run"))
}

func TestEngine_RunSuspendedGuard(t *testing.T) {
	stub := newStubConnector("router")
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID:    "pb-guard",
		Tasks: map[string]*model.TaskDefinition{"D": {Type: "router.run", ApprovalRequired: true}},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-14", "Guard"), nil, false)
	require.NoError(t, err)

	_, err = e.Run(context.Background(), playbook, model.NewCase("case-15", "Second"), nil, false)
	assert.ErrorIs(t, err, ErrRunSuspended)
}

func TestEngine_TasksByStatus(t *testing.T) {
	stub := newStubConnector("mail")
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-status",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "mail.run"},
			"B": {Type: "mail.run", ApprovalRequired: true},
		},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-16", "Status"), nil, false)
	require.NoError(t, err)

	completed := e.TasksByStatus(model.TaskStatusCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "A", completed[0].Name)

	waiting := e.TasksByStatus(model.TaskStatusWaitingApproval)
	require.Len(t, waiting, 1)
	assert.Equal(t, "B", waiting[0].Name)
}

func TestEngine_ConcurrentStatusReads(t *testing.T) {
	stub := newStubConnector("mail")
	stub.delay = 2 * time.Millisecond
	e, _ := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-concurrent",
		Tasks: map[string]*model.TaskDefinition{
			"A": {Type: "mail.run"},
			"B": {Type: "mail.run", Needs: []string{"A"}},
			"C": {Type: "mail.run", Needs: []string{"A"}},
			"E": {Type: "mail.run", Needs: []string{"B", "C"}},
		},
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = e.Status("E")
			e.TasksByStatus(model.TaskStatusRunning)
			_, _ = e.Result()
		}
	}()

	result, err := e.Run(context.Background(), playbook, model.NewCase("case-20", "Concurrent reads"), nil, false)
	close(stop)
	wg.Wait()
	require.NoError(t, err)
	assert.True(t, result.Completed())
	assert.Equal(t, 4, stub.callCount("run"))
}

func TestEngine_LayerProgressCounts(t *testing.T) {
	stub := newStubConnector("router")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID: "pb-progress",
		Tasks: map[string]*model.TaskDefinition{
			"triage":  {Type: "router.run"},
			"isolate": {Type: "router.run", ApprovalRequired: true},
			"confirm": {Type: "router.run", Needs: []string{"isolate"}},
		},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-21", "Progress"), nil, false)
	require.NoError(t, err)

	var layers []*ledger.Entry
	for _, entry := range auditLedger.Entries() {
		if entry.Action == "layer_completed" {
			layers = append(layers, entry)
		}
	}
	require.Len(t, layers, 2)
	assert.EqualValues(t, 1, layers[0].Details["settled"], "triage settled")
	assert.EqualValues(t, 1, layers[0].Details["waiting_approval"], "isolate suspended")
	assert.EqualValues(t, 0, layers[1].Details["settled"])
	assert.EqualValues(t, 1, layers[1].Details["deferred"], "confirm waits on isolate")
}

func TestEngine_AuditTrailShape(t *testing.T) {
	stub := newStubConnector("mail")
	e, auditLedger := newTestEngine(t, stub)

	playbook := &model.Playbook{
		ID:    "pb-shape",
		Tasks: map[string]*model.TaskDefinition{"A": {Type: "mail.run"}},
	}
	_, err := e.Run(context.Background(), playbook, model.NewCase("case-17", "Shape"), nil, false)
	require.NoError(t, err)

	expect := []string{
		"playbook_started",
		"dag_validated",
		"task_created",
		"layer_started",
		"task_started",
		"task_completed",
		"layer_completed",
		"playbook_completed",
	}
	assert.Equal(t, expect, actionsOf(auditLedger.Entries()))
}
