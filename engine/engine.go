package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/caseflow/caseflow/extension"
	"github.com/caseflow/caseflow/graph"
	"github.com/caseflow/caseflow/idempotency"
	imemory "github.com/caseflow/caseflow/idempotency/memory"
	"github.com/caseflow/caseflow/ledger"
	"github.com/caseflow/caseflow/model"
	"github.com/caseflow/caseflow/model/types"
	"github.com/caseflow/caseflow/policy"
	"github.com/caseflow/caseflow/service/approval"
	amemory "github.com/caseflow/caseflow/service/approval/memory"
	"github.com/caseflow/caseflow/service/messaging"
	"github.com/caseflow/caseflow/tracing"
	"github.com/viant/structology/conv"
)

// actorOrchestrator identifies engine-originated audit entries; approvals are
// attributed to the approver instead.
const actorOrchestrator = "orchestrator"

// Config holds engine tuning knobs.
type Config struct {
	// WorkerCount bounds concurrent task execution within a layer.
	WorkerCount int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{WorkerCount: 5}
}

// Validate checks config invariants.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("workerCount must be positive, had: %d", c.WorkerCount)
	}
	return nil
}

// Option customizes the engine.
type Option func(*Engine)

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// WithPolicyGate replaces the default policy gate.
func WithPolicyGate(gate *policy.Gate) Option {
	return func(e *Engine) {
		e.gate = gate
	}
}

// WithPolicyChecker sets the external policy hook evaluated after the gate.
func WithPolicyChecker(checker policy.Checker) Option {
	return func(e *Engine) {
		e.checker = checker
	}
}

// WithIdempotencyStore replaces the default in-memory idempotency store.
func WithIdempotencyStore(store idempotency.Store) Option {
	return func(e *Engine) {
		e.idempotency = store
	}
}

// WithApprovalService replaces the default in-memory approval service.
func WithApprovalService(service approval.Service) Option {
	return func(e *Engine) {
		e.approvals = service
	}
}

// WithEventQueue enables task lifecycle event publication. The queue must be
// consumed; the engine does not drop events.
func WithEventQueue(queue messaging.Queue[TaskEvent]) Option {
	return func(e *Engine) {
		e.events = queue
	}
}

// Engine executes playbooks against a case. All audit entries flow through
// the supplied ledger; an audit write failure aborts the run.
type Engine struct {
	config      Config
	connectors  *extension.Connectors
	ledger      *ledger.Ledger
	gate        *policy.Gate
	checker     policy.Checker
	idempotency idempotency.Store
	approvals   approval.Service
	events      messaging.Queue[TaskEvent]
	converter   *conv.Converter

	mu  sync.Mutex
	run *run
}

// New creates an engine bound to a connector registry and an audit ledger.
func New(connectors *extension.Connectors, auditLedger *ledger.Ledger, opts ...Option) (*Engine, error) {
	if connectors == nil {
		return nil, fmt.Errorf("connectors were nil")
	}
	if auditLedger == nil {
		return nil, fmt.Errorf("ledger was nil")
	}
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true

	e := &Engine{
		config:      DefaultConfig(),
		connectors:  connectors,
		ledger:      auditLedger,
		gate:        policy.Default(),
		idempotency: imemory.New(),
		approvals:   amemory.New(),
		converter:   conv.NewConverter(options),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Approvals exposes the approval service so callers can list pending
// requests or consume its event queue.
func (e *Engine) Approvals() approval.Service {
	return e.approvals
}

// run is the mutable state of one playbook execution.
type run struct {
	playbook *model.Playbook
	kase     *model.Case
	context  map[string]interface{}
	auto     bool
	layers   graph.Layers

	mu      sync.RWMutex
	tasks   map[string]*model.Task
	results map[string]map[string]interface{}
	fatal   error

	resumeMu sync.Mutex
}

func (r *run) task(name string) *model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks[name]
}

// update serializes task mutations against snapshot/status readers.
func (r *run) update(f func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return f()
}

func (r *run) statusOf(name string) (model.TaskStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task := r.tasks[name]
	if task == nil {
		return "", false
	}
	return task.Status, true
}

func (r *run) taskNameByID(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, task := range r.tasks {
		if task.ID == id {
			return name, true
		}
	}
	return "", false
}

func (r *run) layerProgress(layer []string) (settled, waiting, deferred int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range layer {
		task := r.tasks[name]
		switch {
		case task == nil:
		case task.Status.IsTerminal():
			settled++
		case task.Status == model.TaskStatusWaitingApproval:
			waiting++
		default:
			deferred++
		}
	}
	return settled, waiting, deferred
}

func (r *run) setResult(name string, output map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[name] = output
}

func (r *run) output(name string) (map[string]interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	output, ok := r.results[name]
	return output, ok
}

func (r *run) setFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatal == nil {
		r.fatal = err
	}
}

func (r *run) fatalErr() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fatal
}

func (r *run) suspended() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, task := range r.tasks {
		if task.Status == model.TaskStatusWaitingApproval {
			return true
		}
	}
	return false
}

func (r *run) snapshot() *RunResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := &RunResult{
		CaseID:     r.kase.ID,
		PlaybookID: r.playbook.ID,
		Tasks:      make(map[string]*model.Task, len(r.tasks)),
		Results:    make(map[string]map[string]interface{}, len(r.results)),
	}
	for name, task := range r.tasks {
		ret.Tasks[name] = task.Clone()
	}
	for name, output := range r.results {
		copied := make(map[string]interface{}, len(output))
		for k, v := range output {
			copied[k] = v
		}
		ret.Results[name] = copied
	}
	return ret
}

// Run executes the playbook layer by layer. Tasks requiring approval suspend
// in WAITING_APPROVAL unless autoApprove is set; Run still returns, and
// Approve resumes them later. An audit write failure aborts the run.
func (e *Engine) Run(ctx context.Context, playbook *model.Playbook, aCase *model.Case, contextVars map[string]interface{}, autoApprove bool) (*RunResult, error) {
	if playbook == nil {
		return nil, fmt.Errorf("playbook was nil")
	}
	if aCase == nil {
		return nil, fmt.Errorf("case was nil")
	}
	if contextVars == nil {
		contextVars = map[string]interface{}{}
	}

	r := &run{
		playbook: playbook,
		kase:     aCase,
		context:  contextVars,
		auto:     autoApprove,
		tasks:    make(map[string]*model.Task, len(playbook.Tasks)),
		results:  make(map[string]map[string]interface{}),
	}
	e.mu.Lock()
	if e.run != nil && e.run.suspended() {
		e.mu.Unlock()
		return nil, ErrRunSuspended
	}
	e.run = r
	e.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "playbook.run")
	span.WithAttributes(map[string]string{"playbook.id": playbook.ID, "case.id": aCase.ID})
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = e.audit(r, actorOrchestrator, "playbook_started", map[string]interface{}{
		"playbook": playbook.ID,
		"case":     aCase.ID,
		"tasks":    len(playbook.Tasks),
	}); err != nil {
		return nil, err
	}

	r.layers, err = graph.Compile(playbook.Tasks)
	if err != nil {
		_ = e.audit(r, actorOrchestrator, "dag_validation_failed", map[string]interface{}{
			"playbook": playbook.ID,
			"error":    err.Error(),
		})
		return nil, err
	}
	if err = e.audit(r, actorOrchestrator, "dag_validated", map[string]interface{}{
		"playbook": playbook.ID,
		"layers":   len(r.layers),
	}); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(playbook.Tasks))
	for name := range playbook.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		task := model.NewTask(aCase.ID, playbook.ID, name, playbook.Tasks[name])
		r.mu.Lock()
		r.tasks[name] = task
		r.mu.Unlock()
		if err = e.audit(r, actorOrchestrator, "task_created", map[string]interface{}{
			"task": name,
			"type": task.Type,
		}); err != nil {
			return nil, err
		}
	}

	for i, layer := range r.layers {
		if err = e.audit(r, actorOrchestrator, "layer_started", map[string]interface{}{
			"layer": i,
			"tasks": append([]string{}, layer...),
		}); err != nil {
			return nil, err
		}
		e.processLayer(ctx, r, layer)
		if err = r.fatalErr(); err != nil {
			return nil, err
		}
		settled, waiting, deferred := r.layerProgress(layer)
		details := map[string]interface{}{
			"layer":   i,
			"settled": settled,
		}
		if waiting > 0 {
			details["waiting_approval"] = waiting
		}
		if deferred > 0 {
			details["deferred"] = deferred
		}
		if err = e.audit(r, actorOrchestrator, "layer_completed", details); err != nil {
			return nil, err
		}
	}

	if err = e.audit(r, actorOrchestrator, "playbook_completed", map[string]interface{}{
		"playbook": playbook.ID,
		"case":     aCase.ID,
	}); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// processLayer runs the layer's tasks with bounded concurrency and waits for
// every task to settle (terminal, WAITING_APPROVAL or deferred) before
// returning.
func (e *Engine) processLayer(ctx context.Context, r *run, layer []string) {
	ctx, span := tracing.StartSpan(ctx, "playbook.layer")
	defer tracing.EndSpan(span, nil)

	sem := make(chan struct{}, e.config.WorkerCount)
	var wg sync.WaitGroup
	for _, name := range layer {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()
			e.processTask(ctx, r, name)
		}(name)
	}
	wg.Wait()
}

// processTask walks one task through the gate sequence: upstream check,
// idempotency, input resolution, approval, then execution. A task whose
// upstream producer is still PENDING or WAITING_APPROVAL stays PENDING and
// is picked up by the resume sweep after an approval.
func (e *Engine) processTask(ctx context.Context, r *run, name string) {
	if r.fatalErr() != nil {
		return
	}
	task := r.task(name)
	if task == nil {
		return
	}
	if status, _ := r.statusOf(name); status != model.TaskStatusPending {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "playbook.task")
	span.WithAttributes(map[string]string{"task.name": name, "task.type": task.Type})
	defer tracing.EndSpan(span, nil)

	for _, need := range task.Definition.Needs {
		depStatus, ok := r.statusOf(need)
		if !ok {
			continue
		}
		switch depStatus {
		case model.TaskStatusCompleted, model.TaskStatusSkipped:
		case model.TaskStatusFailed, model.TaskStatusBlocked:
			reason := fmt.Sprintf("dependency %s ended as %s", need, depStatus)
			if err := r.update(func() error { return task.MarkBlocked(reason) }); err != nil {
				return
			}
			_ = e.audit(r, actorOrchestrator, "task_blocked", map[string]interface{}{
				"task":   name,
				"reason": reason,
			})
			e.publishEvent(ctx, r, task)
			return
		default:
			// Upstream not settled yet, leave the task for the resume sweep.
			return
		}
	}

	if key := task.Definition.IdempotencyKey; key != "" {
		found, err := e.idempotency.Contains(ctx, key)
		if err != nil {
			e.failTask(ctx, r, task, fmt.Errorf("idempotency lookup failed: %w", err))
			return
		}
		if found {
			record, err := e.idempotency.Get(ctx, key)
			if err != nil {
				e.failTask(ctx, r, task, fmt.Errorf("idempotency lookup failed: %w", err))
				return
			}
			if err := r.update(task.MarkSkipped); err != nil {
				return
			}
			if record != nil && record.Output != nil {
				r.setResult(name, record.Output)
			}
			_ = e.audit(r, actorOrchestrator, "task_skipped_idempotent", map[string]interface{}{
				"task": name,
				"key":  key,
			})
			e.publishEvent(ctx, r, task)
			return
		}
	}

	resolver := &resolver{context: r.context, outputs: r.output}
	resolved, err := resolver.ResolveInputs(task.Definition.Inputs)
	if err != nil {
		e.failTask(ctx, r, task, err)
		return
	}
	_ = r.update(func() error {
		task.Inputs = resolved
		return nil
	})

	if task.Definition.ApprovalRequired && !r.auto {
		if err := r.update(task.MarkWaitingApproval); err != nil {
			return
		}
		if err := e.approvals.RequestApproval(ctx, &approval.Request{
			ID:       task.ID,
			CaseID:   r.kase.ID,
			TaskName: name,
			Action:   task.Type,
			Args:     resolved,
		}); err != nil {
			log.Printf("failed to file approval request for task %s: %v", name, err)
		}
		_ = e.audit(r, actorOrchestrator, "task_waiting_approval", map[string]interface{}{
			"task": name,
			"type": task.Type,
		})
		e.publishEvent(ctx, r, task)
		return
	}

	e.executeTask(ctx, r, task)
}

// executeTask runs the policy gate and dispatches the task to its connector.
// Called with the task in PENDING or APPROVED.
func (e *Engine) executeTask(ctx context.Context, r *run, task *model.Task) {
	if err := e.gate.EvaluateTask(r.kase, task); err != nil {
		e.blockOnPolicy(ctx, r, task, err)
		return
	}
	if e.checker != nil {
		ok, err := e.checker(ctx, task.Type, task.Name, task.Inputs)
		if err != nil {
			e.blockOnPolicy(ctx, r, task, fmt.Errorf("policy checker: %w", err))
			return
		}
		if !ok {
			e.blockOnPolicy(ctx, r, task, fmt.Errorf("denied by policy checker"))
			return
		}
	}

	connectorName, operation := splitType(task.Type)
	connector := e.connectors.Lookup(connectorName)
	if connector == nil {
		e.blockTask(ctx, r, task, fmt.Sprintf("no connector registered for type %q", task.Type))
		return
	}
	method, err := connector.Method(operation)
	if err != nil {
		e.blockTask(ctx, r, task, fmt.Sprintf("no handler for type %q: %v", task.Type, err))
		return
	}

	if err := r.update(task.MarkRunning); err != nil {
		return
	}
	_ = e.audit(r, actorOrchestrator, "task_started", map[string]interface{}{
		"task": task.Name,
		"type": task.Type,
	})
	e.publishEvent(ctx, r, task)

	input, output, err := e.typedIO(connector, operation, task.Inputs)
	if err == nil {
		err = method(ctx, input, output)
	}
	if err != nil {
		e.failTask(ctx, r, task, err)
		return
	}
	result, err := outputMap(output)
	if err != nil {
		e.failTask(ctx, r, task, err)
		return
	}

	// Post-execution policy evaluation on the would-be completed task.
	candidate := task.Clone()
	candidate.Status = model.TaskStatusCompleted
	candidate.Output = result
	if err := e.gate.EvaluateTask(r.kase, candidate); err != nil {
		e.blockOnPolicy(ctx, r, task, err)
		return
	}

	if err := r.update(func() error { return task.MarkCompleted(result) }); err != nil {
		return
	}
	r.setResult(task.Name, result)
	if key := task.Definition.IdempotencyKey; key != "" {
		if err := e.idempotency.Put(ctx, &idempotency.Record{
			Key:         key,
			TaskID:      task.ID,
			TaskName:    task.Name,
			Output:      result,
			CompletedAt: *task.CompletedAt,
		}); err != nil {
			log.Printf("failed to record idempotency key %s: %v", key, err)
		}
	}
	_ = e.audit(r, actorOrchestrator, "task_completed", map[string]interface{}{
		"task": task.Name,
		"type": task.Type,
	})
	e.publishEvent(ctx, r, task)
}

// Approve resumes a task suspended in WAITING_APPROVAL, attributing the
// decision to approver in the audit trail, then sweeps downstream tasks that
// became ready.
func (e *Engine) Approve(ctx context.Context, taskName, approver string) (*model.Task, error) {
	return e.approveTask(ctx, taskName, approver, true)
}

// approveTask is the shared resume path for Approve and WatchApprovals; only
// the former records a decision on the approval service.
func (e *Engine) approveTask(ctx context.Context, taskName, approver string, recordDecision bool) (*model.Task, error) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return nil, ErrNoActiveRun
	}
	r.resumeMu.Lock()
	defer r.resumeMu.Unlock()

	task := r.task(taskName)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskName)
	}
	if status, _ := r.statusOf(taskName); status != model.TaskStatusWaitingApproval {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotAwaitingApproval, taskName, status)
	}
	if recordDecision {
		if _, err := e.approvals.Decide(ctx, task.ID, approver, true, ""); err != nil {
			log.Printf("failed to record approval decision for task %s: %v", taskName, err)
		}
	}
	if err := r.update(func() error { return task.MarkApproved(approver) }); err != nil {
		return nil, err
	}
	if err := e.audit(r, approver, "task_approved", map[string]interface{}{
		"task":        taskName,
		"approved_by": approver,
	}); err != nil {
		return nil, err
	}
	e.executeTask(ctx, r, task)
	e.resumePending(ctx, r)
	if err := r.fatalErr(); err != nil {
		return nil, err
	}
	return task.Clone(), nil
}

// WatchApprovals consumes the approval service's decision events and resumes
// the matching task on behalf of the decision's approver, so out-of-band
// deciders (a review UI, AutoDecider) drive a suspended run without calling
// Approve themselves. The returned stop function ends the watcher.
func (e *Engine) WatchApprovals(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		for {
			message, err := e.approvals.Queue().Consume(ctx)
			if err != nil {
				return
			}
			event := message.T()
			if event != nil && event.Topic == approval.TopicDecisionCreated {
				if decision, ok := event.Data.(*approval.Decision); ok && decision.Approved {
					e.resumeApproved(ctx, decision)
				}
			}
			_ = message.Ack()
		}
	}()
	return cancel
}

func (e *Engine) resumeApproved(ctx context.Context, decision *approval.Decision) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return
	}
	name, found := r.taskNameByID(decision.ID)
	if !found {
		return
	}
	if _, err := e.approveTask(ctx, name, decision.Approver, false); err != nil {
		// The task may already have been resumed through Approve.
		if !errors.Is(err, ErrNotAwaitingApproval) {
			log.Printf("failed to resume task %s after approval decision: %v", name, err)
		}
	}
}

// resumePending re-walks the layers in order and processes tasks left
// PENDING because an upstream producer was suspended.
func (e *Engine) resumePending(ctx context.Context, r *run) {
	for _, layer := range r.layers {
		for _, name := range layer {
			if status, ok := r.statusOf(name); !ok || status != model.TaskStatusPending {
				continue
			}
			e.processTask(ctx, r, name)
		}
	}
}

// Status returns the current status of the named task in the active run.
func (e *Engine) Status(taskName string) (model.TaskStatus, error) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return "", ErrNoActiveRun
	}
	status, ok := r.statusOf(taskName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, taskName)
	}
	return status, nil
}

// TasksByStatus returns snapshots of all tasks currently in status, in
// lexical name order.
func (e *Engine) TasksByStatus(status model.TaskStatus) []*model.Task {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.tasks))
	for name, task := range r.tasks {
		if task.Status == status {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	ret := make([]*model.Task, 0, len(names))
	for _, name := range names {
		ret = append(ret, r.tasks[name].Clone())
	}
	r.mu.RUnlock()
	return ret
}

// Result returns a snapshot of the active run.
func (e *Engine) Result() (*RunResult, error) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return nil, ErrNoActiveRun
	}
	return r.snapshot(), nil
}

func (e *Engine) failTask(ctx context.Context, r *run, task *model.Task, cause error) {
	if err := r.update(func() error { return task.MarkFailed(cause) }); err != nil {
		return
	}
	_ = e.audit(r, actorOrchestrator, "task_failed", map[string]interface{}{
		"task":  task.Name,
		"type":  task.Type,
		"error": cause.Error(),
	})
	e.publishEvent(ctx, r, task)
}

func (e *Engine) blockTask(ctx context.Context, r *run, task *model.Task, reason string) {
	if err := r.update(func() error { return task.MarkBlocked(reason) }); err != nil {
		return
	}
	_ = e.audit(r, actorOrchestrator, "task_blocked", map[string]interface{}{
		"task":   task.Name,
		"reason": reason,
	})
	e.publishEvent(ctx, r, task)
}

func (e *Engine) blockOnPolicy(ctx context.Context, r *run, task *model.Task, cause error) {
	details := map[string]interface{}{
		"task":  task.Name,
		"error": cause.Error(),
	}
	if violation, ok := cause.(*policy.Violation); ok {
		details["rule"] = violation.Rule
	}
	if err := r.update(func() error { return task.MarkBlocked(cause.Error()) }); err != nil {
		return
	}
	_ = e.audit(r, actorOrchestrator, "task_policy_failed", details)
	e.publishEvent(ctx, r, task)
}

// audit appends a ledger entry; a write failure poisons the run.
func (e *Engine) audit(r *run, actor, action string, details map[string]interface{}) error {
	if _, err := e.ledger.Append(actor, action, details); err != nil {
		r.setFatal(err)
		return err
	}
	return nil
}

func (e *Engine) publishEvent(ctx context.Context, r *run, task *model.Task) {
	if e.events == nil {
		return
	}
	event := &TaskEvent{
		CaseID:     task.CaseID,
		PlaybookID: task.PlaybookID,
		TaskName:   task.Name,
		TaskType:   task.Type,
		Status:     task.Status,
		Error:      task.Error,
	}
	if task.CompletedAt != nil {
		event.At = *task.CompletedAt
	} else if task.StartedAt != nil {
		event.At = *task.StartedAt
	} else {
		event.At = task.CreatedAt
	}
	if err := e.events.Publish(ctx, event); err != nil {
		log.Printf("failed to publish task event for %s: %v", task.Name, err)
	}
}

// typedIO builds the input/output values for a connector invocation. When
// the operation signature declares struct types the raw inputs are converted;
// otherwise the raw map passes through.
func (e *Engine) typedIO(connector types.Connector, operation string, inputs map[string]interface{}) (interface{}, interface{}, error) {
	if inputs == nil {
		inputs = map[string]interface{}{}
	}
	signature := connector.Methods().Lookup(operation)
	if signature == nil {
		return inputs, map[string]interface{}{}, nil
	}
	input, err := e.typedValue(signature.Input, inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("%s.%s: %w", connector.Name(), operation, err)
	}
	output, err := e.typedValue(signature.Output, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s.%s: %w", connector.Name(), operation, err)
	}
	return input, output, nil
}

func (e *Engine) typedValue(aType reflect.Type, value interface{}) (interface{}, error) {
	if aType == nil || aType.Kind() == reflect.Map || (aType.Kind() == reflect.Ptr && aType.Elem().Kind() == reflect.Map) {
		if holder, ok := value.(map[string]interface{}); ok {
			return holder, nil
		}
		return map[string]interface{}{}, nil
	}
	instance := newInstancePtr(aType)
	if value == nil {
		return instance, nil
	}
	if err := e.converter.Convert(value, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func newInstancePtr(aType reflect.Type) interface{} {
	if aType.Kind() == reflect.Ptr {
		aType = aType.Elem()
	}
	return reflect.New(aType).Interface()
}

// outputMap renders a connector output value into the map form stored on the
// task and in the results registry.
func outputMap(output interface{}) (map[string]interface{}, error) {
	if output == nil {
		return map[string]interface{}{}, nil
	}
	if holder, ok := output.(map[string]interface{}); ok {
		return holder, nil
	}
	data, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize output: %w", err)
	}
	ret := map[string]interface{}{}
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to serialize output: %w", err)
	}
	return ret, nil
}

// splitType splits a task type into connector name and operation.
func splitType(taskType string) (string, string) {
	name, operation, _ := strings.Cut(taskType, ".")
	return name, operation
}
