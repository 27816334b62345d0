package caseflow

import (
	"context"

	"github.com/caseflow/caseflow/connector/evidence"
	"github.com/caseflow/caseflow/connector/nop"
	"github.com/caseflow/caseflow/connector/router"
	"github.com/caseflow/caseflow/connector/vault"
	"github.com/caseflow/caseflow/engine"
	"github.com/caseflow/caseflow/extension"
	"github.com/caseflow/caseflow/idempotency"
	"github.com/caseflow/caseflow/ledger"
	"github.com/caseflow/caseflow/model"
	"github.com/caseflow/caseflow/model/types"
	"github.com/caseflow/caseflow/policy"
	"github.com/caseflow/caseflow/service/approval"
	"github.com/caseflow/caseflow/service/messaging"
	"github.com/caseflow/caseflow/source"
	"github.com/viant/x"
)

// Service is the high-level façade wiring the playbook source, connector
// registry, policy gate, approval service and audit ledger into one engine.
type Service struct {
	config              *Config
	connectors          *extension.Connectors
	extensionTypes      []*x.Type
	extensionConnectors []types.Connector
	ledger              *ledger.Ledger
	gate                *policy.Gate
	checker             policy.Checker
	idempotency         idempotency.Store
	approvals           approval.Service
	events              messaging.Queue[engine.TaskEvent]
	engine              *engine.Engine
	source              *source.Service
}

// New creates a caseflow service
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.ledger == nil {
		var options []ledger.Option
		if s.config.Ledger.ID != "" {
			options = append(options, ledger.WithID(s.config.Ledger.ID))
		}
		if s.config.Ledger.Path != "" {
			options = append(options, ledger.WithPath(s.config.Ledger.Path))
		}
		if s.config.Ledger.AnchorURL != "" {
			options = append(options, ledger.WithAnchorURL(s.config.Ledger.AnchorURL))
		}
		auditLedger, err := ledger.New(options...)
		if err != nil {
			return err
		}
		s.ledger = auditLedger
	}

	s.connectors = extension.NewConnectors(s.extensionTypes...)
	s.connectors.Register(nop.New())
	s.connectors.Register(vault.New())
	s.connectors.Register(router.New())
	evidenceBaseURL := s.config.Evidence.BaseURL
	if evidenceBaseURL == "" {
		evidenceBaseURL = DefaultConfig().Evidence.BaseURL
	}
	s.connectors.Register(evidence.New(evidenceBaseURL))
	for _, connector := range s.extensionConnectors {
		s.connectors.Register(connector)
	}

	engineOptions := []engine.Option{
		engine.WithConfig(engine.Config{WorkerCount: s.config.Engine.WorkerCount}),
	}
	if s.gate != nil {
		engineOptions = append(engineOptions, engine.WithPolicyGate(s.gate))
	}
	if s.checker != nil {
		engineOptions = append(engineOptions, engine.WithPolicyChecker(s.checker))
	}
	if s.idempotency != nil {
		engineOptions = append(engineOptions, engine.WithIdempotencyStore(s.idempotency))
	}
	if s.approvals != nil {
		engineOptions = append(engineOptions, engine.WithApprovalService(s.approvals))
	}
	if s.events != nil {
		engineOptions = append(engineOptions, engine.WithEventQueue(s.events))
	}
	anEngine, err := engine.New(s.connectors, s.ledger, engineOptions...)
	if err != nil {
		return err
	}
	s.engine = anEngine
	s.source = source.New()
	return nil
}

// RegisterConnectors registers additional connectors after construction
func (s *Service) RegisterConnectors(connectors ...types.Connector) {
	for i := range connectors {
		s.connectors.Register(connectors[i])
	}
}

// RegisterExtensionTypes registers extension data types
func (s *Service) RegisterExtensionTypes(goTypes ...*x.Type) {
	for i := range goTypes {
		s.connectors.Types().Register(goTypes[i])
	}
}

// Connectors exposes the connector registry
func (s *Service) Connectors() *extension.Connectors {
	return s.connectors
}

// Engine exposes the execution engine
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Ledger exposes the audit ledger
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// Approvals exposes the approval service
func (s *Service) Approvals() approval.Service {
	return s.engine.Approvals()
}

// LoadPlaybook loads a playbook from YAML at the specified URL
func (s *Service) LoadPlaybook(ctx context.Context, URL string) (*model.Playbook, error) {
	return s.source.Load(ctx, URL)
}

// DecodePlaybook decodes a playbook from YAML
func (s *Service) DecodePlaybook(encoded []byte) (*model.Playbook, error) {
	return s.source.DecodeYAML(encoded)
}

// RunPlaybook executes a playbook against a case. Tasks requiring approval
// suspend unless autoApprove is set; resume them with ApproveTask.
func (s *Service) RunPlaybook(ctx context.Context, playbook *model.Playbook, aCase *model.Case, contextVars map[string]interface{}, autoApprove bool) (*engine.RunResult, error) {
	return s.engine.Run(ctx, playbook, aCase, contextVars, autoApprove)
}

// ApproveTask approves a task suspended in WAITING_APPROVAL and resumes
// execution of it and any dependents that become ready.
func (s *Service) ApproveTask(ctx context.Context, taskName, approver string) (*model.Task, error) {
	return s.engine.Approve(ctx, taskName, approver)
}

// Close releases service resources
func (s *Service) Close() error {
	return s.ledger.Close()
}
