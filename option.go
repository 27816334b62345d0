package caseflow

import (
	"github.com/caseflow/caseflow/engine"
	"github.com/caseflow/caseflow/idempotency"
	"github.com/caseflow/caseflow/ledger"
	"github.com/caseflow/caseflow/model/types"
	"github.com/caseflow/caseflow/policy"
	"github.com/caseflow/caseflow/service/approval"
	"github.com/caseflow/caseflow/service/messaging"
	"github.com/caseflow/caseflow/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customizes the caseflow service
type Option func(s *Service)

// WithConfig overrides the default configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLedger injects a pre-built audit ledger (e.g. one resuming an existing
// chain file)
func WithLedger(auditLedger *ledger.Ledger) Option {
	return func(s *Service) {
		s.ledger = auditLedger
	}
}

// WithPolicyGate replaces the default policy gate
func WithPolicyGate(gate *policy.Gate) Option {
	return func(s *Service) {
		s.gate = gate
	}
}

// WithPolicyChecker sets the external policy hook
func WithPolicyChecker(checker policy.Checker) Option {
	return func(s *Service) {
		s.checker = checker
	}
}

// WithIdempotencyStore replaces the default in-memory idempotency store
func WithIdempotencyStore(store idempotency.Store) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithApprovalService replaces the default in-memory approval service
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) {
		s.approvals = svc
	}
}

// WithEventQueue enables task lifecycle event publication
func WithEventQueue(queue messaging.Queue[engine.TaskEvent]) Option {
	return func(s *Service) {
		s.events = queue
	}
}

// WithConnectors registers additional connectors
func WithConnectors(connectors ...types.Connector) Option {
	return func(s *Service) {
		s.extensionConnectors = append(s.extensionConnectors, connectors...)
	}
}

// WithExtensionTypes sets the extension types
func WithExtensionTypes(goTypes ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = goTypes
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile
// is empty the stdout exporter is used; otherwise traces are written to the
// supplied file path. Safe to call multiple times; the first successful
// initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Jaeger, Zipkin, ...). Safe to call multiple times; the
// first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
