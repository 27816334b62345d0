package memory

import (
	"context"

	"github.com/caseflow/caseflow/idempotency"
	"github.com/caseflow/caseflow/service/dao"
	"github.com/caseflow/caseflow/service/dao/store"
)

// Service is an in-memory idempotency store backed by the generic memory
// store; suitable for single-process deployments and tests.
type Service struct {
	records *store.MemoryStore[string, idempotency.Record]
}

func recordKey(r *idempotency.Record) string { return r.Key }

// New creates a new in-memory idempotency store.
func New() *Service {
	return &Service{records: store.NewMemoryStore[string, idempotency.Record](recordKey)}
}

// Contains reports whether a record exists for the key.
func (s *Service) Contains(ctx context.Context, key string) (bool, error) {
	record, err := s.records.Load(ctx, key)
	return record != nil, err
}

// Get returns the record bound to the key, or nil when absent.
func (s *Service) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	return s.records.Load(ctx, key)
}

// Put inserts a record; the last writer for a racing key wins, after which
// every caller observes the key as present.
func (s *Service) Put(ctx context.Context, record *idempotency.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.Key == "" {
		return dao.ErrInvalidID
	}
	return s.records.Save(ctx, record)
}

var _ idempotency.Store = (*Service)(nil)
