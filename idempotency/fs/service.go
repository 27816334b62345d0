package fs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/caseflow/caseflow/idempotency"
	"github.com/caseflow/caseflow/service/dao"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Service is a filesystem-backed idempotency store for cross-run
// deduplication: each record is one JSON document named by the key digest.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// New creates a filesystem-backed idempotency store rooted at baseURL.
func New(baseURL string) *Service {
	return &Service{baseURL: baseURL, fs: afs.New()}
}

// Contains reports whether a record exists for the key.
func (s *Service) Contains(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	exists, err := s.fs.Exists(ctx, s.recordURL(key))
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return exists, nil
}

// Get returns the record bound to the key, or nil when absent.
func (s *Service) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.recordURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}
	record := &idempotency.Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return record, nil
}

// Put persists a record; concurrent writers for the same key converge on a
// single stored document.
func (s *Service) Put(ctx context.Context, record *idempotency.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.Key == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordURL(record.Key)
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist idempotency record to %s: %w", URL, err)
	}
	return nil
}

// recordURL digests the key so arbitrary key material maps to a safe name.
func (s *Service) recordURL(key string) string {
	sum := sha256.Sum256([]byte(key))
	return url.Join(s.baseURL, hex.EncodeToString(sum[:])+".json")
}

var _ idempotency.Store = (*Service)(nil)
