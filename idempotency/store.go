// Package idempotency defines the key→result cache that prevents duplicate
// side-effecting execution of a task. Records are created on first
// successful completion, consulted before any later attempt with the same
// key and never mutated. Stores may be shared across engine instances for
// cross-run deduplication and must be safe for concurrent read/insert.
package idempotency

import (
	"context"
	"time"
)

// Record captures the outcome bound to an idempotency key.
type Record struct {
	Key         string                 `json:"key"`
	TaskID      string                 `json:"taskId"`
	TaskName    string                 `json:"taskName"`
	Output      map[string]interface{} `json:"output,omitempty"`
	CompletedAt time.Time              `json:"completedAt"`
}

// Store is the minimal idempotency contract. A racing double-insert for the
// same key may keep either record; both callers must observe the key as
// present afterwards.
type Store interface {
	Contains(ctx context.Context, key string) (bool, error)

	Get(ctx context.Context, key string) (*Record, error)

	Put(ctx context.Context, record *Record) error
}
