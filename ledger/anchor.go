package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caseflow/caseflow/internal/clock"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// AnchorRecord binds the chain tip at a point in time to an external
// non-repudiation mechanism (timestamp authority, public ledger, ...).
type AnchorRecord struct {
	LedgerID   string                 `json:"ledgerId"`
	LatestHash string                 `json:"latestHash"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Anchor snapshots the current chain tip together with caller-supplied
// external data. Anchors accumulate and are returned in creation order.
// When an anchor URL is configured the snapshot is also persisted through
// afs as one JSON document per anchor.
func (l *Ledger) Anchor(ctx context.Context, externalData map[string]interface{}) (*AnchorRecord, error) {
	l.mu.Lock()
	record := &AnchorRecord{
		LedgerID:   l.id,
		LatestHash: l.lastHash,
		Timestamp:  clock.Now().UTC(),
		Data:       externalData,
	}
	l.anchors = append(l.anchors, record)
	ordinal := len(l.anchors)
	l.mu.Unlock()

	if l.anchorURL != "" {
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize anchor: %w", err)
		}
		URL := url.Join(l.anchorURL, fmt.Sprintf("%s-anchor-%04d.json", l.id, ordinal))
		if err := l.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to persist anchor to %s: %w", URL, err)
		}
	}
	return record, nil
}

// Anchors returns all anchor records in creation order.
func (l *Ledger) Anchors() []*AnchorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	ret := make([]*AnchorRecord, len(l.anchors))
	copy(ret, l.anchors)
	return ret
}
