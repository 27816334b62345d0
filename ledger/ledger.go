package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caseflow/caseflow/internal/clock"
	"github.com/caseflow/caseflow/internal/idgen"
	"github.com/viant/afs"
)

// GenesisHash is the well-known parent hash of the first entry.
var GenesisHash = strings.Repeat("0", 64)

// Ledger is an append-only hash chain. All mutation goes through Append,
// which serializes concurrent callers; the chain has a single global order
// and no branches.
type Ledger struct {
	id        string
	path      string
	anchorURL string
	fs        afs.Service

	mu        sync.Mutex
	entries   []*Entry
	lastHash  string
	lastIndex int
	file      *os.File
	anchors   []*AnchorRecord
}

// Option customises a ledger instance.
type Option func(*Ledger)

// WithID sets the ledger identity (typically the case ID).
func WithID(id string) Option {
	return func(l *Ledger) { l.id = id }
}

// WithPath enables file persistence: one entry per line, appended in place.
func WithPath(path string) Option {
	return func(l *Ledger) { l.path = path }
}

// WithAnchorURL enables anchor snapshots persisted through afs at the given
// base URL.
func WithAnchorURL(URL string) Option {
	return func(l *Ledger) { l.anchorURL = URL }
}

// WithFS overrides the afs service used for anchor persistence.
func WithFS(fs afs.Service) Option {
	return func(l *Ledger) { l.fs = fs }
}

// New creates a ledger. Without WithPath the chain lives in memory only;
// with it, any existing entries are loaded and the file is opened for
// append-only writes with the tip kept resident.
func New(options ...Option) (*Ledger, error) {
	ret := &Ledger{lastHash: GenesisHash, lastIndex: -1}
	for _, option := range options {
		option(ret)
	}
	if ret.id == "" {
		ret.id = idgen.New()
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.path == "" {
		return ret, nil
	}
	if err := ret.load(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(ret.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger dir: %w", err)
	}
	file, err := os.OpenFile(ret.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", ret.path, err)
	}
	ret.file = file
	return ret, nil
}

func (l *Ledger) load() error {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger %s: %w", l.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := unmarshalLine([]byte(line))
		if err != nil {
			return fmt.Errorf("ledger %s entry %d: %w", l.path, len(l.entries), err)
		}
		l.entries = append(l.entries, entry)
		l.lastHash = entry.Hash
		l.lastIndex = entry.Index
	}
	return scanner.Err()
}

// ID returns the ledger identity.
func (l *Ledger) ID() string { return l.id }

// Append computes the next chain entry and persists it before returning.
// A persistence failure is returned to the caller and nothing is retained:
// the integrity guarantee is void if an entry could be lost.
func (l *Ledger) Append(actor, action string, details map[string]interface{}) (*Entry, error) {
	if details == nil {
		details = map[string]interface{}{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := &Entry{
		Index:      l.lastIndex + 1,
		Timestamp:  clock.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
		Actor:      actor,
		Action:     action,
		Details:    details,
		ParentHash: l.lastHash,
	}
	hash, err := entry.computeHash()
	if err != nil {
		return nil, err
	}
	entry.Hash = hash

	if l.file != nil {
		line, err := entry.marshalLine()
		if err != nil {
			return nil, err
		}
		if _, err := l.file.Write(line); err != nil {
			return nil, fmt.Errorf("failed to append audit entry %d: %w", entry.Index, err)
		}
	}
	l.entries = append(l.entries, entry)
	l.lastHash = entry.Hash
	l.lastIndex = entry.Index
	return entry.Clone(), nil
}

// VerifyChain recomputes every entry hash in index order and confirms each
// matches the stored hash and that each parent hash matches the previous
// entry's stored hash. An empty ledger verifies as true.
func (l *Ledger) VerifyChain() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	parent := GenesisHash
	for i, entry := range l.entries {
		if entry.Index != i || entry.ParentHash != parent {
			return false
		}
		hash, err := entry.computeHash()
		if err != nil || hash != entry.Hash {
			return false
		}
		parent = entry.Hash
	}
	return true
}

// LatestHash returns the chain tip, or the genesis value when empty.
func (l *Ledger) LatestHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastHash
}

// Entries returns a snapshot of the chain in index order.
func (l *Ledger) Entries() []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	ret := make([]*Entry, len(l.entries))
	for i, entry := range l.entries {
		ret[i] = entry.Clone()
	}
	return ret
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close releases the underlying file handle, if any.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
