package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Entry is one immutable audit record. Hash is the SHA-256 of the canonical
// serialization of the remaining fields; ParentHash is the previous entry's
// hash, or the genesis value for the first entry.
type Entry struct {
	Index      int                    `json:"index"`
	Timestamp  string                 `json:"timestamp"`
	Actor      string                 `json:"actor"`
	Action     string                 `json:"action"`
	Details    map[string]interface{} `json:"details"`
	Hash       string                 `json:"hash"`
	ParentHash string                 `json:"parent_hash"`
}

// canonical serializes the hashed fields as compact JSON with sorted keys.
// Marshalling a map delegates key ordering to encoding/json, which sorts
// them, so the byte form is stable across process restarts.
func (e *Entry) canonical() ([]byte, error) {
	payload := map[string]interface{}{
		"index":       e.Index,
		"timestamp":   e.Timestamp,
		"actor":       e.Actor,
		"action":      e.Action,
		"details":     e.Details,
		"parent_hash": e.ParentHash,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize audit entry %d: %w", e.Index, err)
	}
	return data, nil
}

// computeHash recomputes the entry hash from its current field values.
func (e *Entry) computeHash() (string, error) {
	data, err := e.canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	if e.Details != nil {
		clone.Details = make(map[string]interface{}, len(e.Details))
		for k, v := range e.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}

// marshalLine renders the persisted form: the canonical JSON of the entry
// fields, a single space, then the 64-character lowercase hex hash.
func (e *Entry) marshalLine() ([]byte, error) {
	data, err := e.canonical()
	if err != nil {
		return nil, err
	}
	line := make([]byte, 0, len(data)+1+len(e.Hash)+1)
	line = append(line, data...)
	line = append(line, ' ')
	line = append(line, e.Hash...)
	line = append(line, '\n')
	return line, nil
}

// unmarshalLine parses one persisted line back into an entry.
func unmarshalLine(line []byte) (*Entry, error) {
	idx := -1
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("malformed ledger line: missing hash separator")
	}
	var entry Entry
	if err := json.Unmarshal(line[:idx], &entry); err != nil {
		return nil, fmt.Errorf("malformed ledger line: %w", err)
	}
	entry.Hash = string(line[idx+1:])
	if len(entry.Hash) != sha256.Size*2 {
		return nil, fmt.Errorf("malformed ledger line: hash length %d", len(entry.Hash))
	}
	return &entry, nil
}
