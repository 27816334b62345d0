package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_EmptyVerifies(t *testing.T) {
	l, err := New(WithID("case-1"))
	require.NoError(t, err)
	assert.True(t, l.VerifyChain())
	assert.Equal(t, GenesisHash, l.LatestHash())
	assert.Equal(t, 0, l.Len())
}

func TestLedger_AppendChains(t *testing.T) {
	l, err := New(WithID("case-1"))
	require.NoError(t, err)

	first, err := l.Append("orchestrator", "playbook_started", map[string]interface{}{"playbook": "mailbox"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, GenesisHash, first.ParentHash)
	assert.Len(t, first.Hash, 64)

	second, err := l.Append("orchestrator", "task_started", map[string]interface{}{"task": "snapshot"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, first.Hash, second.ParentHash)

	assert.True(t, l.VerifyChain())
	assert.Equal(t, second.Hash, l.LatestHash())
}

func TestLedger_TipStableWithoutAppends(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	_, err = l.Append("a", "one", nil)
	require.NoError(t, err)

	tip := l.LatestHash()
	assert.Equal(t, tip, l.LatestHash())

	_, err = l.Append("a", "two", nil)
	require.NoError(t, err)
	assert.NotEqual(t, tip, l.LatestHash())
}

func TestLedger_TamperDetection(t *testing.T) {
	mutations := []struct {
		description string
		mutate      func(e *Entry)
	}{
		{"actor", func(e *Entry) { e.Actor = "mallory" }},
		{"action", func(e *Entry) { e.Action = "task_completed" }},
		{"detail value", func(e *Entry) { e.Details["task"] = "other" }},
		{"index", func(e *Entry) { e.Index = 7 }},
		{"timestamp", func(e *Entry) { e.Timestamp = "1999-01-01T00:00:00.000000000Z" }},
		{"parent hash", func(e *Entry) { e.ParentHash = strings.Repeat("f", 64) }},
	}

	for _, mutation := range mutations {
		l, err := New()
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = l.Append("orchestrator", "event", map[string]interface{}{"task": fmt.Sprintf("t%d", i)})
			require.NoError(t, err)
		}
		require.True(t, l.VerifyChain())
		mutation.mutate(l.entries[1])
		assert.False(t, l.VerifyChain(), mutation.description)
	}
}

func TestLedger_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case-7.log")
	l, err := New(WithID("case-7"), WithPath(path))
	require.NoError(t, err)
	_, err = l.Append("orchestrator", "playbook_started", map[string]interface{}{"playbook": "pb"})
	require.NoError(t, err)
	_, err = l.Append("alice", "task_approved", map[string]interface{}{"task": "rotate"})
	require.NoError(t, err)
	tip := l.LatestHash()
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		idx := strings.LastIndex(line, " ")
		require.Greater(t, idx, 0)
		hash := line[idx+1:]
		assert.Len(t, hash, 64)
		assert.Equal(t, strings.ToLower(hash), hash)
		assert.True(t, strings.HasPrefix(line, "{"))
	}
	assert.Contains(t, lines[0], `"parent_hash":"`+GenesisHash+`"`)

	reopened, err := New(WithID("case-7"), WithPath(path))
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, tip, reopened.LatestHash())
	assert.True(t, reopened.VerifyChain())

	// Appends continue the persisted chain rather than restarting it.
	third, err := reopened.Append("orchestrator", "playbook_completed", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Index)
	assert.Equal(t, tip, third.ParentHash)
	assert.True(t, reopened.VerifyChain())
}

func TestLedger_FileTamperDetectedOnReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case-8.log")
	l, err := New(WithPath(path))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = l.Append("orchestrator", "event", map[string]interface{}{"i": i})
		require.NoError(t, err)
	}
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"actor":"orchestrator"`, `"actor":"mallory"`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	reopened, err := New(WithPath(path))
	require.NoError(t, err)
	defer reopened.Close()
	assert.False(t, reopened.VerifyChain())
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, appendErr := l.Append("orchestrator", "event", map[string]interface{}{"worker": worker, "seq": j})
				assert.NoError(t, appendErr)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, l.Len())
	assert.True(t, l.VerifyChain())
	entries := l.Entries()
	for i, entry := range entries {
		assert.Equal(t, i, entry.Index)
	}
}

func TestLedger_Anchors(t *testing.T) {
	dir := t.TempDir()
	l, err := New(WithID("case-9"), WithAnchorURL(dir))
	require.NoError(t, err)
	_, err = l.Append("orchestrator", "playbook_started", nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := l.Anchor(ctx, map[string]interface{}{"tsa": "rfc3161", "serial": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "case-9", first.LedgerID)
	assert.Equal(t, l.LatestHash(), first.LatestHash)

	_, err = l.Append("orchestrator", "playbook_completed", nil)
	require.NoError(t, err)
	second, err := l.Anchor(ctx, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.LatestHash, second.LatestHash)

	anchors := l.Anchors()
	require.Len(t, anchors, 2)
	assert.Equal(t, first, anchors[0])
	assert.Equal(t, second, anchors[1])

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
