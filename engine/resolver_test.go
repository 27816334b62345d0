package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expect      []string
		expectError bool
	}{
		{
			description: "context variable",
			input:       "incident_email",
			expect:      []string{"incident_email"},
		},
		{
			description: "output path",
			input:       "snapshot.output.artifact_id",
			expect:      []string{"snapshot", "output", "artifact_id"},
		},
		{
			description: "surrounding whitespace",
			input:       " search-mail.output.count",
			expect:      []string{"search-mail", "output", "count"},
		},
		{
			description: "empty",
			input:       "",
			expectError: true,
		},
		{
			description: "trailing dot",
			input:       "task.output.",
			expectError: true,
		},
		{
			description: "invalid character",
			input:       "task.output.field!",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		actual, err := parseReference(testCase.input)
		if testCase.expectError {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestResolver_ResolveInputs(t *testing.T) {
	r := &resolver{
		context: map[string]interface{}{
			"incident_email": "mallory@example.com",
			"retries":        3,
		},
		outputs: func(task string) (map[string]interface{}, bool) {
			if task == "snapshot" {
				return map[string]interface{}{
					"artifact_id": "art-001",
					"meta":        map[string]interface{}{"size": 42},
				}, true
			}
			return nil, false
		},
	}

	resolved, err := r.ResolveInputs(map[string]interface{}{
		"sender":   "{{incident_email}}",
		"retries":  "{{retries}}",
		"artifact": "{{snapshot.output.artifact_id}}",
		"size":     "{{snapshot.output.meta.size}}",
		"subject":  "artifact {{snapshot.output.artifact_id}} from {{incident_email}}",
		"literal":  "no references here",
		"number":   7,
		"nested": map[string]interface{}{
			"target": "{{incident_email}}",
		},
		"listed": []interface{}{"{{retries}}", "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "mallory@example.com", resolved["sender"])
	assert.Equal(t, 3, resolved["retries"], "full-value reference keeps the original type")
	assert.Equal(t, "art-001", resolved["artifact"])
	assert.Equal(t, 42, resolved["size"])
	assert.Equal(t, "artifact art-001 from mallory@example.com", resolved["subject"])
	assert.Equal(t, "no references here", resolved["literal"])
	assert.Equal(t, 7, resolved["number"])
	assert.Equal(t, map[string]interface{}{"target": "mallory@example.com"}, resolved["nested"])
	assert.Equal(t, []interface{}{3, "x"}, resolved["listed"])
}

func TestResolver_UnresolvedReference(t *testing.T) {
	r := &resolver{
		context: map[string]interface{}{},
		outputs: func(string) (map[string]interface{}, bool) { return nil, false },
	}

	testCases := []struct {
		description string
		input       map[string]interface{}
	}{
		{
			description: "unknown context variable",
			input:       map[string]interface{}{"to": "{{missing_var}}"},
		},
		{
			description: "unknown task output",
			input:       map[string]interface{}{"ref": "{{ghost.output.id}}"},
		},
		{
			description: "path without output segment",
			input:       map[string]interface{}{"ref": "{{task.result.id}}"},
		},
	}
	for _, testCase := range testCases {
		_, err := r.ResolveInputs(testCase.input)
		require.Error(t, err, testCase.description)
		var unresolved *UnresolvedReferenceError
		assert.ErrorAs(t, err, &unresolved, testCase.description)
	}
}

func TestResolver_MissingOutputField(t *testing.T) {
	r := &resolver{
		context: map[string]interface{}{},
		outputs: func(task string) (map[string]interface{}, bool) {
			return map[string]interface{}{"present": 1}, task == "done"
		},
	}
	_, err := r.ResolveInputs(map[string]interface{}{"ref": "{{done.output.absent}}"})
	var unresolved *UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "done.output.absent", unresolved.Reference)
}
