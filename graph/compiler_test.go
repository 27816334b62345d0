package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow/model"
)

func defs(edges map[string][]string) map[string]*model.TaskDefinition {
	ret := make(map[string]*model.TaskDefinition, len(edges))
	for name, needs := range edges {
		ret[name] = &model.TaskDefinition{Type: "nop.run", Needs: needs}
	}
	return ret
}

func TestCompile_Layers(t *testing.T) {
	testCases := []struct {
		description string
		edges       map[string][]string
		expect      Layers
	}{
		{
			description: "diamond fan-out",
			edges:       map[string][]string{"A": nil, "B": {"A"}, "C": {"A"}},
			expect:      Layers{{"A"}, {"B", "C"}},
		},
		{
			description: "chain",
			edges:       map[string][]string{"a": nil, "b": {"a"}, "c": {"b"}},
			expect:      Layers{{"a"}, {"b"}, {"c"}},
		},
		{
			description: "independent tasks share one layer",
			edges:       map[string][]string{"x": nil, "y": nil, "z": nil},
			expect:      Layers{{"x", "y", "z"}},
		},
	}

	for _, testCase := range testCases {
		layers, err := Compile(defs(testCase.edges))
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, layers, testCase.description)
	}
}

func TestCompile_LayerIndexExceedsDependencies(t *testing.T) {
	edges := map[string][]string{
		"snapshot": nil,
		"triage":   nil,
		"lock":     {"snapshot"},
		"rotate":   {"snapshot", "triage"},
		"report":   {"lock", "rotate"},
	}
	layers, err := Compile(defs(edges))
	require.NoError(t, err)

	layerOf := map[string]int{}
	total := 0
	for i, layer := range layers {
		for _, name := range layer {
			_, seen := layerOf[name]
			assert.False(t, seen, "task %s placed twice", name)
			layerOf[name] = i
			total++
		}
	}
	assert.Equal(t, len(edges), total)
	for name, needs := range edges {
		for _, need := range needs {
			assert.Greater(t, layerOf[name], layerOf[need], "%s vs %s", name, need)
		}
	}
}

func TestCompile_Cycles(t *testing.T) {
	testCases := []struct {
		description string
		edges       map[string][]string
	}{
		{
			description: "two node mutual dependency",
			edges:       map[string][]string{"A": {"B"}, "B": {"A"}},
		},
		{
			description: "self dependency",
			edges:       map[string][]string{"A": {"A"}},
		},
		{
			description: "three node cycle amid acyclic tasks",
			edges: map[string][]string{
				"ok1": nil,
				"ok2": {"ok1"},
				"c1":  {"c3"},
				"c2":  {"c1"},
				"c3":  {"c2"},
			},
		},
	}

	for _, testCase := range testCases {
		layers, err := Compile(defs(testCase.edges))
		require.Error(t, err, testCase.description)
		assert.ErrorIs(t, err, ErrCycleDetected, testCase.description)
		assert.Nil(t, layers, testCase.description)
	}
}

func TestCompile_UnknownDependency(t *testing.T) {
	layers, err := Compile(defs(map[string][]string{"A": {"missing"}}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDependency)
	assert.Contains(t, err.Error(), "missing")
	assert.Nil(t, layers)
}
