package graph

import (
	"fmt"
	"sort"

	"github.com/caseflow/caseflow/model"
)

// Layers is the compiled execution plan: tasks within one layer have no
// dependency ordering among them; layers execute strictly in order.
type Layers [][]string

// Compile validates the dependency relation of the supplied task definitions
// and levels them into layers. Each task lands in exactly one layer and its
// layer index is strictly greater than that of every dependency.
func Compile(tasks map[string]*model.TaskDefinition) (Layers, error) {
	for name, def := range tasks {
		for _, need := range def.Needs {
			if _, ok := tasks[need]; !ok {
				return nil, fmt.Errorf("%w: task %q needs unknown task %q", ErrUnknownDependency, name, need)
			}
		}
	}
	if offender := detectCycle(tasks); offender != "" {
		return nil, fmt.Errorf("%w: involving task %q", ErrCycleDetected, offender)
	}

	inDegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for name, def := range tasks {
		inDegree[name] += 0
		for _, need := range def.Needs {
			inDegree[name]++
			dependents[need] = append(dependents[need], name)
		}
	}

	var layers Layers
	placed := 0
	for placed < len(tasks) {
		var frontier []string
		for name, degree := range inDegree {
			if degree == 0 {
				frontier = append(frontier, name)
			}
		}
		// The DFS above already rejected cycles; an empty frontier here would
		// mean the in-degree bookkeeping disagrees with it.
		if len(frontier) == 0 {
			return nil, fmt.Errorf("%w: %d task(s) could not be placed", ErrCycleDetected, len(tasks)-placed)
		}
		sort.Strings(frontier)
		for _, name := range frontier {
			delete(inDegree, name)
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
			}
		}
		layers = append(layers, frontier)
		placed += len(frontier)
	}
	return layers, nil
}

// detectCycle runs a depth-first traversal with a recursion stack and returns
// the name of one task on a cycle, or "" when the graph is acyclic.
// Self-dependencies count as cycles.
func detectCycle(tasks map[string]*model.TaskDefinition) string {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(tasks))

	var visit func(name string) string
	visit = func(name string) string {
		switch state[name] {
		case inStack:
			return name
		case done:
			return ""
		}
		state[name] = inStack
		for _, need := range tasks[name].Needs {
			if offender := visit(need); offender != "" {
				return offender
			}
		}
		state[name] = done
		return ""
	}

	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if offender := visit(name); offender != "" {
			return offender
		}
	}
	return ""
}
