package graph

import "errors"

var (
	// ErrUnknownDependency indicates a task lists a dependency name that does
	// not resolve to any task in the playbook.
	ErrUnknownDependency = errors.New("graph: unknown dependency")

	// ErrCycleDetected indicates the dependency relation is not acyclic.
	ErrCycleDetected = errors.New("graph: cycle detected")
)
