// Package graph compiles a playbook's task definitions into an ordered
// sequence of parallelizable layers. Compilation validates dependency names,
// rejects cycles and is total: on error no partial result is returned.
package graph
