// Package policy provides the guardrail layer evaluated before a task is
// dispatched. A Gate holds ordered, named case-level and task-level
// predicates; the first predicate returning false denies execution with the
// rule's message. Gates are read-only once constructed and need no locking.
package policy
