// Package model defines the shared data contracts of the engine: cases,
// playbooks, task definitions and the runtime Task record with its status
// state machine. Task records are owned and mutated exclusively by the
// execution engine; every other component receives snapshots.
package model
