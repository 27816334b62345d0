// Package engine drives the task state machine over a compiled playbook:
// layers execute strictly in order, tasks within a layer run concurrently,
// and every task passes the idempotency check, input resolution, the
// approval gate and the policy gate before its connector is invoked. A task
// awaiting approval suspends the task only; Approve resumes it and sweeps
// any dependents that became ready. Every transition is recorded in the
// hash-chained audit ledger as a snapshot of the task fields.
package engine
