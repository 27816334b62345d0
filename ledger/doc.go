// Package ledger implements the tamper-evident audit log: an append-only,
// hash-chained sequence of entries with independent integrity verification
// and periodic external anchoring. Every entry hash covers the entry fields
// and the previous entry's hash, so mutating any persisted entry invalidates
// every later hash on recomputation. The ledger is the sole writer of its
// store; all appends serialize through one lock and one O_APPEND handle with
// the chain tip kept resident, never by rewriting the file.
package ledger
