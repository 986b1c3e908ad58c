// Package history records terminal job outcomes in a small SQLite ledger.
//
// Only finished jobs are stored; the pending queue is never persisted. The
// daemon reads the ledger for the history and status endpoints, and write
// failures never affect queue progress.
package history
