// Package daemon coordinates the long-running vidlingo process.
//
// It wires configuration, the translation, media, publishing and notification
// stages, the outcome ledger, and the intake API into a single lifecycle with
// flock-based locking to prevent multiple instances sharing a data directory.
// On start it sweeps interrupted downloads and stale media left by earlier
// runs and prunes old ledger rows.
//
// Keep orchestration logic here: individual pipeline steps live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
