// Package services defines shared utilities consumed by the pipeline stages
// and the delegate clients that sit behind them.
//
// It owns the context helpers that stamp job IDs, stage names, and correlation
// identifiers for logging, plus the error markers and Wrap helper that let the
// workflow engine classify a stage failure (delegate, contract violation,
// timeout, transient) without inspecting message text.
package services
