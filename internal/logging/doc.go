// Package logging assembles structured slog loggers and formatting helpers used
// across vidlingo.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code automatically tags
// log lines with job IDs, stage names, and correlation IDs. NewNop provides a
// discard logger for tests and wiring code that cannot fail.
package logging
