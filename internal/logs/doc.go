// Package logs reads the daemon log file for `vidlingo logs`.
//
// It returns the last N lines with bounded memory, resumes from a byte offset
// in follow mode, and can keep only the lines that mention one job id.
package logs
