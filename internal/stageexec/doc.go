// Package stageexec runs one pipeline step with a bounded deadline, bounded
// retry for transient failures and uniform start, completion and failure
// logging.
package stageexec
