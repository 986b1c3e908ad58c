package api

import (
	"vidlingo/internal/history"
	"vidlingo/internal/job"
	"vidlingo/internal/workflow"
)

// SubmitRequest is the body of POST /api/jobs.
type SubmitRequest struct {
	// Video is a watch URL, short link, shorts URL or bare video id.
	Video    string `json:"video" validate:"required"`
	Language string `json:"language" validate:"required"`
	// Email is required with the static token; JWT callers get it from the
	// token's email claim.
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID       string `json:"job_id"`
	VideoID     string `json:"video_id"`
	Language    string `json:"language"`
	Position    int    `json:"position"`
	QueueLength int    `json:"queue_length"`
}

// QueueResponse is the public queue view.
type QueueResponse struct {
	Length int            `json:"length"`
	Items  []job.ViewItem `json:"items"`
}

// DependencyStatus captures availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DataDir      string             `json:"data_dir"`
	HistoryPath  string             `json:"history_path"`
	LockFilePath string             `json:"lock_file_path"`
	Languages    []string           `json:"languages"`
	Workflow     workflow.Status    `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// HistoryResponse lists recent outcomes, newest first.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

// ErrorResponse is returned for every non-2xx reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
