package workflow

import (
	"context"

	"vidlingo/internal/job"
	"vidlingo/internal/stage"
)

// Status is a point-in-time view of the engine.
type Status struct {
	Running       bool                    `json:"running"`
	ActiveJobID   string                  `json:"active_job_id,omitempty"`
	Active        *job.ViewItem           `json:"active,omitempty"`
	Stage         stage.Name              `json:"stage,omitempty"`
	UploadPercent float64                 `json:"upload_percent"`
	QueueLength   int                     `json:"queue_length"`
	Processed     int                     `json:"processed"`
	Failed        int                     `json:"failed"`
	LastError     string                  `json:"last_error,omitempty"`
	LastPublished string                  `json:"last_published_url,omitempty"`
	Dependencies  map[string]stage.Health `json:"dependencies,omitempty"`
}

// Status returns the latest engine information.
func (e *Engine) Status(ctx context.Context) Status {
	e.mu.RLock()
	summary := Status{
		Running:       !e.stopped,
		Stage:         e.current,
		UploadPercent: e.uploadPercent,
		Processed:     e.processed,
		Failed:        e.failed,
		LastPublished: e.lastPublished,
	}
	if e.active != nil {
		view := e.active.View()
		summary.Active = &view
		summary.ActiveJobID = e.active.ID
	}
	if e.lastErr != nil {
		summary.LastError = e.lastErr.Error()
	}
	checks := e.checks
	e.mu.RUnlock()

	summary.QueueLength = e.queue.Size()
	summary.Dependencies = runHealthChecks(ctx, checks)
	return summary
}

func (e *Engine) beginJob(j *job.Job) {
	e.mu.Lock()
	e.active = j
	e.current = ""
	e.uploadPercent = 0
	e.mu.Unlock()
}

func (e *Engine) finishJob(out outcome, err error) {
	e.mu.Lock()
	e.active = nil
	e.current = ""
	if err != nil {
		e.failed++
		e.lastErr = err
	} else {
		e.processed++
		e.lastPublished = out.published.URL
	}
	e.mu.Unlock()
}

func (e *Engine) setStage(name stage.Name) {
	e.mu.Lock()
	e.current = name
	e.mu.Unlock()
}

func (e *Engine) setUploadPercent(percent float64) {
	e.mu.Lock()
	e.uploadPercent = percent
	e.mu.Unlock()
}
