package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vidlingo/internal/artifacts"
	"vidlingo/internal/history"
	"vidlingo/internal/job"
	"vidlingo/internal/logging"
	"vidlingo/internal/notifications"
	"vidlingo/internal/publishing"
	"vidlingo/internal/services"
	"vidlingo/internal/stage"
	"vidlingo/internal/stageexec"
	"vidlingo/internal/translation"
)

const historyWriteTimeout = 5 * time.Second

// outcome is what a finished run learned before it stopped.
type outcome struct {
	failedStage stage.Name
	published   job.Published
	title       string
}

// run executes j, the current queue head, through every stage and then
// advances the queue. It always dequeues, whatever the outcome, so it must
// only be reached through dispatch.
func (e *Engine) run(ctx context.Context, j *job.Job) {
	if j == nil {
		return
	}
	defer e.advance(j)

	ctx = services.WithJobID(ctx, j.ID)
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldVideoID, j.VideoID),
		logging.String(logging.FieldLanguage, j.Language.String()),
	)
	e.beginJob(j)
	started := time.Now().UTC()
	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))

	out, err := e.execute(ctx, logger, j)
	if err != nil {
		e.handleJobFailure(logger, out.failedStage, err)
	} else {
		logger.Info("job published",
			logging.String(logging.FieldEventType, "job_complete"),
			logging.String("url", out.published.URL),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	e.finishJob(out, err)
	e.record(ctx, logger, j, started, out, err)
}

func (e *Engine) execute(ctx context.Context, logger *slog.Logger, j *job.Job) (outcome, error) {
	var out outcome
	s := e.stages
	if s.Transcripts == nil || s.Translation == nil || s.Media == nil || s.Publishing == nil {
		out.failedStage = stage.Transcript
		return out, services.Wrap(services.ErrConfiguration, "workflow", "run", "pipeline stages are not configured", nil)
	}
	retries := e.settings.TransientRetries

	var parts []job.TranscriptPart
	err := e.step(ctx, stage.Transcript, "fetch transcript", e.settings.TranscriptTimeout, retries, func(ctx context.Context) error {
		fetched, err := s.Transcripts.FetchTranscript(ctx, j.VideoID)
		if err != nil {
			return err
		}
		if len(fetched) == 0 {
			return services.Wrap(services.ErrNotFound, stage.Transcript.String(), "fetch transcript", "transcript has no caption lines", nil)
		}
		parts = fetched
		return nil
	})
	if err != nil {
		out.failedStage = stage.Transcript
		return out, err
	}

	var translated []job.TranslatedPart
	err = e.step(ctx, stage.Translate, "translate transcript", e.settings.TranslateTimeout, 0, func(ctx context.Context) error {
		var err error
		translated, err = s.Translation.TranslateTranscript(ctx, j.VideoID, j.Language, parts)
		return err
	})
	if err != nil {
		out.failedStage = stage.Translate
		return out, err
	}

	var mergedPath string
	err = e.step(ctx, stage.FetchMedia, "fetch and merge", e.settings.DownloadTimeout, retries, func(ctx context.Context) error {
		var err error
		mergedPath, err = s.Media.FetchAndMerge(ctx, j.VideoID)
		return err
	})
	if err != nil {
		out.failedStage = stage.FetchMedia
		return out, err
	}

	var meta job.VideoMetadata
	err = e.step(ctx, stage.Probe, "probe", e.settings.TranscriptTimeout, retries, func(ctx context.Context) error {
		var err error
		meta, err = s.Media.Probe(ctx, j.VideoID, mergedPath)
		return err
	})
	if err != nil {
		out.failedStage = stage.Probe
		return out, err
	}

	var renderedPath string
	err = e.step(ctx, stage.Render, "burn captions", e.settings.RenderTimeout, 0, func(ctx context.Context) error {
		var err error
		renderedPath, err = s.Media.BurnCaptions(ctx, j.VideoID, j.Language, mergedPath, translated, meta.DurationSeconds)
		return err
	})
	if err != nil {
		out.failedStage = stage.Render
		return out, err
	}

	var localized translation.Metadata
	err = e.step(ctx, stage.Metadata, "translate metadata", e.settings.TranslateTimeout, retries, func(ctx context.Context) error {
		var err error
		localized, err = s.Translation.TranslateMetadata(ctx, j.Language, meta.Title, meta.Description)
		return err
	})
	if err != nil {
		out.failedStage = stage.Metadata
		return out, err
	}
	out.title = localized.Title

	req := publishing.Request{
		Channel:     j.Requester.Channel,
		MediaPath:   renderedPath,
		Title:       localized.Title,
		Description: localized.Description,
		Visibility:  e.settings.Visibility,
	}
	err = e.step(ctx, stage.Publish, "upload", e.settings.PublishTimeout, 0, func(ctx context.Context) error {
		var err error
		out.published, err = s.Publishing.Publish(ctx, req, e.setUploadPercent)
		return err
	})
	if err != nil {
		out.failedStage = stage.Publish
		return out, err
	}

	e.notify(ctx, logger, j, out)
	e.cleanup(ctx, logger, j)
	return out, nil
}

// step runs one stage under its timeout and retry policy.
func (e *Engine) step(ctx context.Context, name stage.Name, op string, timeout time.Duration, retries int, fn func(context.Context) error) error {
	e.setStage(name)
	return stageexec.Run(ctx, stageexec.Options{
		Logger:    e.logger,
		Stage:     name,
		Operation: op,
		Timeout:   timeout,
		Retries:   retries,
		Backoff:   e.settings.RetryBackoff,
		Sleep:     e.sleep,
	}, fn)
}

func (e *Engine) notify(ctx context.Context, logger *slog.Logger, j *job.Job, out outcome) {
	e.setStage(stage.Notify)
	if e.stages.Notify == nil || j.Requester.Email == "" {
		logger.Debug("no requester address; skipping notification")
		return
	}
	notifyCtx := services.WithStage(ctx, stage.Notify.String())
	if e.settings.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, e.settings.NotifyTimeout)
		defer cancel()
	}
	e.stages.Notify.Notify(notifyCtx, notifications.CompletionMessage(j.Requester.Email, out.title, out.published.URL))
}

// cleanup removes the job's transcript and media artifacts once the video is
// published. Failures leave files behind but never fail the job.
func (e *Engine) cleanup(ctx context.Context, logger *slog.Logger, j *job.Job) {
	e.setStage(stage.Cleanup)
	if e.stages.Media != nil {
		if err := e.stages.Media.Cleanup(ctx, j.VideoID, j.Language); err != nil {
			logging.WarnWithContext(logger, "media cleanup failed", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "media files remain on disk"),
				logging.String(logging.FieldErrorHint, "remove them manually from the media directory"),
			)
		}
	}
	if e.stages.Artifacts != nil {
		key := artifacts.TranscriptKey(j.VideoID, j.Language)
		if err := e.stages.Artifacts.Delete(ctx, key); err != nil {
			logging.WarnWithContext(logger, "transcript cleanup failed", "cleanup_failed",
				logging.Error(err),
				logging.String("key", key.String()),
				logging.String(logging.FieldImpact, "cached translation remains"),
			)
		}
	}
}

func (e *Engine) handleJobFailure(logger *slog.Logger, failed stage.Name, err error) {
	attrs := append(logging.ErrorAttrs(err),
		logging.String(logging.FieldStage, failed.String()),
		logging.String(logging.FieldImpact, "job dropped; queue advances"),
	)
	if errors.Is(err, context.Canceled) {
		logging.WarnWithContext(logger, "job interrupted by shutdown", "job_interrupted", attrs...)
		return
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed", append(attrs, logging.Alert("job_failure"))...)
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, j *job.Job, started time.Time, out outcome, runErr error) {
	if e.history == nil {
		return
	}
	entry := history.Entry{
		JobID:           j.ID,
		VideoID:         j.VideoID,
		Language:        j.Language.String(),
		Outcome:         history.OutcomePublished,
		PublishedURL:    out.published.URL,
		TranslatedTitle: out.title,
		SubmittedAt:     j.SubmittedAt,
		StartedAt:       started,
		FinishedAt:      time.Now().UTC(),
	}
	if runErr != nil {
		details := services.Details(runErr)
		entry.Outcome = history.OutcomeFailed
		entry.FailedStage = out.failedStage.String()
		entry.ErrorKind = details.Kind
		entry.ErrorMessage = details.Message
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := e.history.Record(recordCtx, entry); err != nil {
		logging.WarnWithContext(logger, "failed to record job outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "outcome missing from history"),
			logging.String(logging.FieldErrorHint, "check history.db permissions"),
		)
	}
}

// advance removes the finished head so the next job starts.
func (e *Engine) advance(j *job.Job) {
	if _, err := e.queue.DequeueHead(); err != nil {
		e.logger.Error("queue advance failed",
			logging.String(logging.FieldJobID, j.ID),
			logging.String(logging.FieldEventType, "queue_invariant_broken"),
			logging.Alert("queue_invariant"),
			logging.Error(err),
		)
	}
}
