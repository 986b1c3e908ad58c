package publishing

import (
	"context"
	"log/slog"

	"vidlingo/internal/job"
	"vidlingo/internal/logging"
	"vidlingo/internal/services"
)

// ProgressFunc observes upload progress as a percentage in [0, 100].
type ProgressFunc = func(percent float64)

// Uploader is the publishing delegate.
type Uploader interface {
	Upload(ctx context.Context, channel, mediaPath, title, description, visibility string, onProgress func(percent float64)) (job.Published, error)
}

// Request describes one publish call.
type Request struct {
	Channel     string
	MediaPath   string
	Title       string
	Description string
	Visibility  string
}

// Stage publishes rendered media.
type Stage struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewStage constructs the publishing stage.
func NewStage(uploader Uploader, logger *slog.Logger) *Stage {
	return &Stage{uploader: uploader, logger: logging.NewComponentLogger(logger, "publishing")}
}

// Publish uploads req and returns the published reference. Progress is
// logged every 10% and forwarded to observe when set.
func (s *Stage) Publish(ctx context.Context, req Request, observe ProgressFunc) (job.Published, error) {
	if s == nil || s.uploader == nil {
		return job.Published{}, services.Wrap(services.ErrConfiguration, "publish", "upload", "publisher is not configured", nil)
	}
	if req.MediaPath == "" {
		return job.Published{}, services.Wrap(services.ErrValidation, "publish", "upload", "media path is required", nil)
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String("channel", req.Channel))
	sampler := logging.NewProgressSampler(10)
	onProgress := func(percent float64) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if sampler.ShouldLog(percent, "upload") {
			logger.Info("upload progress",
				logging.String(logging.FieldEventType, "upload_progress"),
				logging.Float64("percent", percent),
			)
		}
		if observe != nil {
			observe(percent)
		}
	}

	logger.Info("upload started", logging.String(logging.FieldEventType, "upload_start"), logging.String("title", req.Title))
	published, err := s.uploader.Upload(ctx, req.Channel, req.MediaPath, req.Title, req.Description, req.Visibility, onProgress)
	if err != nil {
		return job.Published{}, err
	}
	if published.URL == "" {
		return job.Published{}, services.Wrap(services.ErrContractViolation, "publish", "upload", "publisher returned no url", nil)
	}
	logger.Info("upload complete",
		logging.String(logging.FieldEventType, "upload_complete"),
		logging.String("url", published.URL),
	)
	return published, nil
}
