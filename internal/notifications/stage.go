package notifications

import (
	"context"
	"log/slog"

	"vidlingo/internal/logging"
)

// Stage sends completion notices on behalf of the pipeline.
type Stage struct {
	service Service
	logger  *slog.Logger
}

// NewStage wraps service. A nil service behaves as a no-op.
func NewStage(service Service, logger *slog.Logger) *Stage {
	if service == nil {
		service = noopService{}
	}
	return &Stage{service: service, logger: logging.NewComponentLogger(logger, "notifications")}
}

// Notify delivers msg. Failures are logged and reported as false; they are
// never returned as errors.
func (s *Stage) Notify(ctx context.Context, msg Message) bool {
	if s == nil || s.service == nil {
		return false
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String("backend", s.service.Name()))
	if err := s.service.Send(ctx, msg); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notification backend settings"),
			logging.String(logging.FieldImpact, "requester was not told; video remains published"),
		)
		return false
	}
	logger.Info("notification sent", logging.String(logging.FieldEventType, "notify_sent"))
	return true
}
