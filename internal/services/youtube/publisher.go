package youtube

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"vidlingo/internal/job"
	"vidlingo/internal/logging"
	"vidlingo/internal/services"
)

// Options configures uploads.
type Options struct {
	PrivacyStatus     string
	NotifySubscribers bool
	CategoryID        string
}

// Publisher uploads videos through the YouTube Data API.
type Publisher struct {
	tokens  *TokenStore
	opts    Options
	logger  *slog.Logger
	service func(ctx context.Context, ts oauth2.TokenSource) (*ytapi.Service, error)
}

// Option customizes the publisher.
type Option func(*Publisher)

// WithClientOptions appends API client options (endpoint overrides in tests).
func WithClientOptions(extra ...option.ClientOption) Option {
	return func(p *Publisher) {
		p.service = func(ctx context.Context, ts oauth2.TokenSource) (*ytapi.Service, error) {
			opts := append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, extra...)
			return ytapi.NewService(ctx, opts...)
		}
	}
}

// NewPublisher returns a publisher that authenticates with tokens.
func NewPublisher(tokens *TokenStore, opts Options, logger *slog.Logger, options ...Option) *Publisher {
	if strings.TrimSpace(opts.PrivacyStatus) == "" {
		opts.PrivacyStatus = "unlisted"
	}
	p := &Publisher{
		tokens: tokens,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "youtube"),
		service: func(ctx context.Context, ts oauth2.TokenSource) (*ytapi.Service, error) {
			return ytapi.NewService(ctx, option.WithTokenSource(ts))
		},
	}
	for _, apply := range options {
		apply(p)
	}
	return p
}

// WatchURL returns the public URL of a published video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Upload publishes mediaPath to channel. onProgress, when set, receives the
// percentage of bytes sent.
func (p *Publisher) Upload(ctx context.Context, channel, mediaPath, title, description, visibility string, onProgress func(percent float64)) (job.Published, error) {
	if p == nil || p.tokens == nil {
		return job.Published{}, services.Wrap(services.ErrConfiguration, "publish", "upload", "publisher is not configured", nil)
	}
	file, err := os.Open(mediaPath)
	if err != nil {
		return job.Published{}, services.Wrap(services.ErrNotFound, "publish", "upload", "rendered media missing", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return job.Published{}, services.Wrap(services.ErrDelegate, "publish", "upload", "stat rendered media", err)
	}
	size := info.Size()

	ts, err := p.tokens.TokenSource(ctx, channel)
	if err != nil {
		return job.Published{}, err
	}
	svc, err := p.service(ctx, ts)
	if err != nil {
		return job.Published{}, services.Wrap(services.ErrConfiguration, "publish", "client", "create youtube client", err)
	}
	if strings.TrimSpace(visibility) == "" {
		visibility = p.opts.PrivacyStatus
	}

	video := &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       truncateRunes(title, 100),
			Description: truncateRunes(description, 5000),
			CategoryId:  p.opts.CategoryID,
		},
		Status: &ytapi.VideoStatus{PrivacyStatus: visibility},
	}
	call := svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(p.opts.NotifySubscribers).
		Media(file).
		Context(ctx)
	if onProgress != nil {
		call = call.ProgressUpdater(func(current, total int64) {
			if total <= 0 {
				total = size
			}
			if total > 0 {
				onProgress(float64(current) * 100 / float64(total))
			}
		})
	}
	created, err := call.Do()
	if err != nil {
		return job.Published{}, classify(err)
	}
	if created == nil || strings.TrimSpace(created.Id) == "" {
		return job.Published{}, services.Wrap(services.ErrContractViolation, "publish", "upload", "response carried no video id", nil)
	}
	if onProgress != nil {
		onProgress(100)
	}
	return job.Published{ExternalID: created.Id, URL: WatchURL(created.Id)}, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "publish", "upload", "upload timed out", err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "publish", "upload", "channel rejected credentials or quota exhausted", err)
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, "publish", "upload", "youtube unavailable", err)
		}
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return services.Wrap(services.ErrConfiguration, "publish", "upload", "token refresh failed; rerun channel setup", err)
	}
	return services.Wrap(services.ErrDelegate, "publish", "upload", "youtube upload failed", err)
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
