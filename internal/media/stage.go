package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"vidlingo/internal/artifacts"
	"vidlingo/internal/fileutil"
	"vidlingo/internal/job"
	"vidlingo/internal/language"
	"vidlingo/internal/logging"
	"vidlingo/internal/media/ffprobe"
	"vidlingo/internal/services"
	"vidlingo/internal/services/ffmpeg"
	"vidlingo/internal/services/ytdlp"
)

// Downloader fetches streams and source metadata.
type Downloader interface {
	DownloadVideoOnly(ctx context.Context, videoID, dest string) error
	DownloadAudioOnly(ctx context.Context, videoID, dest string) error
	Probe(ctx context.Context, videoID string) (ytdlp.VideoInfo, error)
}

// Renderer muxes streams and burns caption overlays.
type Renderer interface {
	Mux(ctx context.Context, videoPath, audioPath, dest string) error
	BurnText(ctx context.Context, src string, overlays []ffmpeg.Overlay, dest string) error
}

// Inspector reads container metadata from a local file.
type Inspector interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// SpaceCheck reports an error when dir cannot hold another download.
type SpaceCheck func(dir string) error

// Stage owns the merged and rendered media artifacts.
type Stage struct {
	store      artifacts.LocalStore
	downloader Downloader
	renderer   Renderer
	inspector  Inspector
	spaceCheck SpaceCheck
	logger     *slog.Logger
}

// Option customizes the stage.
type Option func(*Stage)

// WithSpaceCheck runs check against the media directory before downloading.
func WithSpaceCheck(check SpaceCheck) Option {
	return func(s *Stage) {
		s.spaceCheck = check
	}
}

// NewStage constructs the media stage.
func NewStage(store artifacts.LocalStore, downloader Downloader, renderer Renderer, inspector Inspector, logger *slog.Logger, opts ...Option) *Stage {
	s := &Stage{
		store:      store,
		downloader: downloader,
		renderer:   renderer,
		inspector:  inspector,
		logger:     logging.NewComponentLogger(logger, "media"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAndMerge returns the path of the merged source video, downloading and
// muxing it when no merged file exists yet.
func (s *Stage) FetchAndMerge(ctx context.Context, videoID string) (string, error) {
	if s == nil || s.store == nil || s.downloader == nil || s.renderer == nil {
		return "", services.Wrap(services.ErrConfiguration, "media", "fetch", "media stage is not configured", nil)
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldVideoID, videoID))
	key := artifacts.MergedKey(videoID)
	merged, err := s.store.Path(key)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "media", "fetch", "resolve merged path", err)
	}
	exists, err := fileutil.RegularFileExists(merged)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "media", "fetch", "stat merged media", err)
	}
	if exists {
		logger.Info("reusing merged media", logging.String(logging.FieldEventType, "media_reused"), logging.String("path", merged))
		return merged, nil
	}
	dir := filepath.Dir(merged)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "media", "fetch", "create media directory", err)
	}
	if s.spaceCheck != nil {
		if err := s.spaceCheck(dir); err != nil {
			return "", services.Wrap(services.ErrConfiguration, "media", "fetch", "insufficient disk space", err)
		}
	}

	base := strings.TrimSuffix(merged, filepath.Ext(merged))
	videoPart := base + ".video.part"
	audioPart := base + ".audio.part"
	defer func() {
		_ = fileutil.RemoveIfExists(videoPart)
		_ = fileutil.RemoveIfExists(audioPart)
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.downloader.DownloadVideoOnly(groupCtx, videoID, videoPart)
	})
	group.Go(func() error {
		return s.downloader.DownloadAudioOnly(groupCtx, videoID, audioPart)
	})
	if err := group.Wait(); err != nil {
		logger.Warn("stream download failed",
			logging.Args(append(logging.ErrorAttrs(err),
				logging.String(logging.FieldEventType, "download_failed"),
				logging.String(logging.FieldImpact, "job aborted; intermediates removed"),
			)...)...,
		)
		return "", err
	}
	logger.Info("streams downloaded", logging.String(logging.FieldEventType, "download_complete"))

	if err := s.renderer.Mux(ctx, videoPart, audioPart, merged); err != nil {
		_ = fileutil.RemoveIfExists(merged)
		return "", err
	}
	logger.Info("streams merged", logging.String(logging.FieldEventType, "merge_complete"), logging.String("path", merged))
	return merged, nil
}

// Probe gathers title, description and duration. The duration comes from
// the merged file when it can be read and from the source listing otherwise.
func (s *Stage) Probe(ctx context.Context, videoID, mergedPath string) (job.VideoMetadata, error) {
	if s == nil || s.downloader == nil {
		return job.VideoMetadata{}, services.Wrap(services.ErrConfiguration, "probe", "metadata", "media stage is not configured", nil)
	}
	info, err := s.downloader.Probe(ctx, videoID)
	if err != nil {
		return job.VideoMetadata{}, err
	}
	meta := job.VideoMetadata{
		Title:           info.Title,
		Description:     info.Description,
		DurationSeconds: info.DurationSeconds,
	}
	if s.inspector != nil && mergedPath != "" {
		result, err := s.inspector.Inspect(ctx, mergedPath)
		if err != nil {
			return job.VideoMetadata{}, services.Wrap(services.ErrDelegate, "probe", "inspect", mergedPath, err)
		}
		if result.VideoStreamCount() == 0 {
			return job.VideoMetadata{}, services.Wrap(services.ErrContractViolation, "probe", "inspect", "merged file has no video stream", nil)
		}
		if d := result.DurationSeconds(); d > 0 {
			meta.DurationSeconds = d
		}
	}
	if meta.DurationSeconds <= 0 {
		return job.VideoMetadata{}, services.Wrap(services.ErrContractViolation, "probe", "duration", "video duration unknown", nil)
	}
	return meta, nil
}

// BurnCaptions renders parts onto the merged video and returns the path of
// the captioned file.
func (s *Stage) BurnCaptions(ctx context.Context, videoID string, lang language.Language, mergedPath string, parts []job.TranslatedPart, durationSeconds float64) (string, error) {
	if s == nil || s.store == nil || s.renderer == nil {
		return "", services.Wrap(services.ErrConfiguration, "render", "burn", "media stage is not configured", nil)
	}
	if len(parts) == 0 {
		return "", services.Wrap(services.ErrValidation, "render", "burn", "no caption parts", nil)
	}
	rendered, err := s.store.Path(artifacts.RenderedKey(videoID, lang))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "render", "burn", "resolve rendered path", err)
	}
	overlays := OverlayWindows(parts, durationSeconds)
	if err := s.renderer.BurnText(ctx, mergedPath, overlays, rendered); err != nil {
		_ = fileutil.RemoveIfExists(rendered)
		return "", err
	}
	logging.WithContext(ctx, s.logger).Info("captions rendered",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String(logging.FieldVideoID, videoID),
		logging.String(logging.FieldLanguage, lang.String()),
		logging.Int("captions", len(overlays)),
		logging.String("path", rendered),
	)
	return rendered, nil
}

// Cleanup removes the merged and rendered files for a finished job.
func (s *Stage) Cleanup(ctx context.Context, videoID string, lang language.Language) error {
	if s == nil || s.store == nil {
		return nil
	}
	var errs []string
	for _, key := range []artifacts.Key{artifacts.RenderedKey(videoID, lang), artifacts.MergedKey(videoID)} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("media cleanup: %s", strings.Join(errs, "; "))
	}
	return nil
}
