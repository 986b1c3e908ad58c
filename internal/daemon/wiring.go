package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidlingo/internal/artifacts"
	"vidlingo/internal/config"
	"vidlingo/internal/deps"
	"vidlingo/internal/history"
	"vidlingo/internal/media"
	"vidlingo/internal/media/ffprobe"
	"vidlingo/internal/notifications"
	"vidlingo/internal/preflight"
	"vidlingo/internal/publishing"
	"vidlingo/internal/services/ffmpeg"
	"vidlingo/internal/services/llm"
	"vidlingo/internal/services/youtube"
	"vidlingo/internal/services/ytdlp"
	"vidlingo/internal/translation"
	"vidlingo/internal/workflow"
)

// Build wires the production pipeline described by cfg into a daemon.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	local, err := artifacts.NewFS(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	transcripts, err := transcriptStore(ctx, cfg, local)
	if err != nil {
		return nil, err
	}

	downloader := ytdlp.New(ytdlp.Options{
		Binary:        cfg.YTDLP.Binary,
		CookiesFile:   cfg.YTDLP.CookiesFile,
		CaptionLang:   cfg.YTDLP.CaptionLang,
		VideoFormat:   cfg.YTDLP.VideoFormat,
		AudioFormat:   cfg.YTDLP.AudioFormat,
		SocketTimeout: cfg.YTDLP.SocketTimeout,
	})
	renderer := ffmpeg.New(cfg.FFmpeg.FFmpegBinary, ffmpeg.Style{
		Font:         cfg.FFmpeg.Font,
		FontSize:     cfg.FFmpeg.FontSize,
		FontColor:    cfg.FFmpeg.FontColor,
		BoxOpacity:   cfg.FFmpeg.BoxOpacity,
		BottomMargin: cfg.FFmpeg.BottomMargin,
	})
	prober := ffprobe.NewProber(cfg.FFmpeg.FFprobeBinary, nil)
	translator := llm.NewClient(llm.ConfigFromSettings(cfg.LLM), llm.WithProtectedTerms(cfg.LLM.ProtectedTerms))

	tokens := youtube.NewTokenStore(cfg.Paths.CredentialsDir,
		youtube.OAuthConfig(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret, cfg.YouTube.RedirectURL))
	publisher := youtube.NewPublisher(tokens, youtube.Options{
		PrivacyStatus:     cfg.YouTube.PrivacyStatus,
		NotifySubscribers: cfg.YouTube.NotifySubscribers,
		CategoryID:        cfg.YouTube.CategoryID,
	}, logger)

	stages := workflow.Stages{
		Transcripts: downloader,
		Translation: translation.NewStage(transcripts, translator, logger),
		Media: media.NewStage(local, downloader, renderer, prober, logger,
			media.WithSpaceCheck(preflight.FreeSpaceCheck(cfg.Workflow.MinFreeGiB))),
		Publishing: publishing.NewStage(publisher, logger),
		Notify:     notifications.NewStage(notifications.NewService(cfg), logger),
		Artifacts:  transcripts,
	}

	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	engine := workflow.NewEngine(stages, workflow.SettingsFromConfig(cfg), logger,
		workflow.WithHistory(hist),
		workflow.WithHealthChecks(healthChecks(cfg, tokens)...),
	)

	d, err := New(cfg, Components{Engine: engine, History: hist, Credentials: tokens}, logger)
	if err != nil {
		engine.Stop()
		_ = hist.Close()
		return nil, err
	}
	return d, nil
}

// transcriptStore returns the cache for translated transcripts. Media always
// stays on local disk because the downloader and renderer need file paths.
func transcriptStore(ctx context.Context, cfg *config.Config, local *artifacts.FS) (artifacts.Store, error) {
	if !strings.EqualFold(strings.TrimSpace(cfg.Artifacts.Backend), "s3") {
		return local, nil
	}
	a := cfg.Artifacts
	store, err := artifacts.NewS3(ctx, artifacts.S3Options{
		Bucket:          a.S3Bucket,
		Region:          a.S3Region,
		Endpoint:        a.S3Endpoint,
		Prefix:          a.S3Prefix,
		UsePathStyle:    a.S3UsePathStyle,
		AccessKeyID:     a.S3AccessKeyID,
		SecretAccessKey: a.S3SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open s3 transcript store: %w", err)
	}
	return store, nil
}

// healthChecks covers the external binaries and the channel credentials of
// every enabled language. They run on each status request, so none of them
// touches the network.
func healthChecks(cfg *config.Config, creds CredentialChecker) []workflow.HealthCheck {
	var checks []workflow.HealthCheck
	for _, req := range preflight.Requirements(cfg) {
		checks = append(checks, workflow.HealthCheck{
			Name: req.Name,
			Check: func(context.Context) error {
				if status := deps.Check(req); !status.Available {
					return errors.New(status.Detail)
				}
				return nil
			},
		})
	}
	checks = append(checks, workflow.HealthCheck{
		Name: "channels",
		Check: func(context.Context) error {
			var missing []string
			for _, lang := range cfg.EnabledLanguages() {
				if !creds.Has(lang.String()) {
					missing = append(missing, lang.String())
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("no credentials for %s", strings.Join(missing, ", "))
			}
			return nil
		},
	})
	return checks
}
