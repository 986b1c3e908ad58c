package workflow

import (
	"time"

	"vidlingo/internal/config"
)

// Settings carries the engine's per-stage bounds and retry policy.
type Settings struct {
	TranscriptTimeout time.Duration
	TranslateTimeout  time.Duration
	DownloadTimeout   time.Duration
	RenderTimeout     time.Duration
	PublishTimeout    time.Duration
	NotifyTimeout     time.Duration
	// TransientRetries applies to transcript, media fetch, probe and metadata
	// steps only.
	TransientRetries int
	RetryBackoff     time.Duration
	// Visibility is the privacy status requested for published videos.
	Visibility string
}

// SettingsFromConfig reads the [workflow] and [youtube] sections.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	w := cfg.Workflow
	return Settings{
		TranscriptTimeout: seconds(w.TranscriptTimeout),
		TranslateTimeout:  seconds(w.TranslateTimeout),
		DownloadTimeout:   seconds(w.DownloadTimeout),
		RenderTimeout:     seconds(w.RenderTimeout),
		PublishTimeout:    seconds(w.PublishTimeout),
		NotifyTimeout:     seconds(w.NotifyTimeout),
		TransientRetries:  w.TransientRetries,
		RetryBackoff:      seconds(w.RetryBackoffSeconds),
		Visibility:        cfg.YouTube.PrivacyStatus,
	}
}

func seconds(v int) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v) * time.Second
}
