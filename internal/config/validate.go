package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateDaemon checks the credentials the pipeline needs before it can
// accept work. CLI client commands only need Validate.
func (c *Config) ValidateDaemon() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required. Set VIDLINGO_LLM_API_KEY or edit %s (create with 'vidlingo config init')", defaultPath)
	}
	if c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "" {
		return fmt.Errorf("youtube.client_id and youtube.client_secret are required (edit %s)", defaultPath)
	}
	if strings.TrimSpace(c.API.Token) == "" && strings.TrimSpace(c.API.JWTSecret) == "" {
		return errors.New("api.api_token or api.jwt_secret must be set so intake requests can be authenticated")
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if len(c.Languages.Enabled) == 0 {
		return errors.New("languages.enabled must list at least one language")
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case "fs":
		return nil
	case "s3":
		if c.Artifacts.S3Bucket == "" {
			return errors.New("artifacts.s3_bucket must be set when artifacts.backend is s3")
		}
		if c.Artifacts.S3Region == "" {
			return errors.New("artifacts.s3_region must be set when artifacts.backend is s3")
		}
		if (c.Artifacts.S3AccessKeyID == "") != (c.Artifacts.S3SecretAccessKey == "") {
			return errors.New("artifacts.s3_access_key_id and artifacts.s3_secret_access_key must be set together")
		}
		return nil
	default:
		return fmt.Errorf("artifacts.backend: unsupported value %q (want fs or s3)", c.Artifacts.Backend)
	}
}

func (c *Config) validateLLM() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.BoxOpacity < 0 || c.FFmpeg.BoxOpacity > 1 {
		return errors.New("ffmpeg.box_opacity must be between 0 and 1")
	}
	if c.FFmpeg.BottomMargin < 0 {
		return errors.New("ffmpeg.bottom_margin must be non-negative")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
		return nil
	default:
		return fmt.Errorf("youtube.privacy_status: unsupported value %q", c.YouTube.PrivacyStatus)
	}
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.Backend {
	case "none":
		return nil
	case "ntfy":
		if c.Notifications.NtfyTopic == "" {
			return errors.New("notifications.ntfy_topic must be set when notifications.backend is ntfy")
		}
		return nil
	case "customerio":
		if strings.TrimSpace(c.Notifications.CustomerIOAppKey) == "" {
			return errors.New("notifications.customerio_app_key must be set when notifications.backend is customerio")
		}
		return nil
	default:
		return fmt.Errorf("notifications.backend: unsupported value %q (want none, ntfy, or customerio)", c.Notifications.Backend)
	}
}

func (c *Config) validateWorkflow() error {
	timeouts := []struct {
		name  string
		value int
	}{
		{"workflow.transcript_timeout", c.Workflow.TranscriptTimeout},
		{"workflow.translate_timeout", c.Workflow.TranslateTimeout},
		{"workflow.download_timeout", c.Workflow.DownloadTimeout},
		{"workflow.render_timeout", c.Workflow.RenderTimeout},
		{"workflow.publish_timeout", c.Workflow.PublishTimeout},
		{"workflow.notify_timeout", c.Workflow.NotifyTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf("%s must be positive", t.name)
		}
	}
	if c.Workflow.TransientRetries < 0 || c.Workflow.TransientRetries > 5 {
		return errors.New("workflow.transient_retries must be between 0 and 5")
	}
	if c.Workflow.RetryBackoffSeconds < 0 {
		return errors.New("workflow.retry_backoff_seconds must be non-negative")
	}
	if c.Workflow.MinFreeGiB < 0 {
		return errors.New("workflow.min_free_gib must be non-negative")
	}
	if c.Workflow.MediaRetentionHours < 0 || c.Workflow.HistoryRetentionDays < 0 {
		return errors.New("workflow retention settings must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
