package config

import (
	"fmt"
	"strings"

	"vidlingo/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	c.normalizeArtifacts()
	c.normalizeLLM()
	if err := c.normalizeYTDLP(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeYouTube()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CredentialsDir) == "" {
		c.Paths.CredentialsDir = defaultCredentialsDir
	}
	if c.Paths.CredentialsDir, err = expandPath(c.Paths.CredentialsDir); err != nil {
		return fmt.Errorf("paths.credentials_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

// normalizeLanguages canonicalizes names ("spanish" -> "Spanish") and drops
// duplicates while keeping the configured order.
func (c *Config) normalizeLanguages() error {
	seen := make(map[language.Language]struct{}, len(c.Languages.Enabled))
	out := make([]string, 0, len(c.Languages.Enabled))
	for _, raw := range c.Languages.Enabled {
		lang, err := language.Parse(raw)
		if err != nil {
			return fmt.Errorf("languages.enabled: %w", err)
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang.String())
	}
	c.Languages.Enabled = out
	return nil
}

func (c *Config) normalizeArtifacts() {
	c.Artifacts.Backend = strings.ToLower(strings.TrimSpace(c.Artifacts.Backend))
	if c.Artifacts.Backend == "" {
		c.Artifacts.Backend = defaultArtifactsBackend
	}
	c.Artifacts.S3Bucket = strings.TrimSpace(c.Artifacts.S3Bucket)
	c.Artifacts.S3Region = strings.TrimSpace(c.Artifacts.S3Region)
	c.Artifacts.S3Endpoint = strings.TrimSpace(c.Artifacts.S3Endpoint)
	c.Artifacts.S3Prefix = strings.Trim(strings.TrimSpace(c.Artifacts.S3Prefix), "/")
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.MetadataModel = strings.TrimSpace(c.LLM.MetadataModel)
	if c.LLM.MetadataModel == "" {
		c.LLM.MetadataModel = c.LLM.Model
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
}

func (c *Config) normalizeYTDLP() error {
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	if strings.TrimSpace(c.YTDLP.CaptionLang) == "" {
		c.YTDLP.CaptionLang = defaultCaptionLanguage
	}
	if strings.TrimSpace(c.YTDLP.VideoFormat) == "" {
		c.YTDLP.VideoFormat = defaultVideoFormat
	}
	if strings.TrimSpace(c.YTDLP.AudioFormat) == "" {
		c.YTDLP.AudioFormat = defaultAudioFormat
	}
	if c.YTDLP.CookiesFile != "" {
		expanded, err := expandPath(c.YTDLP.CookiesFile)
		if err != nil {
			return fmt.Errorf("ytdlp.cookies_file: %w", err)
		}
		c.YTDLP.CookiesFile = expanded
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	if strings.TrimSpace(c.FFmpeg.FFmpegBinary) == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.FFmpeg.FFprobeBinary) == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.FFmpeg.Font) == "" {
		c.FFmpeg.Font = defaultFont
	}
	if c.FFmpeg.FontSize <= 0 {
		c.FFmpeg.FontSize = defaultFontSize
	}
	if strings.TrimSpace(c.FFmpeg.FontColor) == "" {
		c.FFmpeg.FontColor = defaultFontColor
	}
}

func (c *Config) normalizeYouTube() {
	c.YouTube.ClientID = strings.TrimSpace(c.YouTube.ClientID)
	c.YouTube.ClientSecret = strings.TrimSpace(c.YouTube.ClientSecret)
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	if strings.TrimSpace(c.YouTube.RedirectURL) == "" {
		c.YouTube.RedirectURL = defaultRedirectURL
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.Backend = strings.ToLower(strings.TrimSpace(c.Notifications.Backend))
	switch c.Notifications.Backend {
	case "":
		c.Notifications.Backend = defaultNotifyBackend
	case "customer.io", "customer_io":
		c.Notifications.Backend = "customerio"
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if strings.TrimSpace(c.Notifications.CustomerIOURL) == "" {
		c.Notifications.CustomerIOURL = defaultCustomerIOURL
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
