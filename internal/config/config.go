package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"vidlingo/internal/language"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	LogDir         string `toml:"log_dir"`
	CredentialsDir string `toml:"credentials_dir"`
	APIBind        string `toml:"api_bind" env:"VIDLINGO_API_BIND"`
}

// API contains intake authentication settings.
type API struct {
	Token              string `toml:"api_token" env:"VIDLINGO_API_TOKEN"`
	JWTSecret          string `toml:"jwt_secret" env:"VIDLINGO_API_JWT_SECRET"`
	JWTIssuer          string `toml:"jwt_issuer"`
	AllowedEmailDomain string `toml:"allowed_email_domain"`
}

// Languages lists the target languages the daemon accepts. Names must be
// members of the supported language table.
type Languages struct {
	Enabled []string `toml:"enabled"`
}

// Artifacts selects where translated transcripts are cached.
type Artifacts struct {
	Backend           string `toml:"backend"`
	S3Bucket          string `toml:"s3_bucket"`
	S3Region          string `toml:"s3_region"`
	S3Endpoint        string `toml:"s3_endpoint"`
	S3Prefix          string `toml:"s3_prefix"`
	S3UsePathStyle    bool   `toml:"s3_use_path_style"`
	S3AccessKeyID     string `toml:"s3_access_key_id" env:"VIDLINGO_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `toml:"s3_secret_access_key" env:"VIDLINGO_S3_SECRET_ACCESS_KEY"`
}

// LLM contains translator connection settings.
type LLM struct {
	APIKey         string   `toml:"api_key" env:"VIDLINGO_LLM_API_KEY"`
	BaseURL        string   `toml:"base_url"`
	Model          string   `toml:"model"`
	MetadataModel  string   `toml:"metadata_model"`
	Referer        string   `toml:"referer"`
	Title          string   `toml:"title"`
	Temperature    float64  `toml:"temperature"`
	ProtectedTerms []string `toml:"protected_terms"`
	MaxTokens      int      `toml:"max_tokens"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// YTDLP contains transcript and stream download settings.
type YTDLP struct {
	Binary        string `toml:"binary"`
	CookiesFile   string `toml:"cookies_file"`
	CaptionLang   string `toml:"caption_language"`
	VideoFormat   string `toml:"video_format"`
	AudioFormat   string `toml:"audio_format"`
	SocketTimeout int    `toml:"socket_timeout"`
}

// FFmpeg contains mux and caption rendering settings.
type FFmpeg struct {
	FFmpegBinary  string  `toml:"ffmpeg_binary"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
	Font          string  `toml:"font"`
	FontSize      int     `toml:"font_size"`
	FontColor     string  `toml:"font_color"`
	BoxOpacity    float64 `toml:"box_opacity"`
	BottomMargin  int     `toml:"bottom_margin"`
}

// YouTube contains publisher settings.
type YouTube struct {
	ClientID          string `toml:"client_id" env:"VIDLINGO_YOUTUBE_CLIENT_ID"`
	ClientSecret      string `toml:"client_secret" env:"VIDLINGO_YOUTUBE_CLIENT_SECRET"`
	RedirectURL       string `toml:"redirect_url"`
	PrivacyStatus     string `toml:"privacy_status"`
	NotifySubscribers bool   `toml:"notify_subscribers"`
	CategoryID        string `toml:"category_id"`
}

// Notifications contains completion notice settings.
type Notifications struct {
	Backend          string `toml:"backend"`
	NtfyTopic        string `toml:"ntfy_topic"`
	CustomerIOAppKey string `toml:"customerio_app_key" env:"VIDLINGO_CUSTOMERIO_APP_KEY"`
	CustomerIOURL    string `toml:"customerio_url"`
	FromAddress      string `toml:"from_address"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Workflow contains per-stage timeouts (seconds) and retry policy.
type Workflow struct {
	TranscriptTimeout    int `toml:"transcript_timeout"`
	TranslateTimeout     int `toml:"translate_timeout"`
	DownloadTimeout      int `toml:"download_timeout"`
	RenderTimeout        int `toml:"render_timeout"`
	PublishTimeout       int `toml:"publish_timeout"`
	NotifyTimeout        int `toml:"notify_timeout"`
	TransientRetries     int `toml:"transient_retries"`
	RetryBackoffSeconds  int `toml:"retry_backoff_seconds"`
	MinFreeGiB           int `toml:"min_free_gib"`
	HistoryLimit         int `toml:"history_limit"`
	MediaRetentionHours  int `toml:"media_retention_hours"`
	HistoryRetentionDays int `toml:"history_retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"VIDLINGO_LOG_FORMAT"`
	Level  string `toml:"level" env:"VIDLINGO_LOG_LEVEL"`
}

// Config encapsulates all configuration values for vidlingo.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and credential directories plus the API bind address
//   - API: intake authentication
//   - Languages: enabled target languages
//   - Artifacts: translation cache backend (fs or s3)
//   - LLM: caption and metadata translator
//   - YTDLP: transcript source and stream downloader
//   - FFmpeg: muxer, probe, and caption renderer
//   - YouTube: publisher
//   - Notifications: completion notices
//   - Workflow: stage timeouts and retry policy
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Languages     Languages     `toml:"languages"`
	Artifacts     Artifacts     `toml:"artifacts"`
	LLM           LLM           `toml:"llm"`
	YTDLP         YTDLP         `toml:"ytdlp"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	YouTube       YouTube       `toml:"youtube"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// variables override values read from the file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidlingo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.CredentialsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CredentialsPath returns the OAuth token file for the channel that
// publishes videos in the given language.
func (c *Config) CredentialsPath(language string) string {
	return filepath.Join(c.Paths.CredentialsDir, language+".json")
}

// HistoryPath returns the outcome ledger database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// MediaDir returns the directory holding merged and rendered videos.
func (c *Config) MediaDir() string {
	return filepath.Join(c.Paths.DataDir, "media")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vidlingo.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnabledLanguages returns the accepted target languages in configured order.
// Normalization has already rejected unsupported names.
func (c *Config) EnabledLanguages() []language.Language {
	out := make([]language.Language, 0, len(c.Languages.Enabled))
	for _, name := range c.Languages.Enabled {
		if lang, err := language.Parse(name); err == nil {
			out = append(out, lang)
		}
	}
	return out
}
