package config

const (
	defaultConfigPath          = "~/.config/vidlingo/config.toml"
	defaultDataDir             = "~/.local/share/vidlingo"
	defaultLogDir              = "~/.local/share/vidlingo/logs"
	defaultCredentialsDir      = "~/.config/vidlingo/creds"
	defaultAPIBind             = "127.0.0.1:7510"
	defaultArtifactsBackend    = "fs"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "openai/gpt-4o"
	defaultLLMReferer          = "https://github.com/vidlingo/vidlingo"
	defaultLLMTitle            = "vidlingo"
	defaultLLMTemperature      = 0.5
	defaultLLMMaxTokens        = 5000
	defaultLLMTimeoutSeconds   = 180
	defaultYTDLPBinary         = "yt-dlp"
	defaultCaptionLanguage     = "en"
	defaultVideoFormat         = "bestvideo[ext=mp4]/bestvideo"
	defaultAudioFormat         = "bestaudio"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultFont                = "Open Sans"
	defaultFontSize            = 38
	defaultFontColor           = "white"
	defaultBoxOpacity          = 0.5
	defaultBottomMargin        = 140
	defaultPrivacyStatus       = "unlisted"
	defaultYouTubeCategory     = "22"
	defaultRedirectURL         = "urn:ietf:wg:oauth:2.0:oob"
	defaultNotifyBackend       = "none"
	defaultCustomerIOURL       = "https://api.customer.io/v1/send/email"
	defaultFromAddress         = `"vidlingo" <noreply@vidlingo.local>`
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultTranscriptTimeout   = 120
	defaultTranslateTimeout    = 600
	defaultDownloadTimeout     = 3600
	defaultRenderTimeout       = 7200
	defaultPublishTimeout      = 7200
	defaultNotifyStageTimeout  = 30
	defaultTransientRetries    = 1
	defaultRetryBackoffSeconds = 5
	defaultMinFreeGiB          = 5
	defaultHistoryLimit        = 50
	defaultMediaRetentionHours = 72
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        defaultDataDir,
			LogDir:         defaultLogDir,
			CredentialsDir: defaultCredentialsDir,
			APIBind:        defaultAPIBind,
		},
		Languages: Languages{
			Enabled: []string{"English", "Spanish", "French", "German", "Thai"},
		},
		Artifacts: Artifacts{
			Backend: defaultArtifactsBackend,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			Temperature:    defaultLLMTemperature,
			MaxTokens:      defaultLLMMaxTokens,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		YTDLP: YTDLP{
			Binary:        defaultYTDLPBinary,
			CaptionLang:   defaultCaptionLanguage,
			VideoFormat:   defaultVideoFormat,
			AudioFormat:   defaultAudioFormat,
			SocketTimeout: 30,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Font:          defaultFont,
			FontSize:      defaultFontSize,
			FontColor:     defaultFontColor,
			BoxOpacity:    defaultBoxOpacity,
			BottomMargin:  defaultBottomMargin,
		},
		YouTube: YouTube{
			RedirectURL:   defaultRedirectURL,
			PrivacyStatus: defaultPrivacyStatus,
			CategoryID:    defaultYouTubeCategory,
		},
		Notifications: Notifications{
			Backend:        defaultNotifyBackend,
			CustomerIOURL:  defaultCustomerIOURL,
			FromAddress:    defaultFromAddress,
			RequestTimeout: defaultNotifyTimeout,
		},
		Workflow: Workflow{
			TranscriptTimeout:   defaultTranscriptTimeout,
			TranslateTimeout:    defaultTranslateTimeout,
			DownloadTimeout:     defaultDownloadTimeout,
			RenderTimeout:       defaultRenderTimeout,
			PublishTimeout:      defaultPublishTimeout,
			NotifyTimeout:       defaultNotifyStageTimeout,
			TransientRetries:    defaultTransientRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
			MinFreeGiB:          defaultMinFreeGiB,
			HistoryLimit:        defaultHistoryLimit,
			MediaRetentionHours: defaultMediaRetentionHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
