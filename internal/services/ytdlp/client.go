package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"vidlingo/internal/services"
)

const defaultBinary = "yt-dlp"

// CommandRunner executes name with args and returns its standard output.
// Errors should carry the command's standard error for diagnostics.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures the yt-dlp client.
type Options struct {
	Binary        string
	CookiesFile   string
	CaptionLang   string
	VideoFormat   string
	AudioFormat   string
	SocketTimeout int
}

// Client invokes yt-dlp.
type Client struct {
	opts Options
	run  CommandRunner
}

// Option customizes the client.
type Option func(*Client)

// WithCommandRunner overrides command execution (for tests).
func WithCommandRunner(runner CommandRunner) Option {
	return func(c *Client) {
		if runner != nil {
			c.run = runner
		}
	}
}

// New constructs a client with defaults applied.
func New(opts Options, options ...Option) *Client {
	opts.Binary = strings.TrimSpace(opts.Binary)
	if opts.Binary == "" {
		opts.Binary = defaultBinary
	}
	if strings.TrimSpace(opts.CaptionLang) == "" {
		opts.CaptionLang = "en"
	}
	if strings.TrimSpace(opts.VideoFormat) == "" {
		opts.VideoFormat = "bestvideo[ext=mp4]/bestvideo"
	}
	if strings.TrimSpace(opts.AudioFormat) == "" {
		opts.AudioFormat = "bestaudio[ext=m4a]/bestaudio"
	}
	c := &Client{opts: opts, run: defaultCommandRunner}
	for _, option := range options {
		option(c)
	}
	return c
}

// Binary returns the configured yt-dlp executable.
func (c *Client) Binary() string {
	return c.opts.Binary
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// VideoInfo is the subset of yt-dlp's info JSON the pipeline needs.
type VideoInfo struct {
	ID              string
	Title           string
	Description     string
	DurationSeconds float64
}

// Probe fetches title, description and duration without downloading media.
func (c *Client) Probe(ctx context.Context, videoID string) (VideoInfo, error) {
	args := c.baseArgs()
	args = append(args, "--skip-download", "--dump-single-json", "--", WatchURL(videoID))
	out, err := c.run(ctx, c.opts.Binary, args...)
	if err != nil {
		return VideoInfo{}, classify(err, "probe", "fetch video info")
	}
	var payload struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Duration    json.RawMessage `json:"duration"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return VideoInfo{}, services.Wrap(services.ErrContractViolation, "media", "probe", "decode video info", err)
	}
	return VideoInfo{
		ID:              payload.ID,
		Title:           payload.Title,
		Description:     payload.Description,
		DurationSeconds: parseDuration(payload.Duration),
	}, nil
}

// DownloadVideoOnly downloads the best video-only stream into dest.
func (c *Client) DownloadVideoOnly(ctx context.Context, videoID, dest string) error {
	return c.download(ctx, videoID, c.opts.VideoFormat, dest, "download video")
}

// DownloadAudioOnly downloads the best audio-only stream into dest.
func (c *Client) DownloadAudioOnly(ctx context.Context, videoID, dest string) error {
	return c.download(ctx, videoID, c.opts.AudioFormat, dest, "download audio")
}

func (c *Client) download(ctx context.Context, videoID, format, dest, op string) error {
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "media", op, "destination path required", nil)
	}
	args := c.baseArgs()
	args = append(args,
		"--no-playlist",
		"--no-part",
		"--force-overwrites",
		"-f", format,
		"-o", dest,
		"--", WatchURL(videoID),
	)
	if _, err := c.run(ctx, c.opts.Binary, args...); err != nil {
		return classify(err, "media", op)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return services.Wrap(services.ErrDelegate, "media", op, "downloader produced no file", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrDelegate, "media", op, "downloader produced an empty file", nil)
	}
	return nil
}

func (c *Client) baseArgs() []string {
	args := []string{"--quiet", "--no-warnings", "--no-progress"}
	if c.opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(c.opts.SocketTimeout))
	}
	if cookies := strings.TrimSpace(c.opts.CookiesFile); cookies != "" {
		args = append(args, "--cookies", cookies)
	}
	return args
}

func parseDuration(raw json.RawMessage) float64 {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return 0
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// classify maps a command failure onto the services error taxonomy.
func classify(err error, stage, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stage, op, "yt-dlp timed out", err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "video unavailable"),
		strings.Contains(msg, "private video"),
		strings.Contains(msg, "does not exist"):
		return services.Wrap(services.ErrNotFound, stage, op, "video unavailable", err)
	case strings.Contains(msg, "http error 429"),
		strings.Contains(msg, "http error 5"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "temporary failure"):
		return services.Wrap(services.ErrTransient, stage, op, "yt-dlp network failure", err)
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, stage, op, "yt-dlp binary not found", err)
	}
	return services.Wrap(services.ErrDelegate, stage, op, "yt-dlp failed", err)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
