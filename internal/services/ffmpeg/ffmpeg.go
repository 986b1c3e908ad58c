package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vidlingo/internal/services"
)

const defaultBinary = "ffmpeg"

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Style controls caption appearance.
type Style struct {
	Font         string
	FontSize     int
	FontColor    string
	BoxOpacity   float64
	BottomMargin int
}

// DefaultStyle returns white 38pt Open Sans on a half transparent black box,
// 140 pixels above the bottom edge.
func DefaultStyle() Style {
	return Style{
		Font:         "Open Sans",
		FontSize:     38,
		FontColor:    "white",
		BoxOpacity:   0.5,
		BottomMargin: 140,
	}
}

// Overlay is one caption shown between Start and End seconds.
type Overlay struct {
	Text  string
	Start float64
	End   float64
}

// Client runs ffmpeg.
type Client struct {
	binary string
	style  Style
	run    CommandRunner
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

// New constructs a client. Zero style fields fall back to DefaultStyle.
func New(binary string, style Style, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	def := DefaultStyle()
	if strings.TrimSpace(style.Font) == "" {
		style.Font = def.Font
	}
	if style.FontSize <= 0 {
		style.FontSize = def.FontSize
	}
	if strings.TrimSpace(style.FontColor) == "" {
		style.FontColor = def.FontColor
	}
	if style.BoxOpacity <= 0 || style.BoxOpacity > 1 {
		style.BoxOpacity = def.BoxOpacity
	}
	if style.BottomMargin < 0 {
		style.BottomMargin = def.BottomMargin
	}
	c := &Client{binary: binary, style: style, run: defaultCommandRunner}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the configured ffmpeg executable.
func (c *Client) Binary() string {
	return c.binary
}

// Mux merges a video-only and an audio-only file into dest.
func (c *Client) Mux(ctx context.Context, videoPath, audioPath, dest string) error {
	tmp, err := tempSibling(dest)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "media", "mux", "prepare output", err)
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-movflags", "+faststart",
		tmp,
	}
	if err := c.run(ctx, c.binary, args...); err != nil {
		_ = os.Remove(tmp)
		return classify(err, "mux")
	}
	return commit(tmp, dest, "mux")
}

// BurnText renders overlays onto src and writes the result to dest.
func (c *Client) BurnText(ctx context.Context, src string, overlays []Overlay, dest string) error {
	if len(overlays) == 0 {
		return services.Wrap(services.ErrValidation, "media", "render", "no caption overlays", nil)
	}
	tmp, err := tempSibling(dest)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "media", "render", "prepare output", err)
	}
	script := tmp + ".filter"
	if err := os.WriteFile(script, []byte(c.FilterGraph(overlays)), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "media", "render", "write filter script", err)
	}
	defer os.Remove(script)

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-filter_complex_script", script,
		"-map", "[captioned]",
		"-map", "0:a?",
		"-c:a", "copy",
		"-movflags", "+faststart",
		tmp,
	}
	if err := c.run(ctx, c.binary, args...); err != nil {
		_ = os.Remove(tmp)
		return classify(err, "render")
	}
	return commit(tmp, dest, "render")
}

// FilterGraph builds the drawtext chain for overlays.
func (c *Client) FilterGraph(overlays []Overlay) string {
	filters := make([]string, 0, len(overlays))
	for _, overlay := range overlays {
		filters = append(filters, c.drawtext(overlay))
	}
	return "[0:v]" + strings.Join(filters, ",") + "[captioned]"
}

func (c *Client) drawtext(o Overlay) string {
	text := EscapeText(o.Text)
	if text == "" {
		text = " "
	}
	return fmt.Sprintf(
		"drawtext=font='%s':box=1:boxcolor=black@%s:fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=h-th-%d:text='%s':enable='between(t,%s,%s)'",
		EscapeText(c.style.Font),
		formatSeconds(c.style.BoxOpacity),
		c.style.FontSize,
		c.style.FontColor,
		c.style.BottomMargin,
		text,
		formatSeconds(o.Start),
		formatSeconds(o.End),
	)
}

// EscapeText escapes characters the drawtext option parser treats specially.
// Backslashes and percent signs pass two unescape levels (option value, then
// text expansion) so they are escaped twice. Apostrophes cannot appear inside
// a quoted value and must be normalised by the caller.
func EscapeText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\\\`,
		`'`, "’",
		`:`, `\:`,
		`%`, `\\\%`,
		"\n", " ",
		"\r", " ",
	)
	return replacer.Replace(text)
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func tempSibling(dest string) (string, error) {
	if strings.TrimSpace(dest) == "" {
		return "", errors.New("destination path required")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(dest)
	return strings.TrimSuffix(dest, ext) + ".tmp" + ext, nil
}

func commit(tmp, dest, op string) error {
	info, err := os.Stat(tmp)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrDelegate, "media", op, "ffmpeg produced no output", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrDelegate, "media", op, "commit output", err)
	}
	return nil
}

func classify(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "media", op, "ffmpeg timed out", err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrConfiguration, "media", op, "ffmpeg binary not found", err)
	}
	return services.Wrap(services.ErrDelegate, "media", op, "ffmpeg failed", err)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
