package ytdlp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vidlingo/internal/job"
	"vidlingo/internal/services"
)

type json3Track struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMillis    int64          `json:"tStartMs"`
	DurationMillis int64          `json:"dDurationMs"`
	Segments       []json3Segment `json:"segs"`
	Append         int            `json:"aAppend"`
}

type json3Segment struct {
	Text string `json:"utf8"`
}

// FetchTranscript downloads the caption track for videoID and returns its
// parts in display order. Manual captions are preferred over automatic ones.
// A video without any caption track yields services.ErrNotFound.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) ([]job.TranscriptPart, error) {
	workDir, err := os.MkdirTemp("", "vidlingo-transcript-*")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcript", "fetch", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	args := c.baseArgs()
	args = append(args,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", c.opts.CaptionLang,
		"--sub-format", "json3",
		"-o", filepath.Join(workDir, "%(id)s.%(ext)s"),
		"--", WatchURL(videoID),
	)
	if _, err := c.run(ctx, c.opts.Binary, args...); err != nil {
		return nil, classify(err, "transcript", "fetch")
	}

	matches, err := filepath.Glob(filepath.Join(workDir, "*.json3"))
	if err != nil || len(matches) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "transcript", "fetch", "no transcript available for "+videoID, nil)
	}
	sort.Strings(matches)
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, services.Wrap(services.ErrDelegate, "transcript", "fetch", "read caption track", err)
	}
	parts, err := ParseJSON3(data)
	if err != nil {
		return nil, services.Wrap(services.ErrContractViolation, "transcript", "parse", "decode caption track", err)
	}
	if len(parts) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "transcript", "fetch", "caption track is empty for "+videoID, nil)
	}
	return parts, nil
}

// ParseJSON3 converts a json3 caption track into transcript parts. Events with
// no text, and the line-append events auto captions interleave, are skipped.
func ParseJSON3(data []byte) ([]job.TranscriptPart, error) {
	var track json3Track
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, err
	}
	parts := make([]job.TranscriptPart, 0, len(track.Events))
	for _, event := range track.Events {
		if event.Append != 0 || len(event.Segments) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range event.Segments {
			b.WriteString(seg.Text)
		}
		text := strings.Join(strings.Fields(b.String()), " ")
		if text == "" {
			continue
		}
		parts = append(parts, job.TranscriptPart{
			Text:           text,
			OffsetMillis:   event.StartMillis,
			DurationMillis: event.DurationMillis,
		})
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].OffsetMillis < parts[j].OffsetMillis
	})
	return parts, nil
}
