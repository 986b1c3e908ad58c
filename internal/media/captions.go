package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"vidlingo/internal/job"
	"vidlingo/internal/services/ffmpeg"
)

var apostrophes = strings.NewReplacer(
	"'", "’",
	"‘", "’",
	"ʼ", "’",
	"`", "’",
)

// SanitizeCaption prepares translated text for the renderer: NFC normalised,
// apostrophe variants folded to ’, control characters dropped and whitespace
// collapsed to single spaces.
func SanitizeCaption(text string) string {
	text = norm.NFC.String(text)
	text = apostrophes.Replace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// OverlayWindows computes one caption window per part. Part i is shown from
// its offset until part i+1's offset; the last part runs until
// durationSeconds. Parts without a translation keep their window with empty
// text.
func OverlayWindows(parts []job.TranslatedPart, durationSeconds float64) []ffmpeg.Overlay {
	overlays := make([]ffmpeg.Overlay, len(parts))
	for i, part := range parts {
		start := millisToSeconds(part.OffsetMillis)
		var end float64
		if i+1 < len(parts) {
			end = millisToSeconds(parts[i+1].OffsetMillis)
		} else {
			end = durationSeconds
			if end <= start {
				end = start + millisToSeconds(part.DurationMillis)
			}
		}
		if end < start {
			end = start
		}
		overlays[i] = ffmpeg.Overlay{
			Text:  SanitizeCaption(part.Translation),
			Start: start,
			End:   end,
		}
	}
	return overlays
}

func millisToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
