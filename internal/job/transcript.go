package job

import (
	"fmt"

	"vidlingo/internal/services"
)

// TranscriptPart is one caption line from the source transcript. Order is
// significant: caption windows are derived from neighbouring offsets.
type TranscriptPart struct {
	Text           string `json:"text"`
	OffsetMillis   int64  `json:"offset"`
	DurationMillis int64  `json:"duration"`
}

// TranslatedPart is a TranscriptPart with its translation. An empty
// Translation still occupies its caption window.
type TranslatedPart struct {
	Text           string `json:"text"`
	Translation    string `json:"translation"`
	OffsetMillis   int64  `json:"offset"`
	DurationMillis int64  `json:"duration"`
}

// Texts returns the source text of each part in order.
func Texts(parts []TranscriptPart) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.Text
	}
	return out
}

// Zip pairs translations with their source parts by index. A length mismatch
// is a contract violation; nothing is truncated or padded.
func Zip(parts []TranscriptPart, translations []string) ([]TranslatedPart, error) {
	if len(parts) != len(translations) {
		return nil, services.Wrap(
			services.ErrContractViolation,
			"translation",
			"zip",
			fmt.Sprintf("translator returned %d strings for %d transcript parts", len(translations), len(parts)),
			nil,
		)
	}
	out := make([]TranslatedPart, len(parts))
	for i, p := range parts {
		out[i] = TranslatedPart{
			Text:           p.Text,
			Translation:    translations[i],
			OffsetMillis:   p.OffsetMillis,
			DurationMillis: p.DurationMillis,
		}
	}
	return out, nil
}

// VideoMetadata is what the probe step learns about the merged asset.
type VideoMetadata struct {
	Title           string
	Description     string
	DurationSeconds float64
}

// Published is the durable reference returned by the publisher.
type Published struct {
	ExternalID string
	URL        string
}
