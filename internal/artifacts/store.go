package artifacts

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"vidlingo/internal/language"
)

// ErrNotFound is returned by Read when no artifact exists for the key.
var ErrNotFound = errors.New("artifact not found")

// Kind names the stage output an artifact holds.
type Kind string

const (
	// KindTranscript is a translated transcript, cached per language.
	KindTranscript Kind = "transcript"
	// KindMerged is the downloaded and muxed source video, shared by languages.
	KindMerged Kind = "merged"
	// KindRendered is the captioned video for one language.
	KindRendered Kind = "rendered"
)

// Key identifies one artifact. Language is empty for KindMerged.
type Key struct {
	Kind     Kind
	Language language.Language
	VideoID  string
}

// TranscriptKey returns the key of a translated transcript.
func TranscriptKey(videoID string, lang language.Language) Key {
	return Key{Kind: KindTranscript, Language: lang, VideoID: videoID}
}

// MergedKey returns the key of the merged source video.
func MergedKey(videoID string) Key {
	return Key{Kind: KindMerged, VideoID: videoID}
}

// RenderedKey returns the key of a captioned video.
func RenderedKey(videoID string, lang language.Language) Key {
	return Key{Kind: KindRendered, Language: lang, VideoID: videoID}
}

// RelPath maps a key onto the hierarchical layout shared by every backend:
//
//	translations/<language>/<videoId>.json
//	media/<videoId>.mp4
//	media/<language>/<videoId>.mp4
func (k Key) RelPath() (string, error) {
	id := strings.TrimSpace(k.VideoID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("artifact key: invalid video id %q", k.VideoID)
	}
	switch k.Kind {
	case KindTranscript:
		if !k.Language.Valid() {
			return "", fmt.Errorf("artifact key: invalid language %q", k.Language)
		}
		return path.Join("translations", k.Language.String(), id+".json"), nil
	case KindMerged:
		return path.Join("media", id+".mp4"), nil
	case KindRendered:
		if !k.Language.Valid() {
			return "", fmt.Errorf("artifact key: invalid language %q", k.Language)
		}
		return path.Join("media", k.Language.String(), id+".mp4"), nil
	default:
		return "", fmt.Errorf("artifact key: unknown kind %q", k.Kind)
	}
}

func (k Key) String() string {
	if p, err := k.RelPath(); err == nil {
		return p
	}
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Language, k.VideoID)
}

// Store persists stage outputs. Once written, an artifact is treated as the
// truth for its key until it is deleted.
type Store interface {
	Has(ctx context.Context, key Key) (bool, error)
	Read(ctx context.Context, key Key) ([]byte, error)
	Write(ctx context.Context, key Key, data []byte) error
	Delete(ctx context.Context, key Key) error
}

// LocalStore is a Store whose artifacts are addressable as files, as the
// downloader and renderer require.
type LocalStore interface {
	Store
	Path(key Key) (string, error)
}
