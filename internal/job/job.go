package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidlingo/internal/language"
	"vidlingo/internal/services"
)

// RequesterContext carries what the publish and notify stages need to finish
// a job. It is owned by its Job and never leaves the process.
type RequesterContext struct {
	// Email receives the completion notice.
	Email string
	// Channel names the destination channel credentials. It defaults to the
	// job language, matching one token file per language channel.
	Channel string
}

// Job is one translation request, pending or active.
type Job struct {
	ID          string
	VideoID     string
	Language    language.Language
	Requester   RequesterContext
	SubmittedAt time.Time
}

// New validates its inputs and returns a job with a fresh identifier.
func New(videoID string, lang language.Language, requester RequesterContext) (*Job, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "intake", "new job", "video id is required", nil)
	}
	if !lang.Valid() {
		return nil, services.Wrap(services.ErrValidation, "intake", "new job", fmt.Sprintf("unsupported language %q", lang), nil)
	}
	if strings.TrimSpace(requester.Channel) == "" {
		requester.Channel = lang.String()
	}
	return &Job{
		ID:          uuid.NewString(),
		VideoID:     videoID,
		Language:    lang,
		Requester:   requester,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// View returns the public projection of the job.
func (j *Job) View() ViewItem {
	if j == nil {
		return ViewItem{}
	}
	return ViewItem{VideoID: j.VideoID, Language: j.Language}
}

// ViewItem is the externally visible part of a queued job. It deliberately
// carries no requester data.
type ViewItem struct {
	VideoID  string            `json:"video_id"`
	Language language.Language `json:"language"`
}
