package publishing

import (
	"context"
	"errors"
	"testing"

	"vidlingo/internal/job"
	"vidlingo/internal/logging"
	"vidlingo/internal/services"
)

type stubUploader struct {
	calls      int
	gotChannel string
	gotTitle   string
	progress   []float64
	result     job.Published
	err        error
}

func (s *stubUploader) Upload(_ context.Context, channel, _, title, _, _ string, onProgress func(float64)) (job.Published, error) {
	s.calls++
	s.gotChannel = channel
	s.gotTitle = title
	for _, p := range s.progress {
		onProgress(p)
	}
	return s.result, s.err
}

func TestPublishForwardsProgressAndReturnsURL(t *testing.T) {
	uploader := &stubUploader{
		progress: []float64{5, 12, 55, 130},
		result:   job.Published{ExternalID: "x1", URL: "https://www.youtube.com/watch?v=x1"},
	}
	stage := NewStage(uploader, logging.NewNop())
	var seen []float64

	published, err := stage.Publish(context.Background(), Request{
		Channel:   "Spanish",
		MediaPath: "/tmp/abc.mp4",
		Title:     "Hola",
	}, func(p float64) { seen = append(seen, p) })
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published.URL != "https://www.youtube.com/watch?v=x1" {
		t.Fatalf("unexpected url %q", published.URL)
	}
	if uploader.gotChannel != "Spanish" || uploader.gotTitle != "Hola" {
		t.Fatalf("unexpected upload args %+v", uploader)
	}
	want := []float64{5, 12, 55, 100}
	if len(seen) != len(want) {
		t.Fatalf("expected %d progress events, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("progress[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestPublishFailureIsNotRetried(t *testing.T) {
	uploader := &stubUploader{err: services.Wrap(services.ErrTransient, "publish", "upload", "reset", nil)}
	stage := NewStage(uploader, logging.NewNop())

	_, err := stage.Publish(context.Background(), Request{MediaPath: "/tmp/a.mp4"}, nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if uploader.calls != 1 {
		t.Fatalf("expected a single upload attempt, got %d", uploader.calls)
	}
}

func TestPublishRequiresURL(t *testing.T) {
	stage := NewStage(&stubUploader{result: job.Published{ExternalID: "x"}}, logging.NewNop())
	_, err := stage.Publish(context.Background(), Request{MediaPath: "/tmp/a.mp4"}, nil)
	if !errors.Is(err, services.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestPublishRequiresMediaPath(t *testing.T) {
	stage := NewStage(&stubUploader{}, logging.NewNop())
	if _, err := stage.Publish(context.Background(), Request{}, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
