package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidlingo/internal/services"
)

type recordingRunner struct {
	calls  [][]string
	output []byte
	err    error
	onCall func(args []string)
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.onCall != nil {
		r.onCall(args)
	}
	return r.output, r.err
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

const sampleTrack = `{"events":[
 {"tStartMs":2000,"dDurationMs":3000,"segs":[{"utf8":"second"},{"utf8":" line"}]},
 {"tStartMs":0,"dDurationMs":2000,"segs":[{"utf8":"first\nline"}]},
 {"tStartMs":1500,"aAppend":1,"segs":[{"utf8":"\n"}]},
 {"tStartMs":4000,"dDurationMs":100}
]}`

func TestParseJSON3OrdersAndJoinsSegments(t *testing.T) {
	parts, err := ParseJSON3([]byte(sampleTrack))
	if err != nil {
		t.Fatalf("ParseJSON3: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d: %+v", len(parts), parts)
	}
	if parts[0].Text != "first line" || parts[0].OffsetMillis != 0 || parts[0].DurationMillis != 2000 {
		t.Fatalf("unexpected first part %+v", parts[0])
	}
	if parts[1].Text != "second line" || parts[1].OffsetMillis != 2000 {
		t.Fatalf("unexpected second part %+v", parts[1])
	}
}

func TestFetchTranscriptReadsTrackWrittenByTool(t *testing.T) {
	runner := &recordingRunner{}
	runner.onCall = func(args []string) {
		tmpl := argAfter(args, "-o")
		target := strings.Replace(tmpl, "%(id)s.%(ext)s", "abc.en.json3", 1)
		if err := os.WriteFile(target, []byte(sampleTrack), 0o644); err != nil {
			t.Fatalf("write track: %v", err)
		}
	}
	client := New(Options{CookiesFile: "/tmp/cookies.txt"}, WithCommandRunner(runner.Run))

	parts, err := client.FetchTranscript(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchTranscript: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	call := runner.calls[0]
	if call[0] != "yt-dlp" {
		t.Fatalf("expected default binary, got %q", call[0])
	}
	if argAfter(call, "--sub-langs") != "en" || argAfter(call, "--sub-format") != "json3" {
		t.Fatalf("unexpected subtitle args %v", call)
	}
	if argAfter(call, "--cookies") != "/tmp/cookies.txt" {
		t.Fatalf("expected cookies flag, got %v", call)
	}
	if call[len(call)-1] != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected url %q", call[len(call)-1])
	}
}

func TestFetchTranscriptMissingTrackIsNotFound(t *testing.T) {
	runner := &recordingRunner{}
	client := New(Options{}, WithCommandRunner(runner.Run))

	_, err := client.FetchTranscript(context.Background(), "abc")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchTranscriptNetworkFailureIsTransient(t *testing.T) {
	runner := &recordingRunner{err: errors.New("yt-dlp: exit status 1: ERROR: HTTP Error 429: Too Many Requests")}
	client := New(Options{}, WithCommandRunner(runner.Run))

	_, err := client.FetchTranscript(context.Background(), "abc")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
}

func TestProbeDecodesInfo(t *testing.T) {
	runner := &recordingRunner{output: []byte(`{"id":"abc","title":"Hello","description":"World","duration":8.5}`)}
	client := New(Options{}, WithCommandRunner(runner.Run))

	info, err := client.Probe(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Title != "Hello" || info.Description != "World" || info.DurationSeconds != 8.5 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestDownloadVideoOnlyPassesFormatAndDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc.video.part")
	runner := &recordingRunner{}
	runner.onCall = func(args []string) {
		if err := os.WriteFile(argAfter(args, "-o"), []byte("data"), 0o644); err != nil {
			t.Fatalf("write download: %v", err)
		}
	}
	client := New(Options{VideoFormat: "bestvideo"}, WithCommandRunner(runner.Run))

	if err := client.DownloadVideoOnly(context.Background(), "abc", dest); err != nil {
		t.Fatalf("DownloadVideoOnly: %v", err)
	}
	call := runner.calls[0]
	if argAfter(call, "-f") != "bestvideo" || argAfter(call, "-o") != dest {
		t.Fatalf("unexpected args %v", call)
	}
}

func TestDownloadAudioOnlyRequiresOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc.audio.part")
	runner := &recordingRunner{}
	client := New(Options{}, WithCommandRunner(runner.Run))

	err := client.DownloadAudioOnly(context.Background(), "abc", dest)
	if !errors.Is(err, services.ErrDelegate) {
		t.Fatalf("expected delegate error, got %v", err)
	}
	if !strings.HasPrefix(argAfter(runner.calls[0], "-f"), "bestaudio") {
		t.Fatalf("expected default audio format, got %v", runner.calls[0])
	}
}

func TestProbeDeadlineIsTimeout(t *testing.T) {
	runner := &recordingRunner{err: context.DeadlineExceeded}
	client := New(Options{}, WithCommandRunner(runner.Run))

	_, err := client.Probe(context.Background(), "abc")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
