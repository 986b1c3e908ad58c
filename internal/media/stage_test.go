package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vidlingo/internal/artifacts"
	"vidlingo/internal/job"
	"vidlingo/internal/language"
	"vidlingo/internal/logging"
	"vidlingo/internal/media/ffprobe"
	"vidlingo/internal/services"
	"vidlingo/internal/services/ffmpeg"
	"vidlingo/internal/services/ytdlp"
)

type stubDownloader struct {
	mu       sync.Mutex
	calls    []string
	videoErr error
	audioErr error
	info     ytdlp.VideoInfo
}

func (d *stubDownloader) record(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, name)
}

func (d *stubDownloader) DownloadVideoOnly(_ context.Context, _ string, dest string) error {
	d.record("video")
	if err := os.WriteFile(dest, []byte("video"), 0o644); err != nil {
		return err
	}
	return d.videoErr
}

func (d *stubDownloader) DownloadAudioOnly(_ context.Context, _ string, dest string) error {
	d.record("audio")
	if err := os.WriteFile(dest, []byte("audio"), 0o644); err != nil {
		return err
	}
	return d.audioErr
}

func (d *stubDownloader) Probe(context.Context, string) (ytdlp.VideoInfo, error) {
	return d.info, nil
}

type stubRenderer struct {
	muxErr    error
	burnErr   error
	overlays  []ffmpeg.Overlay
	muxInputs []string
}

func (r *stubRenderer) Mux(_ context.Context, videoPath, audioPath, dest string) error {
	r.muxInputs = []string{videoPath, audioPath}
	if r.muxErr != nil {
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return r.muxErr
	}
	return os.WriteFile(dest, []byte("merged"), 0o644)
}

func (r *stubRenderer) BurnText(_ context.Context, _ string, overlays []ffmpeg.Overlay, dest string) error {
	r.overlays = overlays
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if r.burnErr != nil {
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return r.burnErr
	}
	return os.WriteFile(dest, []byte("rendered"), 0o644)
}

type stubInspector struct {
	result ffprobe.Result
}

func (i stubInspector) Inspect(context.Context, string) (ffprobe.Result, error) {
	return i.result, nil
}

func newTestStage(t *testing.T, d *stubDownloader, r *stubRenderer, opts ...Option) (*Stage, *artifacts.FS) {
	t.Helper()
	store, err := artifacts.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	inspector := stubInspector{result: ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: "8"},
	}}
	return NewStage(store, d, r, inspector, logging.NewNop(), opts...), store
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestOverlayWindows(t *testing.T) {
	parts := []job.TranslatedPart{
		{Translation: "uno", OffsetMillis: 0},
		{Translation: "dos", OffsetMillis: 2000},
		{Translation: "tres", OffsetMillis: 5000},
	}
	got := OverlayWindows(parts, 8)
	want := [][2]float64{{0, 2}, {2, 5}, {5, 8}}
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Start != w[0] || got[i].End != w[1] {
			t.Fatalf("window %d = [%v,%v), want [%v,%v)", i, got[i].Start, got[i].End, w[0], w[1])
		}
	}
}

func TestOverlayWindowsKeepEmptyTranslations(t *testing.T) {
	parts := []job.TranslatedPart{
		{Translation: "", OffsetMillis: 0},
		{Translation: "dos", OffsetMillis: 1500},
	}
	got := OverlayWindows(parts, 3)
	if len(got) != 2 || got[0].Text != "" || got[0].End != 1.5 {
		t.Fatalf("unexpected overlays %+v", got)
	}
}

func TestOverlayWindowsLastPartFallsBackToDuration(t *testing.T) {
	parts := []job.TranslatedPart{{Translation: "x", OffsetMillis: 9000, DurationMillis: 1000}}
	got := OverlayWindows(parts, 8)
	if got[0].Start != 9 || got[0].End != 10 {
		t.Fatalf("unexpected window %+v", got[0])
	}
}

func TestSanitizeCaption(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "it's", want: "it’s"},
		{in: "‘quoted’", want: "’quoted’"},
		{in: "e\u0301te\u0301", want: "\u00e9t\u00e9"},
		{in: "two\nlines\t here", want: "two lines here"},
		{in: "bell\x07", want: "bell"},
	}
	for _, tc := range cases {
		if got := SanitizeCaption(tc.in); got != tc.want {
			t.Fatalf("SanitizeCaption(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFetchAndMergeDownloadsBothAndRemovesParts(t *testing.T) {
	downloader := &stubDownloader{}
	renderer := &stubRenderer{}
	stage, store := newTestStage(t, downloader, renderer)

	merged, err := stage.FetchAndMerge(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchAndMerge: %v", err)
	}
	want, _ := store.Path(artifacts.MergedKey("abc"))
	if merged != want || !exists(t, merged) {
		t.Fatalf("expected merged file at %s, got %s", want, merged)
	}
	if len(downloader.calls) != 2 {
		t.Fatalf("expected both downloads, got %v", downloader.calls)
	}
	for _, part := range renderer.muxInputs {
		if exists(t, part) {
			t.Fatalf("intermediate %s not removed", part)
		}
	}
}

func TestFetchAndMergeReusesExistingFile(t *testing.T) {
	downloader := &stubDownloader{}
	stage, store := newTestStage(t, downloader, &stubRenderer{})
	merged, _ := store.EnsureParent(artifacts.MergedKey("abc"))
	if err := os.WriteFile(merged, []byte("cached"), 0o644); err != nil {
		t.Fatalf("seed merged: %v", err)
	}

	got, err := stage.FetchAndMerge(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchAndMerge: %v", err)
	}
	if got != merged || len(downloader.calls) != 0 {
		t.Fatalf("expected reuse without download, got %s calls=%v", got, downloader.calls)
	}
}

func TestFetchAndMergeDownloadFailureLeavesNothing(t *testing.T) {
	downloader := &stubDownloader{audioErr: services.Wrap(services.ErrDelegate, "media", "download audio", "boom", nil)}
	stage, store := newTestStage(t, downloader, &stubRenderer{})

	_, err := stage.FetchAndMerge(context.Background(), "abc")
	if !errors.Is(err, services.ErrDelegate) {
		t.Fatalf("expected delegate error, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(store.Root(), "media"))
	if len(entries) != 0 {
		t.Fatalf("expected no media files, found %d", len(entries))
	}
}

func TestFetchAndMergeMuxFailureLeavesNothing(t *testing.T) {
	renderer := &stubRenderer{muxErr: errors.New("mux failed")}
	stage, store := newTestStage(t, &stubDownloader{}, renderer)

	if _, err := stage.FetchAndMerge(context.Background(), "abc"); err == nil {
		t.Fatal("expected mux error")
	}
	entries, _ := os.ReadDir(filepath.Join(store.Root(), "media"))
	if len(entries) != 0 {
		t.Fatalf("expected no media files, found %d", len(entries))
	}
}

func TestFetchAndMergeSpaceCheck(t *testing.T) {
	downloader := &stubDownloader{}
	stage, _ := newTestStage(t, downloader, &stubRenderer{}, WithSpaceCheck(func(string) error {
		return errors.New("only 1 GiB free")
	}))

	_, err := stage.FetchAndMerge(context.Background(), "abc")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(downloader.calls) != 0 {
		t.Fatalf("expected no downloads, got %v", downloader.calls)
	}
}

func TestProbePrefersContainerDuration(t *testing.T) {
	downloader := &stubDownloader{info: ytdlp.VideoInfo{Title: "T", Description: "D", DurationSeconds: 7}}
	stage, _ := newTestStage(t, downloader, &stubRenderer{})

	meta, err := stage.Probe(context.Background(), "abc", "/tmp/abc.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Title != "T" || meta.Description != "D" || meta.DurationSeconds != 8 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestBurnCaptionsRendersPerLanguageFile(t *testing.T) {
	renderer := &stubRenderer{}
	stage, store := newTestStage(t, &stubDownloader{}, renderer)
	parts := []job.TranslatedPart{{Translation: "it's", OffsetMillis: 0}, {Translation: "b", OffsetMillis: 2000}}

	rendered, err := stage.BurnCaptions(context.Background(), "abc", language.Spanish, "merged.mp4", parts, 5)
	if err != nil {
		t.Fatalf("BurnCaptions: %v", err)
	}
	want, _ := store.Path(artifacts.RenderedKey("abc", language.Spanish))
	if rendered != want || !exists(t, rendered) {
		t.Fatalf("expected rendered file at %s", want)
	}
	if renderer.overlays[0].Text != "it’s" || renderer.overlays[1].End != 5 {
		t.Fatalf("unexpected overlays %+v", renderer.overlays)
	}
}

func TestBurnCaptionsFailureRemovesPartialRender(t *testing.T) {
	renderer := &stubRenderer{burnErr: errors.New("render failed")}
	stage, store := newTestStage(t, &stubDownloader{}, renderer)

	_, err := stage.BurnCaptions(context.Background(), "abc", language.German, "merged.mp4", []job.TranslatedPart{{Translation: "x"}}, 2)
	if err == nil {
		t.Fatal("expected render error")
	}
	rendered, _ := store.Path(artifacts.RenderedKey("abc", language.German))
	if exists(t, rendered) {
		t.Fatal("expected partial render removed")
	}
}

func TestCleanupRemovesMergedAndRendered(t *testing.T) {
	stage, store := newTestStage(t, &stubDownloader{}, &stubRenderer{})
	for _, key := range []artifacts.Key{artifacts.MergedKey("abc"), artifacts.RenderedKey("abc", language.Thai)} {
		if err := store.Write(context.Background(), key, []byte("x")); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	if err := stage.Cleanup(context.Background(), "abc", language.Thai); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, key := range []artifacts.Key{artifacts.MergedKey("abc"), artifacts.RenderedKey("abc", language.Thai)} {
		if has, _ := store.Has(context.Background(), key); has {
			t.Fatalf("expected %s removed", key)
		}
	}
}
