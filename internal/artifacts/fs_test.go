package artifacts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidlingo/internal/artifacts"
)

func TestKeyLayout(t *testing.T) {
	cases := []struct {
		key  artifacts.Key
		want string
	}{
		{artifacts.TranscriptKey("abc", "Spanish"), "translations/Spanish/abc.json"},
		{artifacts.MergedKey("abc"), "media/abc.mp4"},
		{artifacts.RenderedKey("abc", "Thai"), "media/Thai/abc.mp4"},
	}
	for _, tc := range cases {
		got, err := tc.key.RelPath()
		if err != nil {
			t.Fatalf("RelPath(%+v): %v", tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("RelPath(%+v) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestKeyRejectsUnsafeInput(t *testing.T) {
	for _, key := range []artifacts.Key{
		artifacts.TranscriptKey("../etc", "Spanish"),
		artifacts.TranscriptKey("", "Spanish"),
		artifacts.TranscriptKey("abc", "Klingon"),
		{Kind: "other", VideoID: "abc"},
	} {
		if _, err := key.RelPath(); err == nil {
			t.Fatalf("expected error for %+v", key)
		}
	}
}

func TestFSRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := artifacts.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()
	key := artifacts.TranscriptKey("abc", "Spanish")

	if ok, err := store.Has(ctx, key); ok || err != nil {
		t.Fatalf("Has before write = %v, %v", ok, err)
	}
	if _, err := store.Read(ctx, key); !errors.Is(err, artifacts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Write(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "translations", "Spanish", "abc.json")); err != nil {
		t.Fatalf("expected file at hierarchical path: %v", err)
	}
	if ok, err := store.Has(ctx, key); !ok || err != nil {
		t.Fatalf("Has after write = %v, %v", ok, err)
	}
	data, err := store.Read(ctx, key)
	if err != nil || string(data) != "[]" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should succeed: %v", err)
	}
	if ok, _ := store.Has(ctx, key); ok {
		t.Fatal("expected artifact gone after delete")
	}
}

func TestFSEnsureParent(t *testing.T) {
	store, err := artifacts.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	p, err := store.EnsureParent(artifacts.RenderedKey("abc", "French"))
	if err != nil {
		t.Fatalf("EnsureParent: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(p)); err != nil || !info.IsDir() {
		t.Fatalf("expected parent directory, err=%v", err)
	}
}
