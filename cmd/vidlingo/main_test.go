package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidlingo/internal/api"
)

func TestQueueEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "queue")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	out, _, err = env.run(t, "queue", "--json")
	if err != nil {
		t.Fatalf("queue --json: %v", err)
	}
	requireContains(t, out, `"length": 0`)
}

func TestStatusRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"== Daemon ==", "== Pipeline ==", "== Dependencies ==", "running (pid", "idle", "yt-dlp", "French"} {
		requireContains(t, out, want)
	}
}

func TestSubmitRejectsLanguageWithoutCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "submit", "dQw4w9WgXcQ", "--language", "French", "--email", "a@example.com")
	if err == nil {
		t.Fatal("expected submit to fail")
	}
	requireContains(t, err.Error(), "vidlingo channel setup French")
}

func TestSubmitRequiresLanguage(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "submit", "dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected missing --language to fail")
	}
}

func TestHistoryEmptyAndStats(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No finished jobs recorded")

	out, _, err = env.run(t, "history", "--stats")
	if err != nil {
		t.Fatalf("history --stats: %v", err)
	}
	requireContains(t, out, "Published: 0")
}

func TestLanguagesShowsEnabledAndCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	var spanish, french string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "Spanish"):
			spanish = line
		case strings.Contains(line, "French"):
			french = line
		}
	}
	if strings.Count(spanish, "yes") != 2 {
		t.Fatalf("expected Spanish enabled with credentials, got %q", spanish)
	}
	if strings.Count(french, "yes") != 1 {
		t.Fatalf("expected French enabled without credentials, got %q", french)
	}
}

func TestChannelList(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "channel", "list")
	if err != nil {
		t.Fatalf("channel list: %v", err)
	}
	requireContains(t, out, "Spanish")
	if strings.Contains(out, "French") {
		t.Fatalf("French has no credentials: %s", out)
	}
}

func TestChannelSetupRequiresClientCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "channel", "setup", "French")
	if err == nil {
		t.Fatal("expected setup without client id to fail")
	}
	requireContains(t, err.Error(), "client_id")
}

func TestMediaListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	mediaDir := env.cfg.MediaDir()
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	partial := filepath.Join(mediaDir, "abc.audio.part")
	merged := filepath.Join(mediaDir, "abc.mp4")
	for _, path := range []string{partial, merged} {
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	out, _, err := env.run(t, "media", "list")
	if err != nil {
		t.Fatalf("media list: %v", err)
	}
	requireContains(t, out, "abc.audio.part")
	requireContains(t, out, "2 file(s)")

	out, _, err = env.run(t, "media", "clean", "--partials")
	if err != nil {
		t.Fatalf("media clean: %v", err)
	}
	requireContains(t, out, "Removed 1 file(s)")
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Fatalf("expected partial removed, stat err=%v", err)
	}
	if _, err := os.Stat(merged); err != nil {
		t.Fatalf("expected merged media kept: %v", err)
	}

	old := time.Now().Add(-100 * time.Hour)
	if err := os.Chtimes(merged, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, _, err := env.run(t, "media", "clean", "--stale", "72h"); err != nil {
		t.Fatalf("media clean --stale: %v", err)
	}
	if _, err := os.Stat(merged); !os.IsNotExist(err) {
		t.Fatalf("expected stale media removed, stat err=%v", err)
	}
}

func TestTokenIssueProducesVerifiableToken(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "token", "issue", "viewer@example.com")
	if err != nil {
		t.Fatalf("token issue: %v", err)
	}
	auth := api.NewAuthenticator("", env.cfg.API.JWTSecret, env.cfg.API.JWTIssuer)
	principal, err := auth.Authenticate("Bearer " + strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.Email != "viewer@example.com" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if _, _, err := env.run(t, "token", "issue", "not-an-email"); err == nil {
		t.Fatal("expected invalid email to fail")
	}
}

func TestLogsPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, "vidlingo.log")
	content := "job_id=j1 one\njob_id=j2 two\njob_id=j1 three\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err := env.run(t, "logs", "-n", "1")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "job_id=j1 three" {
		t.Fatalf("unexpected tail %q", out)
	}
	out, _, err = env.run(t, "logs", "--job", "j2")
	if err != nil {
		t.Fatalf("logs --job: %v", err)
	}
	if strings.TrimSpace(out) != "job_id=j2 two" {
		t.Fatalf("unexpected filtered tail %q", out)
	}
}

func TestTestNotifyDisabledBackend(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "test-notify", "a@example.com")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}

func TestClientCommandsReportUnreachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--config", env.configPath, "--api", "127.0.0.1:1", "queue"}, "")
	if err == nil {
		t.Fatal("expected unreachable daemon error")
	}
	requireContains(t, err.Error(), "vidlingo serve")
}
