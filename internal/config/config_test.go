package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidlingo/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "vidlingo")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7510" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.YouTube.PrivacyStatus != "unlisted" {
		t.Fatalf("expected unlisted uploads by default, got %q", cfg.YouTube.PrivacyStatus)
	}
	if cfg.YouTube.NotifySubscribers {
		t.Fatal("expected subscriber notifications disabled by default")
	}
	if cfg.LLM.MetadataModel != cfg.LLM.Model {
		t.Fatalf("expected metadata model to fall back to %q, got %q", cfg.LLM.Model, cfg.LLM.MetadataModel)
	}
	if got := len(cfg.Languages.Enabled); got != 5 {
		t.Fatalf("expected 5 default languages, got %d", got)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.CredentialsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if got := cfg.CredentialsPath("Spanish"); got != filepath.Join(cfg.Paths.CredentialsDir, "Spanish.json") {
		t.Fatalf("unexpected credentials path %q", got)
	}
}

func TestLoadCustomPathAndEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidlingo.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Languages struct {
			Enabled []string `toml:"enabled"`
		} `toml:"languages"`
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
		Workflow struct {
			TransientRetries int `toml:"transient_retries"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Languages.Enabled = []string{"spanish", "THAI", "Spanish"}
	custom.LLM.APIKey = "from-file"
	custom.Workflow.TransientRetries = 3

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VIDLINGO_LLM_API_KEY", "from-env")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != custom.Paths.DataDir {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if strings.Join(cfg.Languages.Enabled, ",") != "Spanish,Thai" {
		t.Fatalf("expected canonical deduplicated languages, got %v", cfg.Languages.Enabled)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Fatalf("expected env override for llm key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Workflow.TransientRetries != 3 {
		t.Fatalf("expected transient retries 3, got %d", cfg.Workflow.TransientRetries)
	}
}

func TestLoadRejectsUnknownLanguage(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidlingo.toml")
	if err := os.WriteFile(configPath, []byte("[languages]\nenabled = [\"Klingon\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestValidateBackends(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"s3 without bucket", func(c *config.Config) { c.Artifacts.Backend = "s3" }, "s3_bucket"},
		{"unknown artifacts backend", func(c *config.Config) { c.Artifacts.Backend = "ftp" }, "artifacts.backend"},
		{"ntfy without topic", func(c *config.Config) { c.Notifications.Backend = "ntfy" }, "ntfy_topic"},
		{"customerio without key", func(c *config.Config) { c.Notifications.Backend = "customerio" }, "customerio_app_key"},
		{"zero publish timeout", func(c *config.Config) { c.Workflow.PublishTimeout = 0 }, "publish_timeout"},
		{"too many retries", func(c *config.Config) { c.Workflow.TransientRetries = 9 }, "transient_retries"},
		{"public privacy ok", func(c *config.Config) { c.YouTube.PrivacyStatus = "public" }, ""},
		{"bad privacy", func(c *config.Config) { c.YouTube.PrivacyStatus = "friends" }, "privacy_status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateDaemonRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateDaemon(); err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm key error, got %v", err)
	}
	cfg.LLM.APIKey = "k"
	cfg.YouTube.ClientID = "id"
	cfg.YouTube.ClientSecret = "secret"
	if err := cfg.ValidateDaemon(); err == nil || !strings.Contains(err.Error(), "api_token") {
		t.Fatalf("expected intake auth error, got %v", err)
	}
	cfg.API.Token = "t"
	if err := cfg.ValidateDaemon(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load cleanly, exists=%v err=%v", exists, err)
	}
}
