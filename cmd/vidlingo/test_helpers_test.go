package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidlingo/internal/config"
	"vidlingo/internal/daemon"
	"vidlingo/internal/logging"
	"vidlingo/internal/testsupport"
)

const testToken = "static-token"

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	configPath string
	apiAddr    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithChannelCredentials("Spanish"),
		testsupport.WithAPIToken(testToken),
	)
	cfg.Languages.Enabled = []string{"Spanish", "French"}
	cfg.API.JWTSecret = "jwt-secret"
	cfg.API.JWTIssuer = "vidlingo-test"

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	d, err := daemon.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.Build: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		configPath: configPath,
		apiAddr:    d.APIAddr(),
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath, "--api", e.apiAddr}, args...), "")
}

func runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	quoted := make([]string, len(cfg.Languages.Enabled))
	for i, lang := range cfg.Languages.Enabled {
		quoted[i] = fmt.Sprintf("%q", lang)
	}
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
credentials_dir = %q
api_bind = %q

[api]
api_token = %q
jwt_secret = %q
jwt_issuer = %q

[languages]
enabled = [%s]

[llm]
api_key = "test"

[workflow]
min_free_gib = 0
`,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.CredentialsDir,
		cfg.Paths.APIBind,
		cfg.API.Token,
		cfg.API.JWTSecret,
		cfg.API.JWTIssuer,
		strings.Join(quoted, ", "),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
