package preflight

import (
	"context"
	"fmt"
	"os"

	"vidlingo/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory results are reported but never block startup.
	Advisory bool
}

// RunAll executes the startup checks for the given config. The LLM check is
// only run when withLLM is set because it spends a metered request.
func RunAll(ctx context.Context, cfg *config.Config, withLLM bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Credentials directory", cfg.Paths.CredentialsDir))
	results = append(results, CheckFreeSpace("Free space", cfg.Paths.DataDir, cfg.Workflow.MinFreeGiB))
	for _, dep := range CheckSystemDeps(cfg) {
		r := Result{Name: dep.Name, Passed: dep.Available, Detail: dep.Detail}
		if r.Passed {
			r.Detail = dep.Command
		}
		results = append(results, r)
	}
	results = append(results, CheckChannels(cfg)...)
	if withLLM {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.LLM))
	}
	return results
}

// CheckChannels reports whether each enabled language has channel
// credentials. Missing credentials only block jobs for that language.
func CheckChannels(cfg *config.Config) []Result {
	var out []Result
	for _, lang := range cfg.EnabledLanguages() {
		name := "Channel " + lang.String()
		path := cfg.CredentialsPath(lang.String())
		if _, err := os.Stat(path); err != nil {
			out = append(out, Result{Name: name, Detail: fmt.Sprintf("no credentials; run `vidlingo channel setup %s`", lang), Advisory: true})
			continue
		}
		out = append(out, Result{Name: name, Passed: true, Detail: path, Advisory: true})
	}
	return out
}

// Failed returns the blocking results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Passed || r.Advisory {
			continue
		}
		out = append(out, r)
	}
	return out
}
