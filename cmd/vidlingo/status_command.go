package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"vidlingo/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, pipeline and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				for _, line := range renderDaemonStatus(status, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderDaemonStatus(status api.DaemonStatus, colorize bool) []string {
	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "stopping", colorize))
	}
	lines = append(lines, renderStatusLine("Data dir", statusInfo, status.DataDir, colorize))
	lines = append(lines, renderStatusLine("Languages", statusInfo, strings.Join(status.Languages, ", "), colorize))

	wf := status.Workflow
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Pipeline", colorize)...)
	if wf.Active != nil {
		detail := fmt.Sprintf("%s -> %s", wf.Active.VideoID, wf.Active.Language)
		if wf.Stage != "" {
			detail += fmt.Sprintf(" (%s)", wf.Stage)
		}
		if wf.UploadPercent > 0 {
			detail += fmt.Sprintf(" %.0f%% uploaded", wf.UploadPercent)
		}
		lines = append(lines, renderStatusLine("Active job", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Active job", statusInfo, "idle", colorize))
	}
	lines = append(lines, renderStatusLine("Queue", statusInfo, fmt.Sprintf("%d job(s)", wf.QueueLength), colorize))
	lines = append(lines, renderStatusLine("Processed", statusInfo, fmt.Sprintf("%d published, %d failed", wf.Processed, wf.Failed), colorize))
	if wf.LastPublished != "" {
		lines = append(lines, renderStatusLine("Last published", statusInfo, wf.LastPublished, colorize))
	}
	if wf.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, wf.LastError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, dep := range status.Dependencies {
		if dep.Available {
			lines = append(lines, renderStatusLine(dep.Name, statusOK, dep.Command, colorize))
			continue
		}
		lines = append(lines, renderStatusLine(dep.Name, statusError, dep.Detail, colorize))
	}
	if health, ok := wf.Dependencies["channels"]; ok {
		if health.Ready {
			lines = append(lines, renderStatusLine("Channels", statusOK, "credentials present", colorize))
		} else {
			lines = append(lines, renderStatusLine("Channels", statusWarn, health.Detail, colorize))
		}
	}
	var others []string
	for name := range wf.Dependencies {
		if name != "channels" && !dependencyListed(status.Dependencies, name) {
			others = append(others, name)
		}
	}
	sort.Strings(others)
	for _, name := range others {
		health := wf.Dependencies[name]
		if health.Ready {
			lines = append(lines, renderStatusLine(name, statusOK, "", colorize))
		} else {
			lines = append(lines, renderStatusLine(name, statusError, health.Detail, colorize))
		}
	}
	return lines
}

func dependencyListed(deps []api.DependencyStatus, name string) bool {
	for _, dep := range deps {
		if dep.Name == name {
			return true
		}
	}
	return false
}
