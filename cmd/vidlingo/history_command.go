package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidlingo/internal/api"
	"vidlingo/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool
	var stats bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent published and failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stats {
				return runHistoryStats(cmd, ctx, jsonOut)
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No finished jobs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Finished", "Video", "Language", "Outcome", "Detail"},
					historyRows(resp.Entries),
					nil,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (defaults to workflow.history_limit)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print totals from the local ledger instead of recent entries")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		detail := e.PublishedURL
		if e.Outcome == history.OutcomeFailed {
			detail = strings.TrimSpace(e.FailedStage + ": " + e.ErrorMessage)
		}
		rows[i] = []string{
			e.FinishedAt.Local().Format(time.DateTime),
			e.VideoID,
			e.Language,
			string(e.Outcome),
			truncate(detail, 60),
		}
	}
	return rows
}

// runHistoryStats reads the ledger file directly so it works without a
// running daemon.
func runHistoryStats(cmd *cobra.Command, ctx *commandContext, jsonOut bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, stats)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Published: %d\n", stats.Published)
	fmt.Fprintf(out, "Failed:    %d\n", stats.Failed)
	return nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
