package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidlingo/internal/logging"
	"vidlingo/internal/staging"
)

func newMediaCommand(ctx *commandContext) *cobra.Command {
	mediaCmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect and clean downloaded and rendered media",
	}
	mediaCmd.AddCommand(newMediaListCommand(ctx))
	mediaCmd.AddCommand(newMediaCleanCommand(ctx))
	return mediaCmd
}

func newMediaListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files in the media directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			files, err := staging.ListFiles(cfg.MediaDir())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "Media directory is empty")
				return nil
			}
			var total int64
			rows := make([][]string, len(files))
			for i, f := range files {
				total += f.Size
				rows[i] = []string{f.RelPath, humanize.IBytes(uint64(f.Size)), humanize.Time(f.ModTime), yesNo(f.Partial)}
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Size", "Modified", "Partial"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
			fmt.Fprintf(out, "%d file(s), %s\n", len(files), humanize.IBytes(uint64(total)))
			return nil
		},
	}
}

func newMediaCleanCommand(ctx *commandContext) *cobra.Command {
	var stale time.Duration
	var partialsOnly bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove interrupted downloads and media older than --stale",
		Long: "Remove interrupted downloads and media older than --stale.\n\n" +
			"Run this only while the daemon is idle: a running job's intermediates look like leftovers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewNop()
			mediaDir := cfg.MediaDir()

			results := []staging.CleanResult{staging.CleanPartials(cmd.Context(), mediaDir, logger)}
			if !partialsOnly && stale > 0 {
				results = append(results, staging.CleanStale(cmd.Context(), mediaDir, stale, logger))
			}

			out := cmd.OutOrStdout()
			removed, failed := 0, 0
			for _, res := range results {
				for _, path := range res.Removed {
					fmt.Fprintf(out, "removed %s\n", path)
				}
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", e.Path, e.Error)
				}
				removed += len(res.Removed)
				failed += len(res.Errors)
			}
			fmt.Fprintf(out, "Removed %d file(s)\n", removed)
			if failed > 0 {
				return fmt.Errorf("%d file(s) could not be removed", failed)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&stale, "stale", 72*time.Hour, "Remove media last modified longer ago than this (0 disables)")
	cmd.Flags().BoolVar(&partialsOnly, "partials", false, "Only remove interrupted download intermediates")
	return cmd
}
