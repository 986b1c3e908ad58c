package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidlingo/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var languageFlag string
	var emailFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit <video-url-or-id>",
		Short: "Queue a video for translation and re-publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.SubmitRequest{
				Video:    strings.TrimSpace(args[0]),
				Language: strings.TrimSpace(languageFlag),
				Email:    strings.TrimSpace(emailFlag),
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %s for %s (job %s)\n", resp.VideoID, resp.Language, resp.JobID)
				if resp.Position <= 1 {
					fmt.Fprintln(out, "Processing started")
				} else {
					fmt.Fprintf(out, "Position %d of %d\n", resp.Position, resp.QueueLength)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Target language (see `vidlingo languages`)")
	cmd.Flags().StringVarP(&emailFlag, "email", "e", "", "Address notified when the video is published")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("language")
	return cmd
}
