package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vidlingo/internal/api"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show pending jobs in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Queue(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if resp.Length == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				rows := make([][]string, len(resp.Items))
				for i, item := range resp.Items {
					state := "pending"
					if i == 0 {
						state = "active"
					}
					rows[i] = []string{strconv.Itoa(i + 1), item.VideoID, item.Language.String(), state}
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Video", "Language", "State"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
