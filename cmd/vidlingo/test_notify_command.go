package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidlingo/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify <address>",
		Short: "Send a test notification through the configured backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service := notifications.NewService(cfg)
			out := cmd.OutOrStdout()
			if service.Name() == "none" {
				fmt.Fprintln(out, "Notifications are disabled; set notifications.backend to ntfy or customerio")
				return nil
			}

			sendCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			msg := notifications.Message{
				To:      strings.TrimSpace(args[0]),
				Subject: "vidlingo test notification",
				Body:    "Notifications from vidlingo are configured correctly.",
				Tags:    []string{"test"},
			}
			if err := service.Send(sendCtx, msg); err != nil {
				return fmt.Errorf("send via %s: %w", service.Name(), err)
			}
			fmt.Fprintf(out, "Test notification sent via %s\n", service.Name())
			return nil
		},
	}
}
