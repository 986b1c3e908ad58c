package main

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"vidlingo/internal/api"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage requester tokens for the intake API",
	}
	tokenCmd.AddCommand(&cobra.Command{
		Use:   "issue <email>",
		Short: "Mint a signed requester token carrying an email claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			addr, err := mail.ParseAddress(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid email %q: %w", args[0], err)
			}
			auth := api.NewAuthenticator("", cfg.API.JWTSecret, cfg.API.JWTIssuer)
			token, err := auth.IssueToken(addr.Address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	})
	return tokenCmd
}
