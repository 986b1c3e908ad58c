package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidlingo/internal/config"
	"vidlingo/internal/language"
	"vidlingo/internal/services/youtube"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	channelCmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage the YouTube channel credentials used per language",
	}
	channelCmd.AddCommand(newChannelSetupCommand(ctx))
	channelCmd.AddCommand(newChannelListCommand(ctx))
	return channelCmd
}

func tokenStore(cfg *config.Config) *youtube.TokenStore {
	return youtube.NewTokenStore(cfg.Paths.CredentialsDir,
		youtube.OAuthConfig(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret, cfg.YouTube.RedirectURL))
}

func newChannelSetupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setup <language>",
		Short: "Authorize the channel that publishes videos in a language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lang, err := language.Parse(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.YouTube.ClientID) == "" || strings.TrimSpace(cfg.YouTube.ClientSecret) == "" {
				return errors.New("youtube.client_id and youtube.client_secret must be set before channel setup")
			}

			oauthCfg := youtube.OAuthConfig(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret, cfg.YouTube.RedirectURL)
			tokens := youtube.NewTokenStore(cfg.Paths.CredentialsDir, oauthCfg)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sign in with the %s channel's Google account and open:\n\n  %s\n\n", lang, youtube.ConsentURL(oauthCfg, lang.String()))
			fmt.Fprint(out, "Paste the authorization code: ")

			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && strings.TrimSpace(code) == "" {
				return fmt.Errorf("read authorization code: %w", err)
			}
			if strings.TrimSpace(code) == "" {
				return errors.New("authorization code is required")
			}
			if _, err := tokens.Exchange(cmd.Context(), lang.String(), code); err != nil {
				return err
			}
			path, _ := tokens.Path(lang.String())
			fmt.Fprintf(out, "\nStored %s credentials at %s\n", lang, path)
			return nil
		},
	}
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List languages with stored channel credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			channels, err := tokenStore(cfg).List()
			if err != nil {
				return fmt.Errorf("list credentials: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(channels) == 0 {
				fmt.Fprintln(out, "No channel credentials stored; run `vidlingo channel setup <language>`")
				return nil
			}
			rows := make([][]string, len(channels))
			for i, channel := range channels {
				rows[i] = []string{channel, cfg.CredentialsPath(channel)}
			}
			fmt.Fprintln(out, renderTable([]string{"Language", "Credentials"}, rows, nil))
			return nil
		},
	}
}
