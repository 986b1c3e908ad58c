package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidlingo/internal/language"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported target languages and their channel state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			enabled := make(map[language.Language]bool)
			for _, lang := range cfg.EnabledLanguages() {
				enabled[lang] = true
			}
			tokens := tokenStore(cfg)
			var rows [][]string
			for _, lang := range language.All() {
				rows = append(rows, []string{
					lang.String(),
					lang.Code(),
					yesNo(enabled[lang]),
					yesNo(tokens.Has(lang.String())),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Language", "Code", "Enabled", "Credentials"}, rows, nil))
			return nil
		},
	}
}
