package main

import (
	"fmt"

	"github.com/oukeidos/tlqc/internal/language"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List supported languages",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Supported Languages:")
			for _, code := range language.SupportedCodes() {
				lang, _ := language.GetLanguage(code)
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s [%s]\n", lang.Name, lang.Code)
			}
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
