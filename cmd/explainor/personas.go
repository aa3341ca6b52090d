// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/explainor/internal/report"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		cat, err := loadPersonas(cfg.Personas)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(cat.All())
		}
		if !isTerminal(w) {
			for _, label := range cat.Choices() {
				fmt.Fprintln(w, label)
			}
			return nil
		}
		report.WritePersonasTable(w, cat.All(), cat.Fallback())
		return nil
	},
}

func init() {
	personasCmd.Flags().Bool("json", false, "output the catalog as JSON")
	rootCmd.AddCommand(personasCmd)
}
