package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhaopengme/topicbot/pkg/persona"
)

func newPersonaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Work with the persona file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the system prompt built from the persona file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRuntimeConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), persona.Load(cfg.PersonaPath).SystemPrompt())
			return nil
		},
	})
	return cmd
}
