package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect or modify the user registry",
	}
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersAddCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered user ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRuntimeConfig()
			if err != nil {
				return err
			}
			reg, err := openRegistry(cfg.Registry)
			if err != nil {
				return err
			}
			defer reg.Close()

			users := reg.Load(cmd.Context())
			out := cmd.OutOrStdout()
			for _, id := range users {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d registered user(s)\n", len(users))
			return nil
		},
	}
}

func newUsersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user-id>",
		Short: "Register a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRuntimeConfig()
			if err != nil {
				return err
			}
			reg, err := openRegistry(cfg.Registry)
			if err != nil {
				return err
			}
			defer reg.Close()

			return reg.Add(cmd.Context(), args[0])
		},
	}
}
