// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/zhaopengme/topicbot/pkg/config"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.builtAt=...".
var (
	version = "dev"
	commit  string
	builtAt string
)

func printVersion(w io.Writer) {
	rev := commit
	if rev == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					rev = s.Value[:7]
				}
			}
		}
	}

	if rev != "" {
		fmt.Fprintf(w, "topicbot %s (%s)\n", version, rev)
	} else {
		fmt.Fprintf(w, "topicbot %s\n", version)
	}
	if builtAt != "" {
		fmt.Fprintf(w, "built %s\n", builtAt)
	}
	fmt.Fprintf(w, "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "topicbot",
		Short:         "LINE bot that replies in persona and broadcasts conversation topics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newBroadcastCmd())
	cmd.AddCommand(newUsersCmd())
	cmd.AddCommand(newPersonaCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
