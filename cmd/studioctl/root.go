package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var serverFlag, tokenFlag string

	ctx := &commandContext{server: &serverFlag, token: &tokenFlag}

	rootCmd := &cobra.Command{
		Use:           "studioctl",
		Short:         "Scene production CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", envOr("STUDIO_URL", "http://localhost:8000"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", os.Getenv("STUDIO_TOKEN"), "Bearer token")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newScenesCommand(ctx))
	rootCmd.AddCommand(newNextCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))
	rootCmd.AddCommand(newStitchCommand(ctx))
	rootCmd.AddCommand(newSegmentCommand())

	return rootCmd
}

// commandContext carries the persistent flags to subcommands
type commandContext struct {
	server *string
	token  *string
}

func (c *commandContext) api() *apiClient {
	return newAPIClient(*c.server, *c.token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
