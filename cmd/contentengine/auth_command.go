package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentengine/internal/services/googleauth"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize an OAuth client and cache the Google token",
		Long: "Only needed for OAuth client secrets. Service account keys are used " +
			"directly and need no token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := googleauth.Authorize(cmd.Context(), cfg.Google, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.Google.TokenFile)
			return nil
		},
	}
}
