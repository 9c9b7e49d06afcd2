package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentengine/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var online bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify configuration, credentials and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			if err := cfg.RequireRemote(); err != nil {
				failures++
				fmt.Fprintln(out, renderStatusLine("Remote settings", statusError, err.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Remote settings", statusOK, "", colorize))
			}
			tracking := "local only"
			if cfg.TrackingRemote() {
				tracking = "spreadsheet " + cfg.Sheets.SpreadsheetID
			}
			fmt.Fprintln(out, renderStatusLine("Tracking", statusInfo, tracking, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Readiness", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range preflight.RunAll(cmd.Context(), cfg, preflight.Options{Online: online}) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				detail := dep.Command
				if !dep.Available {
					kind = statusError
					detail = dep.Detail
					if dep.Optional {
						kind = statusWarn
					} else {
						failures++
					}
				}
				fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
			}

			if online {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Google", colorize) {
					fmt.Fprintln(out, line)
				}
				failures += checkRemote(cmd, cfg, colorize)
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also contact Google and the model endpoints")
	return cmd
}
