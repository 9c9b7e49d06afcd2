package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"contentengine/internal/logging"
	"contentengine/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean item workspaces",
	}
	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))
	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces left on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.List(cfg.Paths.StagingDir)
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workspaces")
				return nil
			}
			rows := make([][]string, 0, len(dirs))
			for _, d := range dirs {
				rows = append(rows, []string{d.Key, humanize.Time(d.ModTime), humanize.IBytes(uint64(d.Size))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Modified", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale workspaces",
		Long:  "Removes workspaces older than workflow.stale_staging_hours, or every workspace with --all.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := time.Duration(cfg.Workflow.StaleStagingHours) * time.Hour
			if all {
				maxAge = 0
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge, logging.NewNop())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d workspace(s)\n", len(result.Removed))
			for _, failure := range result.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", failure.Path, failure.Err)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d workspace(s) could not be removed", len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every workspace regardless of age")
	return cmd
}
