package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one batch of backlog videos",
		Long: "Lists the upload folder, skips videos already recorded as processed, " +
			"and runs up to workflow.batch_size videos through the pipeline. " +
			"Exits non-zero when any video failed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if err := cfg.RequireRemote(); err != nil {
				return fatalRunError(services.Wrap(services.ErrConfiguration, "run", "config check", "", err))
			}
			runCtx := cmd.Context()
			return ctx.withStore(func(store *queue.Store) error {
				manager, err := buildManager(runCtx, cfg, store, logger)
				if err != nil {
					return err
				}
				summary, runErr := manager.RunBatch(runCtx)
				if services.IsFatal(runErr) {
					return fatalRunError(runErr)
				}
				if errors.Is(runErr, workflow.ErrRunInProgress) {
					fmt.Fprintln(cmd.OutOrStdout(), "Another run is in progress; nothing to do")
					return nil
				}
				if err := writeSummary(cmd, format, summary); err != nil {
					return err
				}
				if runErr != nil {
					if errors.Is(runErr, context.Canceled) {
						return fmt.Errorf("run interrupted: %w", runErr)
					}
					return runErr
				}
				return summary.ExitError()
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "Summary format: text, json or yaml")
	return cmd
}

// fatalRunError points the operator at the config tooling; no summary is
// printed because nothing ran.
func fatalRunError(err error) error {
	return fmt.Errorf("%w (check with 'contentengine config validate')", err)
}

func writeSummary(cmd *cobra.Command, format string, summary workflow.Summary) error {
	switch format {
	case "json":
		return writeJSON(cmd, summary)
	case "yaml":
		return writeYAML(cmd, summary)
	}
	rows := [][]string{
		{"Listed", fmt.Sprint(summary.Listed)},
		{"Skipped", fmt.Sprint(summary.Skipped)},
		{"Deferred", fmt.Sprint(summary.Deferred)},
		{"Processed", fmt.Sprint(summary.Processed)},
		{"Published", fmt.Sprint(summary.Succeeded)},
		{"Failed", fmt.Sprint(summary.Failed)},
		{"Duration", summary.Duration.Round(time.Second).String()},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Run " + summary.RunID, ""}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}
