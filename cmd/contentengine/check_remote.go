package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentengine/internal/config"
)

// checkRemote resolves the configured folders and spreadsheet with the real
// credentials. Returns the number of failed checks.
func checkRemote(cmd *cobra.Command, cfg *config.Config, colorize bool) int {
	out := cmd.OutOrStdout()
	remote, err := connectRemote(cmd.Context(), cfg)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Credentials", statusError, err.Error(), colorize))
		return 1
	}
	fmt.Fprintln(out, renderStatusLine("Credentials", statusOK, "", colorize))

	failures := 0
	folders := []struct {
		label string
		id    string
	}{
		{"Upload folder", cfg.Drive.UploadFolderID},
		{"Final folder", cfg.Drive.FinalFolderID},
	}
	for _, f := range folders {
		name, err := remote.Drive.FolderName(cmd.Context(), f.id)
		if err != nil {
			failures++
			fmt.Fprintln(out, renderStatusLine(f.label, statusError, err.Error(), colorize))
			continue
		}
		fmt.Fprintln(out, renderStatusLine(f.label, statusOK, name, colorize))
	}

	if remote.Ledger == nil {
		fmt.Fprintln(out, renderStatusLine("Spreadsheet", statusWarn, "not configured; tracking is local to this host", colorize))
		return failures
	}
	title, err := remote.Ledger.Title(cmd.Context())
	if err != nil {
		failures++
		fmt.Fprintln(out, renderStatusLine("Spreadsheet", statusError, err.Error(), colorize))
		return failures
	}
	fmt.Fprintln(out, renderStatusLine("Spreadsheet", statusOK, title, colorize))
	return failures
}
