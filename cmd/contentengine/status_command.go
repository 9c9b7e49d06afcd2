package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contentengine/internal/queue"
)

type statusReport struct {
	Database queue.DatabaseHealth `json:"database" yaml:"database"`
	Counts   map[queue.Status]int `json:"counts" yaml:"counts"`
	Active   []itemView           `json:"active" yaml:"active"`
	Failed   []itemView           `json:"failed" yaml:"failed"`
}

type itemView struct {
	ID        int64     `json:"id" yaml:"id"`
	SourceID  string    `json:"source_id" yaml:"source_id"`
	Name      string    `json:"name" yaml:"name"`
	Status    string    `json:"status" yaml:"status"`
	Attempts  int       `json:"attempts" yaml:"attempts"`
	Stage     string    `json:"stage,omitempty" yaml:"stage,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	FinalLink string    `json:"final_link,omitempty" yaml:"final_link,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

func toView(item *queue.Item) itemView {
	return itemView{
		ID:        item.ID,
		SourceID:  item.SourceID,
		Name:      item.Name,
		Status:    string(item.Status),
		Attempts:  item.Attempts,
		Stage:     item.ProgressStage,
		Error:     item.ErrorMessage,
		FinalLink: item.FinalLink,
		UpdatedAt: item.UpdatedAt,
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show local processing state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				report, err := collectStatus(cmd, store)
				if err != nil {
					return err
				}
				switch format {
				case "json":
					return writeJSON(cmd, report)
				case "yaml":
					return writeYAML(cmd, report)
				}
				printStatus(cmd, report)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func collectStatus(cmd *cobra.Command, store *queue.Store) (statusReport, error) {
	health, err := store.CheckHealth(cmd.Context())
	if err != nil {
		return statusReport{}, err
	}
	counts, err := store.Stats(cmd.Context())
	if err != nil {
		return statusReport{}, err
	}
	items, err := store.List(cmd.Context())
	if err != nil {
		return statusReport{}, err
	}
	report := statusReport{Database: health, Counts: counts}
	for _, item := range items {
		switch {
		case item.IsProcessing():
			report.Active = append(report.Active, toView(item))
		case item.Status == queue.StatusFailed:
			report.Failed = append(report.Failed, toView(item))
		}
	}
	return report, nil
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Database", colorize) {
		fmt.Fprintln(out, line)
	}
	dbKind := statusOK
	if !report.Database.IntegrityCheck {
		dbKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Path", statusInfo, report.Database.DBPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Integrity", dbKind, report.Database.Error, colorize))
	fmt.Fprintln(out, renderStatusLine("Items", statusInfo, fmt.Sprint(report.Database.TotalItems), colorize))
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(report.Counts))
	for _, status := range queue.AllStatuses() {
		if count := report.Counts[status]; count > 0 {
			rows = append(rows, []string{string(status), fmt.Sprint(count)})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No items recorded yet")
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(report.Active) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, itemTable(report.Active, func(v itemView) string { return v.Stage }, "Stage"))
	}
	if len(report.Failed) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, itemTable(report.Failed, func(v itemView) string { return truncate(v.Error, 60) }, "Error"))
	}
}

func itemTable(items []itemView, detail func(itemView) string, detailHeader string) string {
	rows := make([][]string, 0, len(items))
	for _, v := range items {
		rows = append(rows, []string{fmt.Sprint(v.ID), v.Name, v.Status, fmt.Sprint(v.Attempts), detail(v)})
	}
	return renderTable(
		[]string{"ID", "Name", "Status", "Attempts", detailHeader},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
