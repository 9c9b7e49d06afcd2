// Package sheets writes the shared processing ledger and the status cell in a
// Google spreadsheet.
//
// The ledger sheet holds one row per processing attempt with columns
// A Timestamp, B Original Link, C Final Link, D Platforms, E Status,
// F Original ID, G Strategy, H Duration. A row is appended when an item
// starts and the last row carrying the same id is rewritten when it ends.
// The monitor sheet holds a single A1:B1 pair of state and message.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"contentengine/internal/services"
)

const (
	valueInputOption = "USER_ENTERED"
	// TimestampLayout is how the start timestamp is written to column A.
	TimestampLayout  = "2006-01-02 15:04:05"
	processingMarker = "Processing..."
)

// Status values written to column E.
const (
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// Config names the spreadsheet and its two tabs.
type Config struct {
	SpreadsheetID string
	LedgerSheet   string
	MonitorSheet  string
}

// Row is one decoded ledger row.
type Row struct {
	Number     int
	Timestamp  time.Time
	SourceLink string
	FinalLink  string
	Platforms  string
	Status     string
	SourceID   string
	Strategy   string
	Duration   string
}

// Start describes the lock row appended when an item begins.
type Start struct {
	SourceID   string
	SourceLink string
	Name       string
}

// Completion is the final state written over an item's latest row.
type Completion struct {
	SourceID  string
	FinalLink string
	Platforms []string
	Status    string
	Strategy  string
	Duration  time.Duration
}

// Client wraps the Sheets values API.
type Client struct {
	svc *sheets.Service
	cfg Config
	now func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a client around an authorized HTTP client.
func New(ctx context.Context, httpClient *http.Client, cfg Config, opts []Option, apiOpts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sheets", "new service", "spreadsheet id is empty", nil)
	}
	all := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, apiOpts...)
	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sheets", "new service", "unable to create Sheets service", err)
	}
	c := &Client{svc: svc, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ledgerRange(cells string) string {
	return fmt.Sprintf("'%s'!%s", c.cfg.LedgerSheet, cells)
}

// RecordStart appends the Processing lock row for an item.
func (c *Client) RecordStart(ctx context.Context, start Start) error {
	row := []any{
		c.now().Format(TimestampLayout),
		start.SourceLink,
		processingMarker,
		processingMarker,
		StatusProcessing,
		start.SourceID,
		"Started: " + start.Name,
		"",
	}
	_, err := c.svc.Spreadsheets.Values.Append(c.cfg.SpreadsheetID, c.ledgerRange("A2:A"), &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return services.Wrap(classify(err), "sheets", "record start", start.SourceID, err)
	}
	return nil
}

// RecordCompletion rewrites the latest row for the item with its final state.
// It returns services.ErrNotFound when no row carries the id.
func (c *Client) RecordCompletion(ctx context.Context, done Completion) error {
	rowNumber, err := c.lastRowFor(ctx, done.SourceID)
	if err != nil {
		return err
	}
	duration := ""
	if done.Duration > 0 {
		duration = strconv.FormatFloat(done.Duration.Seconds(), 'f', 1, 64)
	}
	cells := fmt.Sprintf("C%d:H%d", rowNumber, rowNumber)
	values := []any{
		done.FinalLink,
		strings.Join(done.Platforms, ", "),
		done.Status,
		done.SourceID,
		done.Strategy,
		duration,
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, c.ledgerRange(cells), &sheets.ValueRange{
		Values: [][]any{values},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return services.Wrap(classify(err), "sheets", "record completion", done.SourceID, err)
	}
	return nil
}

func (c *Client) lastRowFor(ctx context.Context, sourceID string) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, c.ledgerRange("F2:F")).Context(ctx).Do()
	if err != nil {
		return 0, services.Wrap(classify(err), "sheets", "find row", sourceID, err)
	}
	for i := len(resp.Values) - 1; i >= 0; i-- {
		if cell(resp.Values[i], 0) == sourceID {
			return i + 2, nil
		}
	}
	return 0, services.Wrap(services.ErrNotFound, "sheets", "find row", "no ledger row for "+sourceID, nil)
}

// Rows reads every ledger row below the header, keeping sheet row numbers.
func (c *Client) Rows(ctx context.Context) ([]Row, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, c.ledgerRange("A2:H")).Context(ctx).Do()
	if err != nil {
		return nil, services.Wrap(classify(err), "sheets", "read ledger", "", err)
	}
	rows := make([]Row, 0, len(resp.Values))
	for i, values := range resp.Values {
		row := Row{
			Number:     i + 2,
			SourceLink: cell(values, 1),
			FinalLink:  cell(values, 2),
			Platforms:  cell(values, 3),
			Status:     cell(values, 4),
			SourceID:   cell(values, 5),
			Strategy:   cell(values, 6),
			Duration:   cell(values, 7),
		}
		row.Timestamp, _ = ParseTimestamp(cell(values, 0))
		rows = append(rows, row)
	}
	return rows, nil
}

// UpdateMonitor overwrites the status cell pair with state and a
// "[HH:MM:SS] message" line.
func (c *Client) UpdateMonitor(ctx context.Context, state, message string) error {
	line := fmt.Sprintf("[%s] %s", c.now().Format("15:04:05"), message)
	rng := fmt.Sprintf("'%s'!A1:B1", c.cfg.MonitorSheet)
	_, err := c.svc.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, rng, &sheets.ValueRange{
		Values: [][]any{{state, line}},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return services.Wrap(classify(err), "sheets", "update monitor", state, err)
	}
	return nil
}

// Title fetches the spreadsheet title; check uses it to prove access.
func (c *Client) Title(ctx context.Context) (string, error) {
	resp, err := c.svc.Spreadsheets.Get(c.cfg.SpreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", services.Wrap(classify(err), "sheets", "get", c.cfg.SpreadsheetID, err)
	}
	if resp.Properties == nil {
		return "", nil
	}
	return resp.Properties.Title, nil
}

// ParseTimestamp reads column A. The sheet may echo the value back in its
// own locale format because writes are USER_ENTERED.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339, "1/2/2006 15:04:05", "2006/01/02 15:04:05"} {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func cell(values []any, idx int) string {
	if idx >= len(values) || values[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(values[idx]))
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return services.ErrTransient
	}
	switch apiErr.Code {
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.ErrConfiguration
	case http.StatusBadRequest:
		return services.ErrValidation
	}
	return services.ErrTransient
}
