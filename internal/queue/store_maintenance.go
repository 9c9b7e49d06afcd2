package queue

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Stats counts items per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("queue stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health folds Stats into pending, processing, failed and done buckets.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var h HealthSummary
	for status, count := range stats {
		h.Total += count
		switch {
		case status == StatusPending:
			h.Pending += count
		case status == StatusFailed:
			h.Failed += count
		case status == StatusDone:
			h.Done += count
		case IsProcessingStatus(status):
			h.Processing += count
		}
	}
	return h, nil
}

// CheckHealth inspects the database file: schema stamp, SQLite integrity
// check and row count. A missing file is reported, not an error.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}
	switch info, err := os.Stat(s.path); {
	case errors.Is(err, fs.ErrNotExist):
		return health, nil
	case err != nil:
		return health, fmt.Errorf("stat queue database: %w", err)
	case info.IsDir():
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	fail := func(err error) (DatabaseHealth, error) {
		health.Error = err.Error()
		return health, err
	}

	version, err := s.readSchemaVersion(ctx)
	if err != nil {
		return fail(err)
	}
	health.SchemaVersion = version

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fail(fmt.Errorf("integrity check: %w", err))
	}
	health.IntegrityCheck = integrity == "ok"
	if !health.IntegrityCheck {
		health.Error = integrity
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM queue_items").Scan(&health.TotalItems); err != nil {
		return fail(fmt.Errorf("count items: %w", err))
	}
	return health, nil
}
