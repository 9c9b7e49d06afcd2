package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source describes a backlog file as listed by the remote folder.
type Source struct {
	ID       string
	Name     string
	MimeType string
	Link     string
}

// Track returns the ledger row for a backlog file, inserting a pending row
// the first time the file is seen. Listing metadata is refreshed on every call.
func (s *Store) Track(ctx context.Context, src Source) (*Item, error) {
	if strings.TrimSpace(src.ID) == "" {
		return nil, errors.New("source id is required")
	}
	now := timestamp(time.Now())
	if _, err := s.exec(
		ctx,
		`INSERT INTO queue_items (
            source_id, name, mime_type, source_link, status, attempts,
            progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)
        ON CONFLICT(source_id) DO UPDATE SET
            name = excluded.name,
            mime_type = excluded.mime_type,
            source_link = COALESCE(excluded.source_link, queue_items.source_link)`,
		src.ID,
		src.Name,
		nullableString(src.MimeType),
		nullableString(src.Link),
		StatusPending,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("track source: %w", err)
	}
	return s.GetBySourceID(ctx, src.ID)
}

// GetByID fetches a ledger item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetBySourceID fetches the ledger item for a remote file id.
func (s *Store) GetBySourceID(ctx context.Context, sourceID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE source_id = ?`, sourceID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by source: %w", err)
	}
	return item, nil
}

// FindDoneByContentHash returns a finished item whose download hashed to the
// same content, or nil when the content has not been published yet.
func (s *Store) FindDoneByContentHash(ctx context.Context, hash, excludeSourceID string) (*Item, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE content_hash = ? AND status = ? AND source_id != ?
         ORDER BY completed_at DESC LIMIT 1`,
		hash,
		StatusDone,
		excludeSourceID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by content hash: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing ledger item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if _, err := s.exec(
		ctx,
		`UPDATE queue_items
         SET name = ?, mime_type = ?, source_link = ?, status = ?, attempts = ?,
             content_hash = ?, orientation = ?, duration_seconds = ?, title = ?,
             strategy_text = ?, platforms = ?, final_file_id = ?, final_link = ?,
             error_message = ?, progress_stage = ?, progress_percent = ?, progress_message = ?,
             last_heartbeat = ?, completed_at = ?, updated_at = ?
         WHERE id = ?`,
		item.Name,
		nullableString(item.MimeType),
		nullableString(item.SourceLink),
		item.Status,
		item.Attempts,
		nullableString(item.ContentHash),
		nullableString(item.Orientation),
		item.DurationSeconds,
		nullableString(item.Title),
		nullableString(item.StrategyText),
		nullableString(item.PlatformList()),
		nullableString(item.FinalFileID),
		nullableString(item.FinalLink),
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nullableTime(item.LastHeartbeat),
		nullableTime(item.CompletedAt),
		timestamp(item.UpdatedAt),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	return s.List(ctx, status)
}

// List returns ledger items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, statusArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearDone removes finished items from the ledger.
func (s *Store) ClearDone(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusDone)
	if err != nil {
		return 0, fmt.Errorf("clear done: %w", err)
	}
	return res.RowsAffected()
}
