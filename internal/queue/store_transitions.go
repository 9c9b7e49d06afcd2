package queue

import (
	"context"
	"fmt"
	"time"
)

// ResetStuckProcessing returns every in-flight item to pending. A batch run
// calls it after taking the host lock, so anything still mid-stage belongs to
// a run that was killed.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	processing := processingList()
	args := make([]any, 0, len(processing)+3)
	args = append(args, StatusPending, InterruptedReason, timestamp(time.Now()))
	args = append(args, statusArgs(processing)...)
	res, err := s.exec(
		ctx,
		`UPDATE queue_items
         SET status = ?, progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+makePlaceholders(len(processing))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat stamps the item as alive; `status` uses it to flag items
// whose run stopped reporting.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := timestamp(time.Now())
	_, err := s.exec(ctx, `UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// RetryFailed moves failed items back to pending with a cleared attempt
// counter, so the next run picks them up even past max_attempts. With no
// ids every failed item is reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE queue_items
        SET status = ?, attempts = 0, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusPending, timestamp(time.Now()), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
