package store

import (
	"context"
	"fmt"

	"github.com/example/rdo/internal/schema"
)

const insertJobSQL = `
INSERT INTO sync_queue (id, type, report_id, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`

func execInsertJob(ctx context.Context, e execer, job *schema.QueueItem) error {
	_, err := e.ExecContext(ctx, insertJobSQL,
		job.ID, string(job.Type), job.ReportID, fmtTime(job.CreatedAt))
	return err
}

// EnqueueJob appends one unit of upload work.
func (s *Store) EnqueueJob(ctx context.Context, job *schema.QueueItem) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid queue item: %w", err)
	}
	if err := execInsertJob(ctx, s.conn, job); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// Jobs returns the outstanding queue in creation order. The upload phase
// drains in exactly this order to preserve per-report retry ordering.
func (s *Store) Jobs(ctx context.Context) ([]schema.QueueItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, type, report_id, created_at FROM sync_queue
		 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync queue: %w", err)
	}
	defer rows.Close()

	var out []schema.QueueItem
	for rows.Next() {
		var q schema.QueueItem
		var typ, createdAt string
		if err := rows.Scan(&q.ID, &typ, &q.ReportID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		q.Type = schema.JobType(typ)
		q.CreatedAt = parseTime(createdAt)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync queue: %w", err)
	}
	return out, nil
}

// DeleteJob removes a consumed queue item. Idempotent.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// QueueSize returns the number of outstanding jobs.
func (s *Store) QueueSize(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}

// CompleteUpload finishes one successfully pushed job in a single
// transaction: optionally reflects the FINALIZADO->SINCRONIZADO flip that
// was sent optimistically, then consumes the queue item. Either both happen
// or neither does.
func (s *Store) CompleteUpload(ctx context.Context, jobID, reportID string, markSynced bool) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if markSynced {
		if _, err := tx.ExecContext(ctx,
			`UPDATE reports SET status = ? WHERE id = ?`,
			string(schema.StatusSincronizado), reportID); err != nil {
			return fmt.Errorf("failed to mark report %s synced: %w", reportID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to consume job %s: %w", jobID, err)
	}

	return tx.Commit()
}
