package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/rdo/internal/schema"
)

// SoftDeleteReports marks the given reports deleted, purges their local
// children and enqueues the upload jobs, all in one transaction. A reader
// polling the store never observes the cascade half-applied.
//
// The report rows themselves are kept: the tombstone must survive so the
// deletion fact can replicate.
func (s *Store) SoftDeleteReports(ctx context.Context, ids []string, at time.Time, jobs []schema.QueueItem) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := fmtTime(at)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE reports
			 SET deleted_at = ?, updated_at = ?, sync_version = sync_version + 1
			 WHERE id = ?`, ts, ts, id); err != nil {
			return fmt.Errorf("failed to soft-delete report %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM activities WHERE report_id = ?`, id); err != nil {
			return fmt.Errorf("failed to purge activities of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pendings WHERE report_id = ?`, id); err != nil {
			return fmt.Errorf("failed to purge pendings of %s: %w", id, err)
		}
	}

	for i := range jobs {
		if err := execInsertJob(ctx, tx, &jobs[i]); err != nil {
			return fmt.Errorf("failed to enqueue job for %s: %w", jobs[i].ReportID, err)
		}
	}

	return tx.Commit()
}

// RestoreReports undoes a soft-delete from an in-memory snapshot: puts the
// reports, activities and pendings back and cancels the queued upload jobs.
// One transaction, mirror image of SoftDeleteReports.
func (s *Store) RestoreReports(ctx context.Context, reports []schema.Report, activities []schema.Activity, pendings []schema.Pending, jobIDs []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range reports {
		if err := execUpsertReport(ctx, tx, &reports[i]); err != nil {
			return fmt.Errorf("failed to restore report %s: %w", reports[i].ID, err)
		}
	}
	for i := range activities {
		if err := execUpsertActivity(ctx, tx, &activities[i]); err != nil {
			return fmt.Errorf("failed to restore activity %s: %w", activities[i].ID, err)
		}
	}
	for i := range pendings {
		if err := execUpsertPending(ctx, tx, &pendings[i]); err != nil {
			return fmt.Errorf("failed to restore pending %s: %w", pendings[i].ID, err)
		}
	}
	for _, id := range jobIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to cancel job %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// PurgeReportChildren deletes the activities and pendings of the given
// reports in one transaction, leaving the report rows untouched. Runs after
// a download when remote tombstones arrive.
func (s *Store) PurgeReportChildren(ctx context.Context, reportIDs []string) error {
	if len(reportIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(reportIDs)), ",")
	args := make([]any, 0, len(reportIDs))
	for _, id := range reportIDs {
		args = append(args, id)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM activities WHERE report_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to purge activities: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pendings WHERE report_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to purge pendings: %w", err)
	}

	return tx.Commit()
}

// Stats summarizes the store for the status surfaces.
type Stats struct {
	Reports      int `json:"reports"`
	Activities   int `json:"activities"`
	OpenPendings int `json:"open_pendings"`
	QueuedJobs   int `json:"queued_jobs"`
}

// GetStats counts live rows for the dashboard and CLI status output.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats

	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE deleted_at IS NULL`).Scan(&st.Reports); err != nil {
		return st, fmt.Errorf("failed to count reports: %w", err)
	}
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities`).Scan(&st.Activities); err != nil {
		return st, fmt.Errorf("failed to count activities: %w", err)
	}
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pendings WHERE status <> ? AND deleted_at IS NULL`,
		string(schema.PendingResolvido)).Scan(&st.OpenPendings); err != nil {
		return st, fmt.Errorf("failed to count open pendings: %w", err)
	}
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue`).Scan(&st.QueuedJobs); err != nil {
		return st, fmt.Errorf("failed to count sync queue: %w", err)
	}

	return st, nil
}
