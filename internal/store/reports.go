package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/rdo/internal/schema"
)

const reportColumns = `id, user_id, date, shift, shift_letter, start_time, end_time,
	signature_name, status, created_at, updated_at, sync_version, deleted_at`

const upsertReportSQL = `
INSERT INTO reports (
	id, user_id, date, shift, shift_letter, start_time, end_time,
	signature_name, status, created_at, updated_at, sync_version, deleted_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	user_id = excluded.user_id,
	date = excluded.date,
	shift = excluded.shift,
	shift_letter = excluded.shift_letter,
	start_time = excluded.start_time,
	end_time = excluded.end_time,
	signature_name = excluded.signature_name,
	status = excluded.status,
	updated_at = excluded.updated_at,
	sync_version = excluded.sync_version,
	deleted_at = excluded.deleted_at
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execUpsertReport(ctx context.Context, e execer, r *schema.Report) error {
	_, err := e.ExecContext(ctx, upsertReportSQL,
		r.ID,
		r.UserID,
		r.Date,
		string(r.Shift),
		string(r.ShiftLetter),
		r.StartTime,
		r.EndTime,
		r.SignatureName,
		string(r.Status),
		fmtTime(r.CreatedAt),
		fmtTime(r.UpdatedAt),
		r.SyncVersion,
		timeToNullString(r.DeletedAt),
	)
	return err
}

// PutReport inserts or replaces a report by id.
func (s *Store) PutReport(ctx context.Context, r *schema.Report) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}
	if err := execUpsertReport(ctx, s.conn, r); err != nil {
		return fmt.Errorf("failed to upsert report %s: %w", r.ID, err)
	}
	return nil
}

// BulkPutReports upserts a batch of reports inside one transaction.
// Soft-deleted rows go in as-is; the tombstone is data, not a filter.
func (s *Store) BulkPutReports(ctx context.Context, reports []schema.Report) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range reports {
		if err := execUpsertReport(ctx, tx, &reports[i]); err != nil {
			return fmt.Errorf("failed to upsert report %s: %w", reports[i].ID, err)
		}
	}

	return tx.Commit()
}

// GetReport retrieves a report by id. Returns (nil, nil) when no row exists,
// so callers can treat absence as a normal outcome (e.g. orphaned queue jobs).
func (s *Store) GetReport(ctx context.Context, id string) (*schema.Report, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return r, nil
}

// GetReports retrieves the given ids, skipping ids with no row.
func (s *Store) GetReports(ctx context.Context, ids []string) ([]schema.Report, error) {
	out := make([]schema.Report, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetReport(ctx, id)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ListActiveReports returns every report without a soft-delete marker,
// most recently updated first.
func (s *Store) ListActiveReports(ctx context.Context) ([]schema.Report, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports
		 WHERE deleted_at IS NULL
		 ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// LatestSyncedReport finds the inheritance source for one sibling crew: the
// most recently updated report with the exact shift letter that is alive,
// fully synced, and not the report being created. Ties on updated_at break
// by lexicographically greater id, giving a deterministic total order.
// Returns (nil, nil) when the crew has no eligible report.
func (s *Store) LatestSyncedReport(ctx context.Context, letter schema.ShiftLetter, excludeID string) (*schema.Report, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports
		 WHERE shift_letter = ?
		   AND deleted_at IS NULL
		   AND id <> ?
		   AND status = ?
		 ORDER BY updated_at DESC, id DESC
		 LIMIT 1`,
		string(letter), excludeID, string(schema.StatusSincronizado))

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest synced report for %s: %w", letter, err)
	}
	return r, nil
}

// SetReportStatus updates only the status column, leaving updated_at alone:
// the FINALIZADO->SINCRONIZADO flip reflects a remote acknowledgement, not
// a content change.
func (s *Store) SetReportStatus(ctx context.Context, id string, status schema.ReportStatus) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE reports SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set status of report %s: %w", id, err)
	}
	return nil
}

// DeleteReportRow removes a report row outright, along with any pendings
// already attached to it. Only report-creation rollback uses this; every
// user-facing deletion goes through the soft-delete tombstone instead.
func (s *Store) DeleteReportRow(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pendings WHERE report_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pendings of report %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	return tx.Commit()
}

// SoftDeletedReportIDs returns the ids of every report carrying a tombstone.
func (s *Store) SoftDeletedReportIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id FROM reports WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted reports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan report id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*schema.Report, error) {
	var r schema.Report
	var shift, shiftLetter, status string
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Date,
		&shift,
		&shiftLetter,
		&r.StartTime,
		&r.EndTime,
		&r.SignatureName,
		&status,
		&createdAt,
		&updatedAt,
		&r.SyncVersion,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Shift = schema.Shift(shift)
	r.ShiftLetter = schema.ShiftLetter(shiftLetter)
	r.Status = schema.ReportStatus(status)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	r.DeletedAt = nullStringToTime(deletedAt)

	return &r, nil
}

func scanReports(rows *sql.Rows) ([]schema.Report, error) {
	var out []schema.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return out, nil
}
