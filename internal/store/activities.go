package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/rdo/internal/schema"
)

const upsertActivitySQL = `
INSERT INTO activities (id, report_id, time, description, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	report_id = excluded.report_id,
	time = excluded.time,
	description = excluded.description,
	created_at = excluded.created_at
`

func execUpsertActivity(ctx context.Context, e execer, a *schema.Activity) error {
	_, err := e.ExecContext(ctx, upsertActivitySQL,
		a.ID, a.ReportID, a.Time, a.Description, fmtTime(a.CreatedAt))
	return err
}

// PutActivity inserts or replaces an activity by id.
func (s *Store) PutActivity(ctx context.Context, a *schema.Activity) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid activity: %w", err)
	}
	if err := execUpsertActivity(ctx, s.conn, a); err != nil {
		return fmt.Errorf("failed to upsert activity %s: %w", a.ID, err)
	}
	return nil
}

// BulkPutActivities upserts a batch of activities inside one transaction.
func (s *Store) BulkPutActivities(ctx context.Context, activities []schema.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range activities {
		if err := execUpsertActivity(ctx, tx, &activities[i]); err != nil {
			return fmt.Errorf("failed to upsert activity %s: %w", activities[i].ID, err)
		}
	}

	return tx.Commit()
}

// DeleteActivity removes an activity. Idempotent: deleting a missing row
// is not an error.
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	return nil
}

// ActivitiesByReport returns a report's activities ordered by clock time.
func (s *Store) ActivitiesByReport(ctx context.Context, reportID string) ([]schema.Activity, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, report_id, time, description, created_at
		 FROM activities WHERE report_id = ?
		 ORDER BY time ASC, created_at ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities of report %s: %w", reportID, err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// CountActivities returns the number of activities owned by the report.
func (s *Store) CountActivities(ctx context.Context, reportID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE report_id = ?`, reportID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return n, nil
}

func scanActivities(rows *sql.Rows) ([]schema.Activity, error) {
	var out []schema.Activity
	for rows.Next() {
		var a schema.Activity
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ReportID, &a.Time, &a.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return out, nil
}
