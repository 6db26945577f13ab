package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/rdo/internal/schema"
)

const pendingColumns = `id, pending_key, source_pending_id, report_id, priority,
	description, status, origin, created_at, deleted_at`

const upsertPendingSQL = `
INSERT INTO pendings (
	id, pending_key, source_pending_id, report_id, priority,
	description, status, origin, created_at, deleted_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	pending_key = excluded.pending_key,
	source_pending_id = excluded.source_pending_id,
	report_id = excluded.report_id,
	priority = excluded.priority,
	description = excluded.description,
	status = excluded.status,
	origin = excluded.origin,
	created_at = excluded.created_at
`

func execUpsertPending(ctx context.Context, e execer, p *schema.Pending) error {
	var source sql.NullString
	if p.SourcePendingID != "" {
		source = sql.NullString{String: p.SourcePendingID, Valid: true}
	}
	_, err := e.ExecContext(ctx, upsertPendingSQL,
		p.ID,
		p.PendingKey,
		source,
		p.ReportID,
		string(p.Priority),
		p.Description,
		string(p.Status),
		string(p.Origin),
		fmtTime(p.CreatedAt),
		timeToNullString(p.DeletedAt),
	)
	return err
}

// PutPending inserts or replaces a pending by id.
func (s *Store) PutPending(ctx context.Context, p *schema.Pending) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid pending: %w", err)
	}
	if err := execUpsertPending(ctx, s.conn, p); err != nil {
		return fmt.Errorf("failed to upsert pending %s: %w", p.ID, err)
	}
	return nil
}

// BulkPutPendings upserts a batch of pendings inside one transaction.
func (s *Store) BulkPutPendings(ctx context.Context, pendings []schema.Pending) error {
	if len(pendings) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range pendings {
		if err := execUpsertPending(ctx, tx, &pendings[i]); err != nil {
			return fmt.Errorf("failed to upsert pending %s: %w", pendings[i].ID, err)
		}
	}

	return tx.Commit()
}

// GetPending retrieves a pending by id. Returns (nil, nil) when absent.
func (s *Store) GetPending(ctx context.Context, id string) (*schema.Pending, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pendings WHERE id = ?`, id)

	p, err := scanPending(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending %s: %w", id, err)
	}
	return p, nil
}

// PendingsByReport returns every pending row owned by the report, including
// locally hidden ones; callers filter on DeletedAt when presenting.
func (s *Store) PendingsByReport(ctx context.Context, reportID string) ([]schema.Pending, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+pendingColumns+` FROM pendings
		 WHERE report_id = ? ORDER BY created_at ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pendings of report %s: %w", reportID, err)
	}
	defer rows.Close()

	return scanPendings(rows)
}

// OpenPendingsByReports gathers the unresolved pendings owned by any of the
// given reports. This is the inheritance engine's source query.
func (s *Store) OpenPendingsByReports(ctx context.Context, reportIDs []string) ([]schema.Pending, error) {
	if len(reportIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(reportIDs)), ",")
	args := make([]any, 0, len(reportIDs)+1)
	for _, id := range reportIDs {
		args = append(args, id)
	}
	args = append(args, string(schema.PendingResolvido))

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+pendingColumns+` FROM pendings
		 WHERE report_id IN (`+placeholders+`) AND status <> ?
		 ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query open pendings: %w", err)
	}
	defer rows.Close()

	return scanPendings(rows)
}

// PendingsByKey returns every copy of one logical issue across all reports.
func (s *Store) PendingsByKey(ctx context.Context, pendingKey string) ([]schema.Pending, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+pendingColumns+` FROM pendings WHERE pending_key = ?`, pendingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query pendings with key %s: %w", pendingKey, err)
	}
	defer rows.Close()

	return scanPendings(rows)
}

// ResolveByKey flips every copy of the issue to RESOLVIDO, across all
// reports, so the issue can never resurface through inheritance. Returns
// the number of rows touched.
func (s *Store) ResolveByKey(ctx context.Context, pendingKey string) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE pendings SET status = ? WHERE pending_key = ?`,
		string(schema.PendingResolvido), pendingKey)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve pendings with key %s: %w", pendingKey, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// HidePending marks one local copy as deleted without touching its status.
func (s *Store) HidePending(ctx context.Context, id string, at time.Time) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE pendings SET deleted_at = ? WHERE id = ?`, fmtTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to hide pending %s: %w", id, err)
	}
	return nil
}

// DeletePendings removes rows by id inside one transaction. Used by the
// post-merge duplicate cleanup; losing copies must vanish atomically.
func (s *Store) DeletePendings(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pendings WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete pending %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// CountOpenPendings returns the number of unresolved, unhidden pendings of
// one report. Feeds the report list badge.
func (s *Store) CountOpenPendings(ctx context.Context, reportID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pendings
		 WHERE report_id = ? AND status <> ? AND deleted_at IS NULL`,
		reportID, string(schema.PendingResolvido)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count open pendings: %w", err)
	}
	return n, nil
}

func scanPending(row rowScanner) (*schema.Pending, error) {
	var p schema.Pending
	var source, deletedAt sql.NullString
	var priority, status, origin, createdAt string

	err := row.Scan(
		&p.ID,
		&p.PendingKey,
		&source,
		&p.ReportID,
		&priority,
		&p.Description,
		&status,
		&origin,
		&createdAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if source.Valid {
		p.SourcePendingID = source.String
	}
	p.Priority = schema.Priority(priority)
	p.Status = schema.PendingStatus(status)
	p.Origin = schema.Origin(origin)
	p.CreatedAt = parseTime(createdAt)
	p.DeletedAt = nullStringToTime(deletedAt)

	return &p, nil
}

func scanPendings(rows *sql.Rows) ([]schema.Pending, error) {
	var out []schema.Pending
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pendings: %w", err)
	}
	return out, nil
}
