package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migration upgrades the schema by exactly one version. Each runs once,
// inside its own transaction, tracked by PRAGMA user_version.
type migration struct {
	version int
	apply   func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{1, migrateBaseTables},
	{2, migratePendingKey},
	{3, migrateSoftDelete},
}

// Migrate upgrades the database to the latest schema version. Safe to call
// on every open; versions already applied are skipped.
func (s *Store) Migrate(ctx context.Context) error {
	var current int
	if err := s.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		if err := m.apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}

		// PRAGMA does not take placeholders
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record schema version %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// migrateBaseTables creates the four entity tables as they existed before
// the pending_key and soft-delete generations.
func migrateBaseTables(ctx context.Context, tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		shift TEXT NOT NULL,
		shift_letter TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		signature_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'RASCUNHO',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		sync_version INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		report_id TEXT NOT NULL,
		time TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pendings (
		id TEXT PRIMARY KEY,
		source_pending_id TEXT,
		report_id TEXT NOT NULL,
		priority TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDENTE',
		origin TEXT NOT NULL DEFAULT 'NOVA',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_queue (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		report_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
	CREATE INDEX IF NOT EXISTS idx_reports_shift_letter ON reports(shift_letter);
	CREATE INDEX IF NOT EXISTS idx_reports_updated ON reports(updated_at);
	CREATE INDEX IF NOT EXISTS idx_activities_report ON activities(report_id);
	CREATE INDEX IF NOT EXISTS idx_pendings_report ON pendings(report_id);
	CREATE INDEX IF NOT EXISTS idx_queue_created ON sync_queue(created_at);
	`

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create base tables: %w", err)
	}
	return nil
}

// migratePendingKey introduces the global issue identity. Pre-existing rows
// get the identity-preserving default pending_key = id, applied exactly once.
func migratePendingKey(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE pendings ADD COLUMN pending_key TEXT NOT NULL DEFAULT ''`,
		`UPDATE pendings SET pending_key = id WHERE pending_key = ''`,
		`CREATE INDEX IF NOT EXISTS idx_pendings_key ON pendings(pending_key)`,
		`CREATE INDEX IF NOT EXISTS idx_pendings_report_key ON pendings(report_id, pending_key)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("pending_key backfill: %w", err)
		}
	}
	return nil
}

// migrateSoftDelete adds the soft-delete markers. NULL means alive, which is
// the safe default for every pre-existing row.
func migrateSoftDelete(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE reports ADD COLUMN deleted_at TEXT`,
		`ALTER TABLE pendings ADD COLUMN deleted_at TEXT`,
		`CREATE INDEX IF NOT EXISTS idx_reports_deleted ON reports(deleted_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("soft-delete columns: %w", err)
		}
	}
	return nil
}
