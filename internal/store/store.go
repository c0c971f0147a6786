// Package store persists processed emails in SQLite.
//
// The table is append-only: every run inserts what it processed, with no
// deduplication across runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/triage"
)

// Record is one stored email row.
type Record struct {
	ID        int64
	MessageID string
	Sender    string
	Subject   string
	Body      string
	RunID     string
	StoredAt  time.Time
}

// Store is a SQLite-backed email log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at dbPath and migrates it
// to the latest schema.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, "store")

	if err := migrateUp(dbPath, logger); err != nil {
		return nil, err
	}

	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreEmails inserts emails in a single transaction.
func (s *Store) StoreEmails(ctx context.Context, runID string, emails []triage.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO emails (message_id, sender, subject, body, run_id, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	storedAt := s.now().UTC()
	for _, e := range emails {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Sender, e.Subject, e.Body, runID, storedAt); err != nil {
			return fmt.Errorf("failed to insert email %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("emails stored",
		slog.String(logging.KeyRunID, runID),
		"count", len(emails))
	return nil
}

// Count returns the number of stored emails.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return n, nil
}

// ListRecent returns up to limit rows, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, sender, subject, body, run_id, stored_at
		FROM emails
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.MessageID, &r.Sender, &r.Subject, &r.Body, &r.RunID, &r.StoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan email row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate email rows: %w", err)
	}
	return out, nil
}

func ensureDir(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}
