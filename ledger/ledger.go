// Package ledger records which messages triage has processed and how.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS triage_entries (
	id           TEXT PRIMARY KEY,
	message_id   TEXT NOT NULL UNIQUE,
	thread_id    TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	sender       TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	draft_id     TEXT NOT NULL DEFAULT '',
	processed_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_triage_processed_at ON triage_entries(processed_at);
`

// Entry is one triaged message.
type Entry struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"message_id"`
	ThreadID    string    `json:"thread_id,omitempty"`
	Subject     string    `json:"subject"`
	From        string    `json:"from"`
	Category    string    `json:"category"`
	Summary     string    `json:"summary,omitempty"`
	DraftID     string    `json:"draft_id,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// SQLiteStore persists triage entries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at dbPath. Use ":memory:" for an
// ephemeral ledger. The caller is responsible for calling Close.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Record stores e, assigning an id and timestamp when unset. Recording the
// same message again replaces the earlier entry.
func (s *SQLiteStore) Record(ctx context.Context, e *Entry) error {
	if e.MessageID == "" {
		return errors.New("ledger entry without message id")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triage_entries (id, message_id, thread_id, subject, sender, category, summary, draft_id, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			thread_id = excluded.thread_id,
			subject = excluded.subject,
			sender = excluded.sender,
			category = excluded.category,
			summary = excluded.summary,
			draft_id = excluded.draft_id,
			processed_at = excluded.processed_at`,
		e.ID, e.MessageID, e.ThreadID, e.Subject, e.From, e.Category, e.Summary, e.DraftID, e.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.MessageID, err)
	}
	return nil
}

// Seen reports whether messageID has been recorded.
func (s *SQLiteStore) Seen(ctx context.Context, messageID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM triage_entries WHERE message_id = ?`, messageID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", messageID, err)
	}
	return n > 0, nil
}

// Recent returns the latest entries, newest first. A non-positive limit
// defaults to 20.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, thread_id, subject, sender, category, summary, draft_id, processed_at
		FROM triage_entries
		ORDER BY processed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MessageID, &e.ThreadID, &e.Subject, &e.From,
			&e.Category, &e.Summary, &e.DraftID, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
