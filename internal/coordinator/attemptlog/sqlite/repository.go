// Package sqlite stores the attempt log in a local SQLite file.
//
// The database runs in WAL mode so a status read never blocks the pipeline
// appending rows.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog"

	// Pure-Go driver, registers "sqlite". No CGO needed in the container.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkout_attempts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id      TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    current_step    TEXT        NOT NULL DEFAULT '',
    -- written on STARTED only
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    -- RFC3339 TEXT, SQLite has no datetime type
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_attempts_attempt_id ON checkout_attempts(attempt_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_checkout_attempts_trace_id ON checkout_attempts(trace_id);
`

var _ attemptlog.Repository = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/checkout_attempts.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One writer connection; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, entry *attemptlog.Entry) error {
	const q = `
		INSERT INTO checkout_attempts
			(attempt_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.AttemptID,
		string(entry.Status),
		entry.CurrentStep,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt log for %q: %w", entry.AttemptID, err)
	}
	return nil
}

// Latest returns the most recent row written for attemptID.
func (r *Repository) Latest(ctx context.Context, attemptID string) (*attemptlog.Entry, error) {
	const q = `
		SELECT attempt_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   checkout_attempts
		WHERE  attempt_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	var entry attemptlog.Entry
	var updatedAt string
	err := r.db.QueryRowContext(ctx, q, attemptID).Scan(
		&entry.AttemptID,
		&entry.Status,
		&entry.CurrentStep,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: %q: %w", attemptID, attemptlog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest for %q: %w", attemptID, err)
	}

	entry.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// nullableString stores NULL rather than '' so only STARTED rows carry a
// payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
