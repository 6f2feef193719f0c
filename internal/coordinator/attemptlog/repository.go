package attemptlog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Latest when no row exists for the attempt.
var ErrNotFound = errors.New("attemptlog: attempt not found")

// Repository persists attempt log entries. The table is append-only: every
// Save adds a row.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	Latest(ctx context.Context, attemptID string) (*Entry, error)
}
