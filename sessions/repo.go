package sessions

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Repo defines the interface for session storage operations.
type Repo interface {
	// Create stores a new session
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID, ErrNotFound when absent
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes a session by ID, ErrNotFound when absent
	Delete(ctx context.Context, sessionID string) error

	// DeleteAllForUser removes every session of a user
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)

	// DeleteAllButNewest keeps the user's keep most recently created sessions
	// and deletes the rest, oldest first
	DeleteAllButNewest(ctx context.Context, userID string, keep int) (int64, error)

	// ListByUser returns a user's sessions, newest first
	ListByUser(ctx context.Context, userID string) ([]*Session, error)

	// DeleteExpired removes sessions that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
