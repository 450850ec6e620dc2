package sessions

import (
	"context"
	"time"
)

// Repository port
type Repository interface {
	// GetOrCreateSession returns the row for s.SessionToken, inserting s when the token
	// is new. An existing row is returned unchanged.
	GetOrCreateSession(ctx context.Context, s Session) (*Session, error)
	// UpdateSessionActivity overwrites both counters. Unknown ids are ignored.
	UpdateSessionActivity(ctx context.Context, id string, policiesAnalyzed, questionsAsked int, at time.Time) error
	// CleanExpiredSessions deletes rows with ExpiresAt <= now and reports how many.
	CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
