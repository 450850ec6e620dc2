package sessions

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/sessions"
)

// Service keeps per-token usage counters for guests and signed-in users.
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// GetOrCreate is idempotent by token. A new row starts with zero counters and expires
// TTL after creation; an existing row comes back untouched.
func (s *Service) GetOrCreate(ctx context.Context, token string, ownerID *string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, application.Invalid("sessionToken is required")
	}
	now := s.Clock.Now()
	sess := domain.Session{
		UserID:         ownerID,
		SessionToken:   token,
		StartedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(domain.TTL),
	}
	if ownerID == nil {
		sess.IsGuest = 1
	}
	got, err := s.Repo.GetOrCreateSession(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("get or create session: %w", err)
	}
	return got, nil
}

// UpdateActivity overwrites both counters with the caller's totals.
func (s *Service) UpdateActivity(ctx context.Context, id string, policiesAnalyzed, questionsAsked int) error {
	if policiesAnalyzed < 0 || questionsAsked < 0 {
		return application.Invalid("counters must not be negative")
	}
	return s.Repo.UpdateSessionActivity(ctx, id, policiesAnalyzed, questionsAsked, s.Clock.Now())
}

// CleanExpired deletes every session whose expiry is at or before now.
func (s *Service) CleanExpired(ctx context.Context) (int64, error) {
	return s.Repo.CleanExpiredSessions(ctx, s.Clock.Now())
}
