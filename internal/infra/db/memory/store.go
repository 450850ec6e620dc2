package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/policylens/internal/application"
	"github.com/bryanwahyu/policylens/internal/domain/clauses"
	"github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/domain/sessions"
	"github.com/bryanwahyu/policylens/internal/domain/users"
)

// Store keeps everything in maps behind one mutex. Data is lost on restart.
type Store struct {
	mu    sync.Mutex
	clock application.Clock

	users        map[string]*users.User
	analyses     map[string]*policies.Analysis
	clauses      map[string]*clauses.Clause // by clause text
	insights     []*insights.Insight
	sessions     map[string]*sessions.Session // by id
	sessionToken map[string]string            // token -> id
}

var _ application.Storage = (*Store)(nil)

func New(clock application.Clock) *Store {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Store{
		clock:        clock,
		users:        map[string]*users.User{},
		analyses:     map[string]*policies.Analysis{},
		clauses:      map[string]*clauses.Clause{},
		sessions:     map[string]*sessions.Session{},
		sessionToken: map[string]string{},
	}
}

// Check implements middleware.HealthChecker.
func (s *Store) Check(ctx context.Context) error { return nil }

//
// ==== users ====
//

func (s *Store) GetUser(ctx context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.users[id]), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	return s.findUser(func(u *users.User) bool { return u.Username == username }), nil
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*users.User, error) {
	return s.findUser(func(u *users.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID }), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.findUser(func(u *users.User) bool { return u.Email != nil && *u.Email == email }), nil
}

func (s *Store) findUser(match func(*users.User) bool) *users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return copyUser(u)
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, nu users.NewUser) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == nu.Username ||
			(nu.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *nu.GoogleID) ||
			(nu.Email != nil && u.Email != nil && *u.Email == *nu.Email) {
			return nil, users.ErrDuplicate
		}
	}
	lang := nu.PreferredLanguage
	if lang == "" {
		lang = users.DefaultLanguage
	}
	u := &users.User{
		ID:                uuid.NewString(),
		Username:          nu.Username,
		Password:          nu.Password,
		GoogleID:          nu.GoogleID,
		Name:              nu.Name,
		Email:             nu.Email,
		PreferredLanguage: lang,
		CreatedAt:         s.clock.Now(),
	}
	s.users[u.ID] = u
	return copyUser(u), nil
}

func (s *Store) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

//
// ==== analyses ====
//

func (s *Store) CreateAnalysis(ctx context.Context, a policies.Analysis, ownerID *string) (*policies.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	a.UserID = ownerID
	a.AnalyzedAt = s.clock.Now()
	if a.ExtractedExclusions == nil {
		a.ExtractedExclusions = []string{}
	}
	if a.ExtractedConditions == nil {
		a.ExtractedConditions = []string{}
	}
	stored := a
	s.analyses[a.ID] = &stored
	return copyAnalysis(&stored), nil
}

func (s *Store) GetAnalysis(ctx context.Context, id string) (*policies.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAnalysis(s.analyses[id]), nil
}

func (s *Store) ListAnalysesByOwner(ctx context.Context, ownerID string, limit int) ([]*policies.Analysis, error) {
	if limit <= 0 {
		limit = policies.DefaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*policies.Analysis{}
	for _, a := range s.analyses {
		if a.UserID != nil && *a.UserID == ownerID {
			out = append(out, copyAnalysis(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AnalyzedAt.Equal(out[j].AnalyzedAt) {
			return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteAnalysis(ctx context.Context, id, requesterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok || a.UserID == nil || *a.UserID != requesterID {
		return false, nil
	}
	delete(s.analyses, id)
	for _, in := range s.insights {
		if in.PolicyID != nil && *in.PolicyID == id {
			in.PolicyID = nil
		}
	}
	return true, nil
}

//
// ==== clauses ====
//

func (s *Store) ExplainClause(ctx context.Context, c clauses.Clause) (*clauses.Clause, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if existing, ok := s.clauses[c.ClauseText]; ok {
		existing.FrequencyCount++
		existing.LastUsedAt = now
		cp := *existing
		return &cp, true, nil
	}
	c.ID = uuid.NewString()
	c.FrequencyCount = 1
	c.CreatedAt = now
	c.LastUsedAt = now
	s.clauses[c.ClauseText] = &c
	cp := c
	return &cp, false, nil
}

func (s *Store) TopClauses(ctx context.Context, limit int) ([]*clauses.Clause, error) {
	if limit <= 0 {
		limit = clauses.DefaultTopLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*clauses.Clause, 0, len(s.clauses))
	for _, c := range s.clauses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FrequencyCount != out[j].FrequencyCount {
			return out[i].FrequencyCount > out[j].FrequencyCount
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

//
// ==== insights ====
//

func (s *Store) CreateInsight(ctx context.Context, in insights.Insight) (*insights.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = uuid.NewString()
	in.AskedAt = s.clock.Now()
	stored := in
	s.insights = append(s.insights, &stored)
	cp := stored
	return &cp, nil
}

func (s *Store) ListInsightsByCategory(ctx context.Context, category insights.Category, limit int) ([]*insights.Insight, error) {
	if limit <= 0 {
		limit = insights.DefaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*insights.Insight{}
	for _, in := range s.insights {
		if in.Category == category {
			cp := *in
			out = append(out, &cp)
		}
	}
	// newest first, same tie-break as the relational store
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AskedAt.Equal(out[j].AskedAt) {
			return out[i].AskedAt.After(out[j].AskedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

//
// ==== sessions ====
//

func (s *Store) GetOrCreateSession(ctx context.Context, sess sessions.Session) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sessionToken[sess.SessionToken]; ok {
		cp := *s.sessions[id]
		return &cp, nil
	}
	now := s.clock.Now()
	sess.ID = uuid.NewString()
	sess.PoliciesAnalyzed = 0
	sess.QuestionsAsked = 0
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	if sess.LastActivityAt.IsZero() {
		sess.LastActivityAt = sess.StartedAt
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = sess.StartedAt.Add(sessions.TTL)
	}
	stored := sess
	s.sessions[sess.ID] = &stored
	s.sessionToken[sess.SessionToken] = sess.ID
	return &sess, nil
}

func (s *Store) UpdateSessionActivity(ctx context.Context, id string, policiesAnalyzed, questionsAsked int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.PoliciesAnalyzed = policiesAnalyzed
		sess.QuestionsAsked = questionsAsked
		sess.LastActivityAt = at
	}
	return nil
}

func (s *Store) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, id)
			delete(s.sessionToken, sess.SessionToken)
			n++
		}
	}
	return n, nil
}

func copyUser(u *users.User) *users.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func copyAnalysis(a *policies.Analysis) *policies.Analysis {
	if a == nil {
		return nil
	}
	cp := *a
	cp.ExtractedExclusions = append([]string{}, a.ExtractedExclusions...)
	cp.ExtractedConditions = append([]string{}, a.ExtractedConditions...)
	if a.MajorExclusions != nil {
		cp.MajorExclusions = append([]string{}, a.MajorExclusions...)
	}
	if a.ClaimRequirements != nil {
		cp.ClaimRequirements = append([]string{}, a.ClaimRequirements...)
	}
	return &cp
}

func (s *Store) Close() error { return nil }
