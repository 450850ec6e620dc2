// Package storetest holds the behaviour every application.Storage backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/policylens/internal/application"
	"github.com/bryanwahyu/policylens/internal/domain/clauses"
	"github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/domain/sessions"
	"github.com/bryanwahyu/policylens/internal/domain/users"
)

// StepClock advances by Step on every call so rows get distinct timestamps.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewStepClock(start time.Time) *StepClock {
	return &StepClock{now: start.UTC().Truncate(time.Second), Step: time.Second}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.Step)
	return c.now
}

// Factory returns a fresh, empty store using clock.
type Factory func(t *testing.T, clock application.Clock) application.Storage

// Run executes the full suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("Analyses", func(t *testing.T) { testAnalyses(t, newStore) })
	t.Run("Clauses", func(t *testing.T) { testClauses(t, newStore) })
	t.Run("ClausesConcurrent", func(t *testing.T) { testClausesConcurrent(t, newStore) })
	t.Run("Insights", func(t *testing.T) { testInsights(t, newStore) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore) })
	t.Run("SessionsConcurrent", func(t *testing.T) { testSessionsConcurrent(t, newStore) })
	t.Run("EqualTimestampOrder", func(t *testing.T) { testEqualTimestampOrder(t, newStore) })
}

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, s application.Storage, username string) *users.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), users.NewUser{Username: username})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", username, err)
	}
	return u
}

func sampleAnalysis(title string) policies.Analysis {
	return policies.Analysis{
		PolicyTitle:          title,
		PolicyType:           policies.TypeHealth,
		PlainLanguageSummary: "Covers hospital stays.",
		ExtractedExclusions:  []string{"Cosmetic surgery"},
		RiskLevel:            policies.RiskMedium,
		WaitingPeriodDays:    ptr(30),
	}
}

func testUsers(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))

	u, err := s.CreateUser(ctx, users.NewUser{
		Username: "asha",
		GoogleID: ptr("g-1"),
		Email:    ptr("asha@example.com"),
	})
	if err != nil {
		t.Fatalf("CreateUser error = %v", err)
	}
	if u.ID == "" || u.PreferredLanguage != users.DefaultLanguage || u.LastLoginAt != nil {
		t.Fatalf("CreateUser = %+v, want id, default language, no last login", u)
	}

	if _, err := s.CreateUser(ctx, users.NewUser{Username: "asha"}); !errors.Is(err, users.ErrDuplicate) {
		t.Fatalf("duplicate username error = %v, want ErrDuplicate", err)
	}

	for name, lookup := range map[string]func() (*users.User, error){
		"id":       func() (*users.User, error) { return s.GetUser(ctx, u.ID) },
		"username": func() (*users.User, error) { return s.GetUserByUsername(ctx, "asha") },
		"google":   func() (*users.User, error) { return s.GetUserByGoogleID(ctx, "g-1") },
		"email":    func() (*users.User, error) { return s.GetUserByEmail(ctx, "asha@example.com") },
	} {
		got, err := lookup()
		if err != nil || got == nil || got.ID != u.ID {
			t.Fatalf("lookup by %s = %+v, %v; want user %s", name, got, err, u.ID)
		}
	}

	missing, err := s.GetUserByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("GetUserByUsername(nobody) = %+v, %v; want nil, nil", missing, err)
	}

	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.UpdateUserLastLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("UpdateUserLastLogin error = %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Fatalf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}
}

func testAnalyses(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))
	owner := mustUser(t, s, "owner")
	other := mustUser(t, s, "other")

	var created []*policies.Analysis
	for i := 1; i <= 3; i++ {
		a, err := s.CreateAnalysis(ctx, sampleAnalysis(fmt.Sprintf("Policy %d", i)), &owner.ID)
		if err != nil {
			t.Fatalf("CreateAnalysis error = %v", err)
		}
		if a.ID == "" || a.AnalyzedAt.IsZero() {
			t.Fatalf("CreateAnalysis = %+v, want id and timestamp assigned", a)
		}
		created = append(created, a)
	}
	if _, err := s.CreateAnalysis(ctx, sampleAnalysis("Not mine"), &other.ID); err != nil {
		t.Fatalf("CreateAnalysis(other) error = %v", err)
	}

	t.Run("list newest first with limit", func(t *testing.T) {
		got, err := s.ListAnalysesByOwner(ctx, owner.ID, 2)
		if err != nil {
			t.Fatalf("ListAnalysesByOwner error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].ID != created[2].ID || got[1].ID != created[1].ID {
			t.Fatalf("order = [%s %s], want [%s %s]", got[0].PolicyTitle, got[1].PolicyTitle, "Policy 3", "Policy 2")
		}
	})

	t.Run("get round trip", func(t *testing.T) {
		got, err := s.GetAnalysis(ctx, created[0].ID)
		if err != nil || got == nil {
			t.Fatalf("GetAnalysis = %v, %v", got, err)
		}
		if got.UserID == nil || *got.UserID != owner.ID {
			t.Fatalf("UserID = %v, want %s", got.UserID, owner.ID)
		}
		if len(got.ExtractedExclusions) != 1 || got.ExtractedExclusions[0] != "Cosmetic surgery" {
			t.Fatalf("ExtractedExclusions = %v", got.ExtractedExclusions)
		}
		if got.ExtractedConditions == nil {
			t.Fatalf("ExtractedConditions = nil, want empty list")
		}
		if got.WaitingPeriodDays == nil || *got.WaitingPeriodDays != 30 {
			t.Fatalf("WaitingPeriodDays = %v, want 30", got.WaitingPeriodDays)
		}
		missing, err := s.GetAnalysis(ctx, "does-not-exist")
		if err != nil || missing != nil {
			t.Fatalf("GetAnalysis(missing) = %v, %v; want nil, nil", missing, err)
		}
	})

	t.Run("delete by non-owner is a no-op", func(t *testing.T) {
		ok, err := s.DeleteAnalysis(ctx, created[0].ID, other.ID)
		if err != nil || ok {
			t.Fatalf("DeleteAnalysis(other) = %v, %v; want false, nil", ok, err)
		}
		if got, _ := s.GetAnalysis(ctx, created[0].ID); got == nil {
			t.Fatalf("row removed by non-owner")
		}
		ok, err = s.DeleteAnalysis(ctx, "does-not-exist", owner.ID)
		if err != nil || ok {
			t.Fatalf("DeleteAnalysis(missing) = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("delete by owner", func(t *testing.T) {
		ok, err := s.DeleteAnalysis(ctx, created[0].ID, owner.ID)
		if err != nil || !ok {
			t.Fatalf("DeleteAnalysis(owner) = %v, %v; want true, nil", ok, err)
		}
		if got, _ := s.GetAnalysis(ctx, created[0].ID); got != nil {
			t.Fatalf("row still present after delete")
		}
	})
}

func testClauses(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))
	text := "Pre-existing conditions are excluded for the first 48 months."

	first, cached, err := s.ExplainClause(ctx, clauses.Clause{ClauseText: text, SimplifiedExplanation: "Old illnesses wait 4 years.", Category: clauses.CategoryWaitingPeriod})
	if err != nil || cached || first.FrequencyCount != 1 {
		t.Fatalf("first ExplainClause = %+v, cached=%v, err=%v; want frequency 1, not cached", first, cached, err)
	}
	second, cached, err := s.ExplainClause(ctx, clauses.Clause{ClauseText: text, SimplifiedExplanation: "ignored", Category: clauses.CategoryExclusion})
	if err != nil || !cached || second.FrequencyCount != 2 {
		t.Fatalf("second ExplainClause = %+v, cached=%v, err=%v; want frequency 2, cached", second, cached, err)
	}
	if second.ID != first.ID || second.SimplifiedExplanation != first.SimplifiedExplanation {
		t.Fatalf("cache hit changed the entry: %+v", second)
	}
	if !second.LastUsedAt.After(first.LastUsedAt) {
		t.Fatalf("LastUsedAt not bumped: %v then %v", first.LastUsedAt, second.LastUsedAt)
	}

	// no normalization: trailing whitespace is a different clause
	_, cached, err = s.ExplainClause(ctx, clauses.Clause{ClauseText: text + " ", SimplifiedExplanation: "x", Category: clauses.CategoryWaitingPeriod})
	if err != nil || cached {
		t.Fatalf("whitespace variant cached=%v err=%v, want new entry", cached, err)
	}
	_, _, _ = s.ExplainClause(ctx, clauses.Clause{ClauseText: "Claims must be filed in 30 days.", SimplifiedExplanation: "x", Category: clauses.CategoryClaimRequirement})

	top, err := s.TopClauses(ctx, 10)
	if err != nil {
		t.Fatalf("TopClauses error = %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("len(top) = %d, want 3", len(top))
	}
	if top[0].ClauseText != text {
		t.Fatalf("top[0] = %q, want most frequent", top[0].ClauseText)
	}
	if top[1].ClauseText != text+" " || top[2].ClauseText != "Claims must be filed in 30 days." {
		t.Fatalf("ties not in insertion order: %q, %q", top[1].ClauseText, top[2].ClauseText)
	}

	top, _ = s.TopClauses(ctx, 1)
	if len(top) != 1 {
		t.Fatalf("TopClauses(1) len = %d", len(top))
	}
}

func testClausesConcurrent(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))
	const n = 16
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		misses int
		ids    = map[string]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, cached, err := s.ExplainClause(ctx, clauses.Clause{ClauseText: "Same clause", SimplifiedExplanation: "x", Category: clauses.CategoryCondition})
			if err != nil {
				t.Errorf("ExplainClause error = %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[c.ID] = true
			if !cached {
				misses++
			}
		}()
	}
	wg.Wait()
	if misses != 1 || len(ids) != 1 {
		t.Fatalf("misses = %d, distinct ids = %d; want 1 and 1", misses, len(ids))
	}
	top, _ := s.TopClauses(ctx, 5)
	if len(top) != 1 || top[0].FrequencyCount != n {
		t.Fatalf("top = %+v, want one clause with frequency %d", top, n)
	}
}

func testInsights(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))
	owner := mustUser(t, s, "owner")
	a, err := s.CreateAnalysis(ctx, sampleAnalysis("Linked"), &owner.ID)
	if err != nil {
		t.Fatalf("CreateAnalysis error = %v", err)
	}

	for i, q := range []string{"first", "second", "third"} {
		var pid *string
		if i == 0 {
			pid = &a.ID
		}
		in, err := s.CreateInsight(ctx, insights.Insight{PolicyID: pid, NormalizedQuestion: q, Category: insights.CategoryCoverage})
		if err != nil || in.ID == "" || in.AskedAt.IsZero() {
			t.Fatalf("CreateInsight = %+v, %v", in, err)
		}
	}
	if _, err := s.CreateInsight(ctx, insights.Insight{NormalizedQuestion: "other", Category: insights.CategoryClaim, IsConfused: 1}); err != nil {
		t.Fatalf("CreateInsight error = %v", err)
	}

	got, err := s.ListInsightsByCategory(ctx, insights.CategoryCoverage, 2)
	if err != nil {
		t.Fatalf("ListInsightsByCategory error = %v", err)
	}
	if len(got) != 2 || got[0].NormalizedQuestion != "third" || got[1].NormalizedQuestion != "second" {
		t.Fatalf("ListInsightsByCategory = %+v, want [third second]", got)
	}
	claims, _ := s.ListInsightsByCategory(ctx, insights.CategoryClaim, 0)
	if len(claims) != 1 || claims[0].IsConfused != 1 {
		t.Fatalf("claims = %+v, want one confused insight", claims)
	}

	if ok, _ := s.DeleteAnalysis(ctx, a.ID, owner.ID); !ok {
		t.Fatalf("DeleteAnalysis failed")
	}
	all, _ := s.ListInsightsByCategory(ctx, insights.CategoryCoverage, 10)
	if len(all) != 3 {
		t.Fatalf("insights removed with analysis: %d left", len(all))
	}
	for _, in := range all {
		if in.PolicyID != nil {
			t.Fatalf("insight %s still references deleted analysis", in.NormalizedQuestion)
		}
	}
}

func testSessions(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))
	now := time.Now().UTC().Truncate(time.Second)

	newSession := func(token string, expires time.Time) sessions.Session {
		return sessions.Session{SessionToken: token, IsGuest: 1, StartedAt: now, LastActivityAt: now, ExpiresAt: expires}
	}

	first, err := s.GetOrCreateSession(ctx, newSession("tok-1", now.Add(sessions.TTL)))
	if err != nil {
		t.Fatalf("GetOrCreateSession error = %v", err)
	}
	if first.ID == "" || first.PoliciesAnalyzed != 0 || first.QuestionsAsked != 0 || first.IsGuest != 1 {
		t.Fatalf("new session = %+v", first)
	}
	again, err := s.GetOrCreateSession(ctx, newSession("tok-1", now.Add(time.Hour)))
	if err != nil || again.ID != first.ID {
		t.Fatalf("second GetOrCreateSession = %+v, %v; want id %s", again, err, first.ID)
	}
	if !again.ExpiresAt.Equal(first.ExpiresAt) {
		t.Fatalf("existing session changed expiry: %v -> %v", first.ExpiresAt, again.ExpiresAt)
	}

	later := now.Add(time.Minute)
	if err := s.UpdateSessionActivity(ctx, first.ID, 3, 7, later); err != nil {
		t.Fatalf("UpdateSessionActivity error = %v", err)
	}
	if err := s.UpdateSessionActivity(ctx, first.ID, 1, 2, later); err != nil {
		t.Fatalf("UpdateSessionActivity error = %v", err)
	}
	got, _ := s.GetOrCreateSession(ctx, newSession("tok-1", now))
	if got.PoliciesAnalyzed != 1 || got.QuestionsAsked != 2 {
		t.Fatalf("counters = %d/%d, want overwritten 1/2", got.PoliciesAnalyzed, got.QuestionsAsked)
	}
	if !got.LastActivityAt.Equal(later) {
		t.Fatalf("LastActivityAt = %v, want %v", got.LastActivityAt, later)
	}
	if err := s.UpdateSessionActivity(ctx, "unknown", 1, 1, later); err != nil {
		t.Fatalf("UpdateSessionActivity(unknown) error = %v, want silent no-op", err)
	}

	if _, err := s.GetOrCreateSession(ctx, newSession("expired", now.Add(-time.Hour))); err != nil {
		t.Fatalf("GetOrCreateSession(expired) error = %v", err)
	}
	if _, err := s.GetOrCreateSession(ctx, newSession("boundary", now)); err != nil {
		t.Fatalf("GetOrCreateSession(boundary) error = %v", err)
	}
	n, err := s.CleanExpiredSessions(ctx, now)
	if err != nil || n != 2 {
		t.Fatalf("CleanExpiredSessions = %d, %v; want 2", n, err)
	}
	kept, _ := s.GetOrCreateSession(ctx, newSession("tok-1", now))
	if kept.ID != first.ID {
		t.Fatalf("future session was removed")
	}
	recreated, _ := s.GetOrCreateSession(ctx, newSession("expired", now.Add(sessions.TTL)))
	if recreated.PoliciesAnalyzed != 0 || !recreated.ExpiresAt.Equal(now.Add(sessions.TTL)) {
		t.Fatalf("expired token did not start a fresh session: %+v", recreated)
	}
}

func testSessionsConcurrent(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, NewStepClock(time.Now()))
	now := time.Now().UTC()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.GetOrCreateSession(ctx, sessions.Session{SessionToken: "shared", IsGuest: 1, StartedAt: now, LastActivityAt: now, ExpiresAt: now.Add(sessions.TTL)})
			if err != nil {
				t.Errorf("GetOrCreateSession error = %v", err)
				return
			}
			mu.Lock()
			ids[sess.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(ids) != 1 {
		t.Fatalf("distinct session ids = %d, want 1", len(ids))
	}
}

// testEqualTimestampOrder freezes the clock so every row shares one timestamp; the
// id then decides the order, identically on every backend.
func testEqualTimestampOrder(t *testing.T, newStore Factory) {
	ctx := context.Background()
	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newStore(t, application.ClockFunc(func() time.Time { return frozen }))
	owner := mustUser(t, s, "tie")

	var analysisIDs, insightIDs, clauseIDs []string
	for i := 0; i < 5; i++ {
		a, err := s.CreateAnalysis(ctx, sampleAnalysis(fmt.Sprintf("p%d", i)), &owner.ID)
		if err != nil {
			t.Fatalf("CreateAnalysis error = %v", err)
		}
		analysisIDs = append(analysisIDs, a.ID)

		in, err := s.CreateInsight(ctx, insights.Insight{NormalizedQuestion: fmt.Sprintf("q%d", i), Category: insights.CategoryTiming})
		if err != nil {
			t.Fatalf("CreateInsight error = %v", err)
		}
		insightIDs = append(insightIDs, in.ID)

		c, _, err := s.ExplainClause(ctx, clauses.Clause{
			ClauseText:            fmt.Sprintf("clause %d", i),
			SimplifiedExplanation: "plain",
			Category:              clauses.CategoryCondition,
		})
		if err != nil {
			t.Fatalf("ExplainClause error = %v", err)
		}
		clauseIDs = append(clauseIDs, c.ID)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(analysisIDs)))
	sort.Sort(sort.Reverse(sort.StringSlice(insightIDs)))
	sort.Strings(clauseIDs)

	list, err := s.ListAnalysesByOwner(ctx, owner.ID, 10)
	if err != nil {
		t.Fatalf("ListAnalysesByOwner error = %v", err)
	}
	for i, a := range list {
		if a.ID != analysisIDs[i] {
			t.Fatalf("analyses[%d] = %s, want %s (id descending)", i, a.ID, analysisIDs[i])
		}
	}

	ins, err := s.ListInsightsByCategory(ctx, insights.CategoryTiming, 3)
	if err != nil {
		t.Fatalf("ListInsightsByCategory error = %v", err)
	}
	if len(ins) != 3 {
		t.Fatalf("insights = %d, want 3", len(ins))
	}
	for i, in := range ins {
		if in.ID != insightIDs[i] {
			t.Fatalf("insights[%d] = %s, want %s (id descending)", i, in.ID, insightIDs[i])
		}
	}

	top, err := s.TopClauses(ctx, 10)
	if err != nil {
		t.Fatalf("TopClauses error = %v", err)
	}
	for i, c := range top {
		if c.ID != clauseIDs[i] {
			t.Fatalf("clauses[%d] = %s, want %s (id ascending)", i, c.ID, clauseIDs[i])
		}
	}
}
