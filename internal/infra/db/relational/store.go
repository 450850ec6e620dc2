package relational

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bryanwahyu/policylens/internal/application"
	"github.com/bryanwahyu/policylens/internal/domain/clauses"
	"github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/domain/sessions"
	"github.com/bryanwahyu/policylens/internal/domain/users"
)

// Store implements application.Storage on top of any GORM dialect.
type Store struct {
	db    *gorm.DB
	clock application.Clock
}

var _ application.Storage = (*Store)(nil)

func New(db *gorm.DB, clock application.Clock) *Store {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Store{db: db, clock: clock}
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(Models()...)
}

// Check pings the underlying connection pool.
func (s *Store) Check(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) now() time.Time { return s.clock.Now().UTC() }

// findOne returns (nil, nil) when the query matches nothing.
func findOne[T any](tx *gorm.DB) (*T, error) {
	var m T
	res := tx.Limit(1).Find(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &m, nil
}

//
// ==== users ====
//

func (s *Store) GetUser(ctx context.Context, id string) (*users.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	return s.userWhere(ctx, "username = ?", username)
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*users.User, error) {
	return s.userWhere(ctx, "google_id = ?", googleID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (*users.User, error) {
	m, err := findOne[userModel](s.db.WithContext(ctx).Where(cond, arg))
	if err != nil || m == nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (s *Store) CreateUser(ctx context.Context, nu users.NewUser) (*users.User, error) {
	lang := nu.PreferredLanguage
	if lang == "" {
		lang = users.DefaultLanguage
	}
	m := userModel{
		ID:                uuid.NewString(),
		Username:          nu.Username,
		Password:          nu.Password,
		GoogleID:          nu.GoogleID,
		Name:              nu.Name,
		Email:             nu.Email,
		PreferredLanguage: lang,
		CreatedAt:         s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, users.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).
		Update("last_login_at", at.UTC()).Error
}

//
// ==== analyses ====
//

func (s *Store) CreateAnalysis(ctx context.Context, a policies.Analysis, ownerID *string) (*policies.Analysis, error) {
	a.ID = uuid.NewString()
	a.UserID = ownerID
	a.AnalyzedAt = s.now()
	m := analysisFromDomain(a)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) GetAnalysis(ctx context.Context, id string) (*policies.Analysis, error) {
	m, err := findOne[analysisModel](s.db.WithContext(ctx).Where("id = ?", id))
	if err != nil || m == nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (s *Store) ListAnalysesByOwner(ctx context.Context, ownerID string, limit int) ([]*policies.Analysis, error) {
	if limit <= 0 {
		limit = policies.DefaultListLimit
	}
	var rows []analysisModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("analyzed_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*policies.Analysis, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// DeleteAnalysis checks ownership and removes the row in one statement.
func (s *Store) DeleteAnalysis(ctx context.Context, id, requesterID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, requesterID).
		Delete(&analysisModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

//
// ==== clauses ====
//

func clauseHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ExplainClause inserts first and takes the hit path when the unique index rejects the
// row. A lost race therefore counts as a cache hit.
func (s *Store) ExplainClause(ctx context.Context, c clauses.Clause) (*clauses.Clause, bool, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	hash := clauseHash(c.ClauseText)

	m := clauseModel{
		ID:                    uuid.NewString(),
		ClauseHash:            hash,
		ClauseText:            c.ClauseText,
		SimplifiedExplanation: c.SimplifiedExplanation,
		RealWorldExample:      c.RealWorldExample,
		Category:              string(c.Category),
		FrequencyCount:        1,
		CreatedAt:             now,
		LastUsedAt:            now,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clause_hash"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return nil, false, fmt.Errorf("insert clause: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return m.toDomain(), false, nil
	}

	err := db.Model(&clauseModel{}).Where("clause_hash = ?", hash).Updates(map[string]any{
		"frequency_count": gorm.Expr("frequency_count + 1"),
		"last_used_at":    now,
	}).Error
	if err != nil {
		return nil, false, fmt.Errorf("bump clause: %w", err)
	}
	got, err := findOne[clauseModel](db.Where("clause_hash = ?", hash))
	if err != nil {
		return nil, false, err
	}
	if got == nil {
		return nil, false, fmt.Errorf("clause %s vanished after update", hash[:12])
	}
	return got.toDomain(), true, nil
}

func (s *Store) TopClauses(ctx context.Context, limit int) ([]*clauses.Clause, error) {
	if limit <= 0 {
		limit = clauses.DefaultTopLimit
	}
	var rows []clauseModel
	err := s.db.WithContext(ctx).
		Order("frequency_count DESC").Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*clauses.Clause, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

//
// ==== insights ====
//

func (s *Store) CreateInsight(ctx context.Context, in insights.Insight) (*insights.Insight, error) {
	m := insightModel{
		ID:                 uuid.NewString(),
		PolicyID:           in.PolicyID,
		NormalizedQuestion: in.NormalizedQuestion,
		Category:           string(in.Category),
		IsConfused:         in.IsConfused,
		AskedAt:            s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("insert insight: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) ListInsightsByCategory(ctx context.Context, category insights.Category, limit int) ([]*insights.Insight, error) {
	if limit <= 0 {
		limit = insights.DefaultListLimit
	}
	var rows []insightModel
	err := s.db.WithContext(ctx).
		Where("category = ?", string(category)).
		Order("asked_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*insights.Insight, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

//
// ==== sessions ====
//

func (s *Store) GetOrCreateSession(ctx context.Context, sess sessions.Session) (*sessions.Session, error) {
	db := s.db.WithContext(ctx)
	existing, err := findOne[sessionModel](db.Where("session_token = ?", sess.SessionToken))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing.toDomain(), nil
	}

	now := s.now()
	m := sessionModel{
		ID:             uuid.NewString(),
		UserID:         sess.UserID,
		SessionToken:   sess.SessionToken,
		IsGuest:        sess.IsGuest,
		StartedAt:      orNow(sess.StartedAt, now),
		LastActivityAt: orNow(sess.LastActivityAt, now),
	}
	m.ExpiresAt = sess.ExpiresAt.UTC()
	if sess.ExpiresAt.IsZero() {
		m.ExpiresAt = m.StartedAt.Add(sessions.TTL)
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_token"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return nil, fmt.Errorf("insert session: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return m.toDomain(), nil
	}
	// another request created the token first
	winner, err := findOne[sessionModel](db.Where("session_token = ?", sess.SessionToken))
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, fmt.Errorf("session insert conflicted but no row found")
	}
	return winner.toDomain(), nil
}

func (s *Store) UpdateSessionActivity(ctx context.Context, id string, policiesAnalyzed, questionsAsked int, at time.Time) error {
	return s.db.WithContext(ctx).Model(&sessionModel{}).Where("id = ?", id).Updates(map[string]any{
		"policies_analyzed": policiesAnalyzed,
		"questions_asked":   questionsAsked,
		"last_activity_at":  at.UTC(),
	}).Error
}

func (s *Store) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&sessionModel{})
	return res.RowsAffected, res.Error
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC()
}
