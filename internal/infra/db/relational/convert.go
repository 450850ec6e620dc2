package relational

import (
	"gorm.io/datatypes"

	"github.com/bryanwahyu/policylens/internal/domain/clauses"
	"github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/domain/sessions"
	"github.com/bryanwahyu/policylens/internal/domain/users"
)

func (m *userModel) toDomain() *users.User {
	return &users.User{
		ID:                m.ID,
		Username:          m.Username,
		Password:          m.Password,
		GoogleID:          m.GoogleID,
		Name:              m.Name,
		Email:             m.Email,
		PreferredLanguage: m.PreferredLanguage,
		CreatedAt:         m.CreatedAt,
		LastLoginAt:       m.LastLoginAt,
	}
}

func analysisFromDomain(a policies.Analysis) analysisModel {
	return analysisModel{
		ID:                   a.ID,
		UserID:               a.UserID,
		PolicyTitle:          a.PolicyTitle,
		PolicyType:           string(a.PolicyType),
		InsuranceProvider:    a.InsuranceProvider,
		PlainLanguageSummary: a.PlainLanguageSummary,
		ExtractedExclusions:  required(a.ExtractedExclusions),
		ExtractedConditions:  required(a.ExtractedConditions),
		RiskLevel:            string(a.RiskLevel),
		WaitingPeriodDays:    a.WaitingPeriodDays,
		CoverageLimitAmount:  a.CoverageLimitAmount,
		MajorExclusions:      datatypes.JSONSlice[string](a.MajorExclusions),
		ClaimRequirements:    datatypes.JSONSlice[string](a.ClaimRequirements),
		AnalyzedAt:           a.AnalyzedAt,
	}
}

// required turns nil into an empty JSON array so NOT NULL list columns hold [].
func required(v []string) datatypes.JSONSlice[string] {
	if v == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](v)
}

func (m *analysisModel) toDomain() *policies.Analysis {
	a := &policies.Analysis{
		ID:                   m.ID,
		UserID:               m.UserID,
		PolicyTitle:          m.PolicyTitle,
		PolicyType:           policies.PolicyType(m.PolicyType),
		InsuranceProvider:    m.InsuranceProvider,
		PlainLanguageSummary: m.PlainLanguageSummary,
		ExtractedExclusions:  []string(m.ExtractedExclusions),
		ExtractedConditions:  []string(m.ExtractedConditions),
		RiskLevel:            policies.RiskLevel(m.RiskLevel),
		WaitingPeriodDays:    m.WaitingPeriodDays,
		CoverageLimitAmount:  m.CoverageLimitAmount,
		MajorExclusions:      []string(m.MajorExclusions),
		ClaimRequirements:    []string(m.ClaimRequirements),
		AnalyzedAt:           m.AnalyzedAt,
	}
	if a.ExtractedExclusions == nil {
		a.ExtractedExclusions = []string{}
	}
	if a.ExtractedConditions == nil {
		a.ExtractedConditions = []string{}
	}
	return a
}

func (m *clauseModel) toDomain() *clauses.Clause {
	return &clauses.Clause{
		ID:                    m.ID,
		ClauseText:            m.ClauseText,
		SimplifiedExplanation: m.SimplifiedExplanation,
		RealWorldExample:      m.RealWorldExample,
		Category:              clauses.Category(m.Category),
		FrequencyCount:        m.FrequencyCount,
		CreatedAt:             m.CreatedAt,
		LastUsedAt:            m.LastUsedAt,
	}
}

func (m *insightModel) toDomain() *insights.Insight {
	return &insights.Insight{
		ID:                 m.ID,
		PolicyID:           m.PolicyID,
		NormalizedQuestion: m.NormalizedQuestion,
		Category:           insights.Category(m.Category),
		IsConfused:         m.IsConfused,
		AskedAt:            m.AskedAt,
	}
}

func (m *sessionModel) toDomain() *sessions.Session {
	return &sessions.Session{
		ID:               m.ID,
		UserID:           m.UserID,
		SessionToken:     m.SessionToken,
		IsGuest:          m.IsGuest,
		PoliciesAnalyzed: m.PoliciesAnalyzed,
		QuestionsAsked:   m.QuestionsAsked,
		StartedAt:        m.StartedAt,
		LastActivityAt:   m.LastActivityAt,
		ExpiresAt:        m.ExpiresAt,
	}
}
