package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
)

// Service records anonymized chat questions and serves per-category statistics.
type Service struct {
	Repo domain.Repository
	// Policies, when set, is used to drop policy ids that were never persisted.
	Policies policies.Repository
}

// RecordCommand mirrors the /api/insights body. Question is the raw text; anything the
// caller omits is derived from it. Caller-supplied text is scrubbed again regardless.
type RecordCommand struct {
	PolicyID           *string
	Question           string
	NormalizedQuestion string
	Category           string
	IsConfused         *bool
}

func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*domain.Insight, error) {
	raw := cmd.NormalizedQuestion
	if strings.TrimSpace(raw) == "" {
		raw = cmd.Question
	}
	normalized := NormalizeQuestion(raw)
	if normalized == "" {
		return nil, application.Invalid("question is required")
	}

	category := CategorizeQuestion(firstNonEmpty(cmd.Question, raw))
	if cmd.Category != "" {
		category = domain.Category(cmd.Category)
		if !category.Valid() {
			return nil, application.Invalid("invalid category: %s", cmd.Category)
		}
	}

	confused := DetectConfusion(firstNonEmpty(cmd.Question, raw))
	if cmd.IsConfused != nil {
		confused = *cmd.IsConfused
	}

	policyID, err := s.knownPolicy(ctx, cmd.PolicyID)
	if err != nil {
		return nil, err
	}
	in := domain.Insight{
		PolicyID:           policyID,
		NormalizedQuestion: normalized,
		Category:           category,
	}
	if confused {
		in.IsConfused = 1
	}
	saved, err := s.Repo.CreateInsight(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record insight: %w", err)
	}
	return saved, nil
}

// RecordQuestion derives every insight field from a raw chat question.
func (s *Service) RecordQuestion(ctx context.Context, policyID *string, question string) (*domain.Insight, error) {
	return s.Record(ctx, RecordCommand{PolicyID: policyID, Question: question})
}

func (s *Service) ListByCategory(ctx context.Context, category string, limit int) ([]*domain.Insight, error) {
	c := domain.Category(category)
	if !c.Valid() {
		return nil, application.Invalid("invalid category: %s", category)
	}
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	return s.Repo.ListInsightsByCategory(ctx, c, limit)
}

// knownPolicy returns id only if it names a stored analysis. Anonymous analyses have
// transient ids that must not reach the foreign key.
func (s *Service) knownPolicy(ctx context.Context, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	if s.Policies == nil {
		return id, nil
	}
	a, err := s.Policies.GetAnalysis(ctx, *id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
