package clauses

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/clauses"
)

type Service struct {
	Repo domain.Repository
}

type ExplainCommand struct {
	ClauseText            string
	SimplifiedExplanation string
	Category              string
	RealWorldExample      *string
}

// Explain stores or reuses the explanation for a clause. The text is matched exactly as
// given; two clauses differing only in whitespace are different entries.
func (s *Service) Explain(ctx context.Context, cmd ExplainCommand) (*domain.Clause, bool, error) {
	if strings.TrimSpace(cmd.ClauseText) == "" {
		return nil, false, application.Invalid("clauseText is required")
	}
	if strings.TrimSpace(cmd.SimplifiedExplanation) == "" {
		return nil, false, application.Invalid("simplifiedExplanation is required")
	}
	category := domain.Category(cmd.Category)
	if !category.Valid() {
		return nil, false, application.Invalid("invalid category: %s", cmd.Category)
	}

	c, cached, err := s.Repo.ExplainClause(ctx, domain.Clause{
		ClauseText:            cmd.ClauseText,
		SimplifiedExplanation: cmd.SimplifiedExplanation,
		RealWorldExample:      cmd.RealWorldExample,
		Category:              category,
	})
	if err != nil {
		return nil, false, fmt.Errorf("explain clause: %w", err)
	}
	return c, cached, nil
}

func (s *Service) Top(ctx context.Context, limit int) ([]*domain.Clause, error) {
	if limit <= 0 {
		limit = domain.DefaultTopLimit
	}
	return s.Repo.TopClauses(ctx, limit)
}
