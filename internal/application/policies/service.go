package policies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/policies"
)

// ErrExportDisabled is returned by Export when no object storage is configured.
var ErrExportDisabled = errors.New("analysis export is not configured")

// ArtifactStore port untuk arsip hasil analisa
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, body []byte) (string, error)
}

// Service implements use-cases untuk PolicyAnalysis
type Service struct {
	Repo      domain.Repository
	Artifacts ArtifactStore // nil disables Export
	Clock     application.Clock
}

// Create validates a and persists it for ownerID. Anonymous callers get the analysis
// back with an id and timestamp but nothing is stored.
func (s *Service) Create(ctx context.Context, a domain.Analysis, ownerID *string) (*domain.Analysis, error) {
	if err := normalize(&a); err != nil {
		return nil, err
	}
	if ownerID == nil {
		a.ID = uuid.NewString()
		a.UserID = nil
		a.AnalyzedAt = s.Clock.Now()
		return &a, nil
	}
	saved, err := s.Repo.CreateAnalysis(ctx, a, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}
	return saved, nil
}

// Get returns the analysis only to its owner.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*domain.Analysis, error) {
	if requesterID == "" {
		return nil, application.ErrUnauthorized
	}
	a, err := s.Repo.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, application.ErrNotFound
	}
	if a.UserID == nil || *a.UserID != requesterID {
		return nil, application.ErrForbidden
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, ownerID string, limit int) ([]*domain.Analysis, error) {
	if ownerID == "" {
		return nil, application.ErrUnauthorized
	}
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	return s.Repo.ListAnalysesByOwner(ctx, ownerID, limit)
}

// Delete removes the analysis when requesterID owns it. Missing and foreign rows are
// both reported as ErrNotFound.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	if requesterID == "" {
		return application.ErrUnauthorized
	}
	ok, err := s.Repo.DeleteAnalysis(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return application.ErrNotFound
	}
	return nil
}

// Export archives the analysis as JSON and returns a time-limited download URL.
func (s *Service) Export(ctx context.Context, id, requesterID string) (string, error) {
	if s.Artifacts == nil {
		return "", ErrExportDisabled
	}
	a, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("analyses/%s/%s.json", requesterID, a.ID)
	url, err := s.Artifacts.PutJSON(ctx, key, body)
	if err != nil {
		return "", fmt.Errorf("export analysis: %w", err)
	}
	return url, nil
}

func normalize(a *domain.Analysis) error {
	a.PolicyTitle = strings.TrimSpace(a.PolicyTitle)
	if a.PolicyTitle == "" {
		return application.Invalid("policyTitle is required")
	}
	if !a.PolicyType.Valid() {
		return application.Invalid("invalid policyType: %s", a.PolicyType)
	}
	if strings.TrimSpace(a.PlainLanguageSummary) == "" {
		return application.Invalid("plainLanguageSummary is required")
	}
	if !a.RiskLevel.Valid() {
		return application.Invalid("invalid riskLevel: %s", a.RiskLevel)
	}
	if a.WaitingPeriodDays != nil && *a.WaitingPeriodDays < 0 {
		return application.Invalid("waitingPeriodDays must not be negative")
	}
	if a.CoverageLimitAmount != nil && *a.CoverageLimitAmount < 0 {
		return application.Invalid("coverageLimitAmount must not be negative")
	}
	if a.ExtractedExclusions == nil {
		a.ExtractedExclusions = []string{}
	}
	if a.ExtractedConditions == nil {
		a.ExtractedConditions = []string{}
	}
	return nil
}
