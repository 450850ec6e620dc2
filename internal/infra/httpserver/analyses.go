package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

const maxListLimit = 100

// analysisBody is the client-supplied part of an analysis. Ownership and timestamps
// are never taken from the body.
type analysisBody struct {
	PolicyTitle          string   `json:"policyTitle"`
	PolicyType           string   `json:"policyType"`
	InsuranceProvider    *string  `json:"insuranceProvider"`
	PlainLanguageSummary string   `json:"plainLanguageSummary"`
	ExtractedExclusions  []string `json:"extractedExclusions"`
	ExtractedConditions  []string `json:"extractedConditions"`
	RiskLevel            string   `json:"riskLevel"`
	WaitingPeriodDays    *int     `json:"waitingPeriodDays"`
	CoverageLimitAmount  *int     `json:"coverageLimitAmount"`
	MajorExclusions      []string `json:"majorExclusions"`
	ClaimRequirements    []string `json:"claimRequirements"`
}

func (b analysisBody) toDomain() domain.Analysis {
	return domain.Analysis{
		PolicyTitle:          middleware.SanitizeString(b.PolicyTitle),
		PolicyType:           domain.PolicyType(b.PolicyType),
		InsuranceProvider:    b.InsuranceProvider,
		PlainLanguageSummary: b.PlainLanguageSummary,
		ExtractedExclusions:  b.ExtractedExclusions,
		ExtractedConditions:  b.ExtractedConditions,
		RiskLevel:            domain.RiskLevel(b.RiskLevel),
		WaitingPeriodDays:    b.WaitingPeriodDays,
		CoverageLimitAmount:  b.CoverageLimitAmount,
		MajorExclusions:      b.MajorExclusions,
		ClaimRequirements:    b.ClaimRequirements,
	}
}

func ownerOf(req *http.Request) *string {
	if id := middleware.UserFromContext(req.Context()); id != "" {
		return &id
	}
	return nil
}

// POST /api/analyses
func (r *Router) handleCreateAnalysis(w http.ResponseWriter, req *http.Request) error {
	var body analysisBody
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	a, err := r.Policies.Create(req.Context(), body.toDomain(), ownerOf(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /api/analyses?limit=10
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(req.URL.Query().Get("limit"), domain.DefaultListLimit, maxListLimit)
	list, err := r.Policies.List(req.Context(), middleware.UserFromContext(req.Context()), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	a, err := r.Policies.Get(req.Context(), id, middleware.UserFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// DELETE /api/analyses/{id}
func (r *Router) handleDeleteAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	if err := r.Policies.Delete(req.Context(), id, middleware.UserFromContext(req.Context())); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/analyses/{id}/export
func (r *Router) handleExportAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	url, err := r.Policies.Export(req.Context(), id, middleware.UserFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// analysisID rejects malformed ids up front; they can never match a row.
func analysisID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "id")
	if middleware.ValidateID(id) != nil {
		return "", application.ErrNotFound
	}
	return id, nil
}
