package httpserver

import (
	"log"
	"net/http"
	"strings"

	apppolicies "github.com/bryanwahyu/policylens/internal/application/policies"
	domai "github.com/bryanwahyu/policylens/internal/domain/ai"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

type analyzeResponse struct {
	domai.AnalysisResult
	AnalysisID string `json:"analysisId,omitempty"`
}

// POST /api/ai/analyze
// Body: {"policyText": "...", "policyType": "Health", "specificQuestion": "...", "save": true}
// The policy text is only forwarded to the provider; it is never stored.
func (r *Router) handleAIAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PolicyText        string  `json:"policyText"`
		PolicyType        string  `json:"policyType"`
		SpecificQuestion  string  `json:"specificQuestion"`
		Save              bool    `json:"save"`
		PolicyTitle       string  `json:"policyTitle"`
		InsuranceProvider *string `json:"insuranceProvider"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	if err := middleware.ValidatePolicyText(body.PolicyText); err != nil {
		return badRequest(err.Error())
	}

	res := r.AI.Analyze(req.Context(), domai.AnalysisRequest{
		PolicyText:       body.PolicyText,
		PolicyType:       body.PolicyType,
		SpecificQuestion: body.SpecificQuestion,
	})
	middleware.IncrementAnalyses()

	out := analyzeResponse{AnalysisResult: res}
	if owner := ownerOf(req); body.Save && owner != nil {
		a := apppolicies.FromResult(res, body.PolicyTitle, body.PolicyType, body.InsuranceProvider)
		saved, err := r.Policies.Create(req.Context(), a, owner)
		if err != nil {
			// the analysis itself succeeded; the client still gets it
			log.Printf("save analysis failed user_id=%s err=%v", *owner, err)
		} else {
			out.AnalysisID = saved.ID
		}
	}
	return writeJSON(w, http.StatusOK, out)
}

// POST /api/ai/chat
// Body: {"policyText": "...", "question": "...", "policyId": "<optional>"}
func (r *Router) handleAIChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PolicyText string  `json:"policyText"`
		Question   string  `json:"question"`
		PolicyID   *string `json:"policyId"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.PolicyText) == "" || strings.TrimSpace(body.Question) == "" {
		return badRequest("Both policyText and question are required")
	}

	res := r.AI.AnswerQuestion(req.Context(), body.PolicyText, body.Question)
	middleware.IncrementChats()

	// insight recording is best effort; the answer is already computed
	if _, err := r.Insights.RecordQuestion(req.Context(), body.PolicyID, body.Question); err != nil {
		log.Printf("record insight failed err=%v", err)
	} else {
		middleware.IncrementInsights()
	}
	return writeJSON(w, http.StatusOK, res)
}
