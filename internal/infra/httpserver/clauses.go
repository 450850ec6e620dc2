package httpserver

import (
	"net/http"

	appclauses "github.com/bryanwahyu/policylens/internal/application/clauses"
	domain "github.com/bryanwahyu/policylens/internal/domain/clauses"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

// POST /api/clauses/explain
func (r *Router) handleExplainClause(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ClauseText            string  `json:"clauseText"`
		SimplifiedExplanation string  `json:"simplifiedExplanation"`
		Category              string  `json:"category"`
		RealWorldExample      *string `json:"realWorldExample"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	clause, cached, err := r.Clauses.Explain(req.Context(), appclauses.ExplainCommand{
		ClauseText:            body.ClauseText,
		SimplifiedExplanation: body.SimplifiedExplanation,
		Category:              body.Category,
		RealWorldExample:      body.RealWorldExample,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"clause": clause, "cached": cached})
}

// GET /api/clauses/top?limit=20
func (r *Router) handleTopClauses(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(req.URL.Query().Get("limit"), domain.DefaultTopLimit, maxListLimit)
	list, err := r.Clauses.Top(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
