package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/policylens/internal/middleware"
)

// POST /api/session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateSessionToken(body.SessionToken); err != nil {
		return badRequest("sessionToken is required")
	}
	s, err := r.Sessions.GetOrCreate(req.Context(), body.SessionToken, ownerOf(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, s)
}

// PATCH /api/session/{id}
func (r *Router) handleSessionActivity(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PoliciesAnalyzed int `json:"policiesAnalyzed"`
		QuestionsAsked   int `json:"questionsAsked"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := r.Sessions.UpdateActivity(req.Context(), id, body.PoliciesAnalyzed, body.QuestionsAsked); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/session/cleanup
func (r *Router) handleSessionCleanup(w http.ResponseWriter, req *http.Request) error {
	n, err := r.Sessions.CleanExpired(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": n})
}
