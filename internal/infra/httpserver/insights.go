package httpserver

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appinsights "github.com/bryanwahyu/policylens/internal/application/insights"
	domain "github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

// flag accepts both JSON booleans and the 0/1 integers older clients send.
type flag struct {
	set bool
	val bool
}

func (f *flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "null":
		*f = flag{}
	case "true", "1":
		*f = flag{set: true, val: true}
	case "false", "0":
		*f = flag{set: true, val: false}
	default:
		return errors.New("isConfused must be a boolean")
	}
	return nil
}

func (f flag) ptr() *bool {
	if !f.set {
		return nil
	}
	v := f.val
	return &v
}

// POST /api/insights
func (r *Router) handleCreateInsight(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PolicyID           *string `json:"policyId"`
		Question           string  `json:"question"`
		NormalizedQuestion string  `json:"normalizedQuestion"`
		Category           string  `json:"category"`
		IsConfused         flag    `json:"isConfused"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	in, err := r.Insights.Record(req.Context(), appinsights.RecordCommand{
		PolicyID:           body.PolicyID,
		Question:           body.Question,
		NormalizedQuestion: body.NormalizedQuestion,
		Category:           body.Category,
		IsConfused:         body.IsConfused.ptr(),
	})
	if err != nil {
		return err
	}
	middleware.IncrementInsights()
	return writeJSON(w, http.StatusOK, in)
}

// GET /api/insights/{category}?limit=50
func (r *Router) handleListInsights(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(req.URL.Query().Get("limit"), domain.DefaultListLimit, maxListLimit)
	list, err := r.Insights.ListByCategory(req.Context(), chi.URLParam(req, "category"), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
