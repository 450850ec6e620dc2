package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/bryanwahyu/policylens/internal/application"
	apppolicies "github.com/bryanwahyu/policylens/internal/application/policies"
	appusers "github.com/bryanwahyu/policylens/internal/application/users"
	"github.com/bryanwahyu/policylens/internal/domain/documents"
	"github.com/bryanwahyu/policylens/internal/domain/users"
)

// maxJSONBody caps request bodies; extracted policy text can be long.
const maxJSONBody = 10 << 20

// statusError carries an explicit status and client-safe message.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func badRequest(msg string) error { return &statusError{code: http.StatusBadRequest, msg: msg} }

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors to JSON error bodies. Unknown errors are logged and
// reported with failMsg.
func (r *Router) wrap(failMsg string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var se *statusError
		var ve *application.ValidationError
		switch {
		case errors.As(err, &se):
			writeError(w, se.code, se.msg)
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Message)
		case errors.Is(err, application.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Authentication required")
		case errors.Is(err, application.ErrForbidden):
			writeError(w, http.StatusForbidden, "Access denied")
		case errors.Is(err, application.ErrNotFound):
			writeError(w, http.StatusNotFound, "Not found")
		case errors.Is(err, appusers.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
		case errors.Is(err, users.ErrDuplicate):
			writeError(w, http.StatusConflict, "User already exists")
		case errors.Is(err, apppolicies.ErrExportDisabled):
			writeError(w, http.StatusServiceUnavailable, "Analysis export is not configured")
		case errors.Is(err, documents.ErrUnreadable):
			log.Printf("pdf parse failed path=%s err=%v", req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, "Failed to parse PDF. Please ensure it's a valid PDF file.")
		default:
			log.Printf("request failed method=%s path=%s err=%v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, failMsg)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxJSONBody)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &statusError{code: http.StatusRequestEntityTooLarge, msg: "Request body too large"}
		}
		return badRequest("Invalid JSON body")
	}
	return nil
}
