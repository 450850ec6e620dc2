package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/bryanwahyu/policylens/internal/application"
	appusers "github.com/bryanwahyu/policylens/internal/application/users"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

// GET /api/auth/google
func (r *Router) handleGoogleStart(w http.ResponseWriter, req *http.Request) error {
	if r.Google == nil {
		return &statusError{code: http.StatusServiceUnavailable, msg: "Google login is not configured"}
	}
	state, nonce, err := r.State.Issue()
	if err != nil {
		return err
	}
	if err := r.Auth.SetOAuthNonce(w, req, nonce); err != nil {
		return err
	}
	http.Redirect(w, req, r.Google.AuthCodeURL(state, r.callbackURL(req)), http.StatusFound)
	return nil
}

// GET /api/auth/google/callback
// Any failure lands the browser back on "/" without a session.
func (r *Router) handleGoogleCallback(w http.ResponseWriter, req *http.Request) {
	fail := func(stage string, err error) {
		log.Printf("google login failed stage=%s err=%v", stage, err)
		http.Redirect(w, req, "/", http.StatusFound)
	}
	if r.Google == nil {
		fail("config", nil)
		return
	}

	q := req.URL.Query()
	nonce := r.Auth.PopOAuthNonce(w, req)
	if err := r.State.Verify(q.Get("state"), nonce); err != nil {
		fail("state", err)
		return
	}
	if e := q.Get("error"); e != "" {
		fail("consent", nil)
		return
	}

	profile, err := r.Google.Exchange(req.Context(), q.Get("code"), r.callbackURL(req))
	if err != nil {
		fail("exchange", err)
		return
	}
	user, err := r.Users.LoginWithGoogle(req.Context(), appusers.GoogleProfile{
		ID:    profile.ID,
		Name:  profile.Name,
		Email: profile.Email,
	})
	if err != nil {
		fail("user", err)
		return
	}
	if err := r.Auth.Login(w, req, user.ID); err != nil {
		fail("session", err)
		return
	}
	log.Printf("google login user_id=%s", user.ID)
	http.Redirect(w, req, "/dashboard", http.StatusFound)
}

// POST /api/auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	user, err := r.Users.Register(req.Context(), appusers.RegisterCommand{
		Username: middleware.SanitizeString(body.Username),
		Password: body.Password,
		Email:    middleware.SanitizeString(body.Email),
		Name:     middleware.SanitizeString(body.Name),
	})
	if err != nil {
		return err
	}
	if err := r.Auth.Login(w, req, user.ID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, user)
}

// POST /api/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	user, err := r.Users.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		return err
	}
	if err := r.Auth.Login(w, req, user.ID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

// POST /api/auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	if err := r.Auth.Logout(w, req); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /api/user
func (r *Router) handleCurrentUser(w http.ResponseWriter, req *http.Request) error {
	id := middleware.UserFromContext(req.Context())
	if id == "" {
		return application.ErrUnauthorized
	}
	user, err := r.Users.Get(req.Context(), id)
	if err != nil {
		// a cookie for a deleted account is treated as signed out
		if errors.Is(err, application.ErrNotFound) {
			return application.ErrUnauthorized
		}
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

// callbackURL makes the configured callback absolute using the request's host.
func (r *Router) callbackURL(req *http.Request) string {
	cb := r.Options.CallbackURL
	if cb == "" {
		cb = "/api/auth/google/callback"
	}
	if strings.HasPrefix(cb, "http://") || strings.HasPrefix(cb, "https://") {
		return cb
	}
	scheme := "http"
	if req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + req.Host + cb
}
