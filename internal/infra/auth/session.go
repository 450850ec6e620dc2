package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	cookieName    = "policylens_session"
	keyUserID     = "user_id"
	keyOAuthNonce = "oauth_nonce"
	sessionMaxAge = 7 * 24 * 60 * 60
)

// Manager keeps the signed-in user id in an encrypted cookie.
type Manager struct {
	store sessions.Store
}

// NewManager derives signing and encryption keys from secret.
func NewManager(secret string, secure bool) *Manager {
	hashKey := sha256.Sum256([]byte("policylens-auth:" + secret))
	blockKey := sha256.Sum256([]byte("policylens-enc:" + secret))
	cs := sessions.NewCookieStore(hashKey[:], blockKey[:])
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: cs}
}

// session returns the current cookie session. A cookie that fails to decode yields a
// fresh empty session, which is the same as being signed out.
func (m *Manager) session(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, cookieName)
	if err != nil {
		s, _ = m.store.New(r, cookieName)
	}
	return s
}

// Login binds userID to the cookie and drops any pending OAuth nonce.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	s := m.session(r)
	s.Values[keyUserID] = userID
	delete(s.Values, keyOAuthNonce)
	return s.Save(r, w)
}

// Logout expires the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	s.Values = map[interface{}]interface{}{}
	opts := *s.Options
	opts.MaxAge = -1
	s.Options = &opts
	return s.Save(r, w)
}

// CurrentUserID returns "" for anonymous requests.
func (m *Manager) CurrentUserID(r *http.Request) string {
	id, _ := m.session(r).Values[keyUserID].(string)
	return id
}

// SetOAuthNonce remembers the nonce embedded in the OAuth state token.
func (m *Manager) SetOAuthNonce(w http.ResponseWriter, r *http.Request, nonce string) error {
	s := m.session(r)
	s.Values[keyOAuthNonce] = nonce
	return s.Save(r, w)
}

// PopOAuthNonce returns and clears the pending nonce.
func (m *Manager) PopOAuthNonce(w http.ResponseWriter, r *http.Request) string {
	s := m.session(r)
	nonce, _ := s.Values[keyOAuthNonce].(string)
	if nonce != "" {
		delete(s.Values, keyOAuthNonce)
		_ = s.Save(r, w)
	}
	return nonce
}
