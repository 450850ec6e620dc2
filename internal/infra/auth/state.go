package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	stateIssuer = "policylens"
	stateTTL    = 10 * time.Minute
)

var ErrBadState = errors.New("invalid oauth state")

// StateSigner issues short-lived HS256 tokens used as the OAuth state parameter. The
// token's jti must match the nonce stored in the caller's cookie.
type StateSigner struct {
	key []byte
	now func() time.Time
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{key: []byte(secret), now: time.Now}
}

// Issue returns the state token and the nonce to remember.
func (s *StateSigner) Issue() (string, string, error) {
	nonce := uuid.NewString()
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", "", err
	}
	return token, nonce, nil
}

// Verify checks signature, expiry and that the token belongs to nonce.
func (s *StateSigner) Verify(token, nonce string) error {
	if token == "" || nonce == "" {
		return ErrBadState
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if subtle.ConstantTimeCompare([]byte(claims.ID), []byte(nonce)) != 1 {
		return ErrBadState
	}
	return nil
}
