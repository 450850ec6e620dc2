package users

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/users"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid username or password")

const minPasswordLen = 8

// GoogleProfile is what the OAuth callback learned about the user.
type GoogleProfile struct {
	ID    string
	Name  string
	Email string
}

type Service struct {
	Repo  domain.Repository
	Clock application.Clock
	// Suffix picks the collision suffix for generated usernames.
	Suffix func() int
}

// Get returns the user or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, application.ErrNotFound
	}
	return u, nil
}

// Exists reports whether id names a stored user.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// LoginWithGoogle finds the user by Google id, or creates one. The username is the
// display name, else the email, else user_<googleId>; a taken name gets a _<n> suffix.
func (s *Service) LoginWithGoogle(ctx context.Context, p GoogleProfile) (*domain.User, error) {
	if p.ID == "" {
		return nil, application.Invalid("google profile has no id")
	}
	u, err := s.Repo.GetUserByGoogleID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		username := firstNonEmpty(p.Name, p.Email, "user_"+p.ID)
		if existing, err := s.Repo.GetUserByUsername(ctx, username); err != nil {
			return nil, err
		} else if existing != nil {
			username = fmt.Sprintf("%s_%d", username, s.suffix())
		}
		nu := domain.NewUser{
			Username:          username,
			GoogleID:          &p.ID,
			Name:              optional(p.Name),
			Email:             optional(p.Email),
			PreferredLanguage: domain.DefaultLanguage,
		}
		u, err = s.Repo.CreateUser(ctx, nu)
		if errors.Is(err, domain.ErrDuplicate) && nu.Email != nil {
			// email already belongs to another account; keep the google user without it
			nu.Email = nil
			u, err = s.Repo.CreateUser(ctx, nu)
		}
		if err != nil {
			return nil, fmt.Errorf("create google user: %w", err)
		}
	}
	return s.touch(ctx, u)
}

// RegisterCommand is a local username/password sign-up.
type RegisterCommand struct {
	Username string
	Password string
	Email    string
	Name     string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*domain.User, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return nil, application.Invalid("username is required")
	}
	if len(cmd.Password) < minPasswordLen {
		return nil, application.Invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	h := string(hash)
	u, err := s.Repo.CreateUser(ctx, domain.NewUser{
		Username:          username,
		Password:          &h,
		Email:             optional(strings.TrimSpace(cmd.Email)),
		Name:              optional(strings.TrimSpace(cmd.Name)),
		PreferredLanguage: domain.DefaultLanguage,
	})
	if err != nil {
		return nil, err
	}
	return s.touch(ctx, u)
}

// Login checks a local password. OAuth-only accounts never match.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || u.Password == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.touch(ctx, u)
}

func (s *Service) touch(ctx context.Context, u *domain.User) (*domain.User, error) {
	now := s.Clock.Now()
	if err := s.Repo.UpdateUserLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLoginAt = &now
	return u, nil
}

func (s *Service) suffix() int {
	if s.Suffix != nil {
		return s.Suffix()
	}
	return rand.IntN(1000)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
