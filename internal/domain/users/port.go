package users

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned when username, googleId or email is already taken.
var ErrDuplicate = errors.New("user already exists")

// Repository port. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error
}
