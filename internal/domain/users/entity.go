package users

import "time"

// DefaultLanguage is assigned when a user is created without a preference.
const DefaultLanguage = "en"

// User is an identity record. Password holds a bcrypt hash and is nil for OAuth accounts.
type User struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Password          *string    `json:"-"`
	GoogleID          *string    `json:"googleId"`
	Name              *string    `json:"name"`
	Email             *string    `json:"email"`
	PreferredLanguage string     `json:"preferredLanguage"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastLoginAt       *time.Time `json:"lastLoginAt"`
}

// NewUser holds the fields a caller may set on creation.
type NewUser struct {
	Username          string
	Password          *string
	GoogleID          *string
	Name              *string
	Email             *string
	PreferredLanguage string
}
