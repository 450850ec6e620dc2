package sessions

import "time"

// TTL is how long a session lives after creation.
const TTL = 24 * time.Hour

// Session tracks usage for a client-held token. UserID is nil for guests.
type Session struct {
	ID               string    `json:"id"`
	UserID           *string   `json:"userId"`
	SessionToken     string    `json:"sessionToken"`
	IsGuest          int       `json:"isGuest"`
	PoliciesAnalyzed int       `json:"policiesAnalyzed"`
	QuestionsAsked   int       `json:"questionsAsked"`
	StartedAt        time.Time `json:"startedAt"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}
