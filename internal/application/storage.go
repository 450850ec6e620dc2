package application

import (
	"github.com/bryanwahyu/policylens/internal/domain/clauses"
	"github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/domain/sessions"
	"github.com/bryanwahyu/policylens/internal/domain/users"
)

// Storage is the full persistence capability. The in-memory and relational backends both
// implement it; which one runs is decided at startup from config.
type Storage interface {
	users.Repository
	policies.Repository
	clauses.Repository
	insights.Repository
	sessions.Repository
}
