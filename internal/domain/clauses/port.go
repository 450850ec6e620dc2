package clauses

import "context"

// DefaultTopLimit is used when callers pass a non-positive limit.
const DefaultTopLimit = 20

// Repository port.
type Repository interface {
	// ExplainClause looks c.ClauseText up literally. A hit bumps FrequencyCount and
	// LastUsedAt and reports cached=true; a miss stores c with FrequencyCount 1.
	// Concurrent first inserts of the same text collapse into one row.
	ExplainClause(ctx context.Context, c Clause) (*Clause, bool, error)
	TopClauses(ctx context.Context, limit int) ([]*Clause, error)
}
