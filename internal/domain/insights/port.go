package insights

import "context"

// DefaultListLimit is used when callers pass a non-positive limit.
const DefaultListLimit = 50

type Repository interface {
	CreateInsight(ctx context.Context, in Insight) (*Insight, error)
	ListInsightsByCategory(ctx context.Context, category Category, limit int) ([]*Insight, error)
}
