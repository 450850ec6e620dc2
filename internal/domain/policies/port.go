package policies

import "context"

// DefaultListLimit is used when callers pass a non-positive limit.
const DefaultListLimit = 10

// Repository port. ID and AnalyzedAt are assigned by the store on create.
type Repository interface {
	CreateAnalysis(ctx context.Context, a Analysis, ownerID *string) (*Analysis, error)
	// GetAnalysis returns (nil, nil) when the id is unknown.
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	ListAnalysesByOwner(ctx context.Context, ownerID string, limit int) ([]*Analysis, error)
	// DeleteAnalysis removes the row only when it exists and belongs to requesterID.
	DeleteAnalysis(ctx context.Context, id, requesterID string) (bool, error)
}
