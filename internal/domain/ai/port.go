package ai

import "context"

// Client is the provider-side port. Implementations return the raw JSON text produced
// by the model; decoding it into result types is the gateway's job.
type Client interface {
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
	Answer(ctx context.Context, policyText, question string) (string, error)
}
