package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	domain "github.com/bryanwahyu/policylens/internal/domain/ai"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// Gateway is the only place that talks to the text-generation provider. It never
// returns an error: when the provider is missing or anything goes wrong the caller gets
// the canned result instead.
type Gateway struct {
	client  domain.Client
	timeout time.Duration

	// OnFallback, when set, is told about every failed provider call.
	OnFallback func(op string, err error)
}

// NewGateway builds a gateway. A nil client means mock mode for the lifetime of the process.
func NewGateway(client domain.Client, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{client: client, timeout: timeout}
}

// Live reports whether a real provider is configured.
func (g *Gateway) Live() bool { return g.client != nil }

// Analyze turns policy text into a structured analysis. The ≥50 character rule is the
// caller's job.
func (g *Gateway) Analyze(ctx context.Context, req domain.AnalysisRequest) domain.AnalysisResult {
	if g.client == nil {
		return FallbackAnalysis()
	}
	var out domain.AnalysisResult
	err := g.call(ctx, &out, func(ctx context.Context) (string, error) {
		return g.client.Analyze(ctx, req)
	})
	if err != nil {
		g.fallback("analyze", err)
		return FallbackAnalysis()
	}
	return out
}

// AnswerQuestion answers a follow-up question about the given policy text.
func (g *Gateway) AnswerQuestion(ctx context.Context, policyText, question string) domain.ChatResult {
	if g.client == nil {
		return FallbackAnswer(question)
	}
	var out domain.ChatResult
	err := g.call(ctx, &out, func(ctx context.Context) (string, error) {
		return g.client.Answer(ctx, policyText, question)
	})
	if err != nil {
		g.fallback("chat", err)
		return FallbackAnswer(question)
	}
	return out
}

// call runs one provider request under the gateway timeout and decodes its JSON reply.
// No retries.
func (g *Gateway) call(ctx context.Context, dst any, fn func(context.Context) (string, error)) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := fn(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode provider reply: %w", err)
	}
	return nil
}

func (g *Gateway) fallback(op string, err error) {
	log.Printf("ai fallback op=%s err=%v", op, err)
	if g.OnFallback != nil {
		g.OnFallback(op, err)
	}
}
