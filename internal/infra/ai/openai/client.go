package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/bryanwahyu/policylens/internal/domain/ai"
	"github.com/bryanwahyu/policylens/internal/infra/ai/prompt"
)

const maxTokens = 2048

// GeminiBaseURL is Google's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// DefaultModel returns the model used when none is configured for a provider.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-flash-latest"
	default:
		return "gpt-4o-mini"
	}
}

type Client struct {
	*openai.Client
	Model string
}

// NewClient builds a chat-completions client. baseURL overrides the provider default
// when set, which is also how tests point it at a local server.
func NewClient(provider, apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	switch {
	case baseURL != "":
		cfg.BaseURL = baseURL
	case provider == "gemini":
		cfg.BaseURL = GeminiBaseURL
	}
	if model == "" {
		model = DefaultModel(provider)
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Analyze(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	return c.complete(ctx, prompt.GetAnalysisPrompt(req.PolicyText, req.PolicyType, req.SpecificQuestion))
}

func (c *Client) Answer(ctx context.Context, policyText, question string) (string, error) {
	return c.complete(ctx, prompt.GetChatPrompt(policyText, question))
}

func (c *Client) complete(ctx context.Context, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", domain.ErrQuotaExceeded, apiErr.Message)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
