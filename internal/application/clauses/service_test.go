package clauses

import (
	"context"
	"errors"
	"testing"

	"github.com/bryanwahyu/policylens/internal/application"
	"github.com/bryanwahyu/policylens/internal/infra/db/memory"
)

func TestExplain(t *testing.T) {
	s := &Service{Repo: memory.New(nil)}
	ctx := context.Background()
	cmd := ExplainCommand{
		ClauseText:            "Claims must be notified within 48 hours of admission.",
		SimplifiedExplanation: "Tell the insurer within two days.",
		Category:              "Claim Requirement",
	}

	first, cached, err := s.Explain(ctx, cmd)
	if err != nil || cached || first.FrequencyCount != 1 {
		t.Fatalf("first Explain = %+v, %v, %v", first, cached, err)
	}
	second, cached, err := s.Explain(ctx, cmd)
	if err != nil || !cached || second.FrequencyCount != 2 {
		t.Fatalf("second Explain = %+v, %v, %v; want cached with frequency 2", second, cached, err)
	}

	top, err := s.Top(ctx, 0)
	if err != nil || len(top) != 1 {
		t.Fatalf("Top = %v, %v", top, err)
	}
}

func TestExplainValidation(t *testing.T) {
	s := &Service{Repo: memory.New(nil)}
	cases := map[string]ExplainCommand{
		"empty clause":      {ClauseText: "  ", SimplifiedExplanation: "x", Category: "Exclusion"},
		"empty explanation": {ClauseText: "x", Category: "Exclusion"},
		"bad category":      {ClauseText: "x", SimplifiedExplanation: "x", Category: "Premium"},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Explain(context.Background(), cmd)
			var ve *application.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Explain error = %v, want ValidationError", err)
			}
		})
	}
}
