package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/bryanwahyu/policylens/internal/application"
	domain "github.com/bryanwahyu/policylens/internal/domain/insights"
	"github.com/bryanwahyu/policylens/internal/domain/policies"
	"github.com/bryanwahyu/policylens/internal/infra/db/memory"
)

func TestRecordQuestionDerivesFields(t *testing.T) {
	store := memory.New(nil)
	s := &Service{Repo: store, Policies: store}

	in, err := s.RecordQuestion(context.Background(), nil, "Why is dengue not covered??")
	if err != nil {
		t.Fatalf("RecordQuestion error = %v", err)
	}
	if in.NormalizedQuestion != "Why is <condition> not covered??" {
		t.Fatalf("NormalizedQuestion = %q", in.NormalizedQuestion)
	}
	if in.Category != domain.CategoryCoverage || in.IsConfused != 1 {
		t.Fatalf("insight = %+v, want Coverage and confused", in)
	}
}

func TestRecordRescrubsClientText(t *testing.T) {
	s := &Service{Repo: memory.New(nil)}
	confused := false
	in, err := s.Record(context.Background(), RecordCommand{
		NormalizedQuestion: "my friend Rahul Verma gets 500 dollars?",
		Category:           "Claim",
		IsConfused:         &confused,
	})
	if err != nil {
		t.Fatalf("Record error = %v", err)
	}
	if in.NormalizedQuestion != "my friend <name> gets <amount>?" {
		t.Fatalf("NormalizedQuestion = %q, want PII removed", in.NormalizedQuestion)
	}
	if in.Category != domain.CategoryClaim || in.IsConfused != 0 {
		t.Fatalf("insight = %+v, want caller's category and flag", in)
	}
}

func TestRecordDropsUnknownPolicy(t *testing.T) {
	store := memory.New(nil)
	s := &Service{Repo: store, Policies: store}
	ctx := context.Background()

	ghost := "not-stored"
	in, err := s.RecordQuestion(ctx, &ghost, "When can I claim?")
	if err != nil || in.PolicyID != nil {
		t.Fatalf("RecordQuestion = %+v, %v; want policy id dropped", in, err)
	}

	owner := "u-1"
	a, _ := store.CreateAnalysis(ctx, policies.Analysis{PolicyTitle: "x", PolicyType: policies.TypeHome, PlainLanguageSummary: "x", RiskLevel: policies.RiskLow}, &owner)
	in, err = s.RecordQuestion(ctx, &a.ID, "When can I claim?")
	if err != nil || in.PolicyID == nil || *in.PolicyID != a.ID {
		t.Fatalf("RecordQuestion = %+v, %v; want policy id kept", in, err)
	}
}

func TestValidation(t *testing.T) {
	s := &Service{Repo: memory.New(nil)}
	ctx := context.Background()
	var ve *application.ValidationError

	if _, err := s.Record(ctx, RecordCommand{Question: "   "}); !errors.As(err, &ve) {
		t.Fatalf("empty question error = %v, want ValidationError", err)
	}
	if _, err := s.Record(ctx, RecordCommand{Question: "x", Category: "Billing"}); !errors.As(err, &ve) {
		t.Fatalf("bad category error = %v, want ValidationError", err)
	}
	if _, err := s.ListByCategory(ctx, "Billing", 10); !errors.As(err, &ve) {
		t.Fatalf("ListByCategory(bad) error = %v, want ValidationError", err)
	}
	got, err := s.ListByCategory(ctx, "Timing", 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("ListByCategory(Timing) = %v, %v", got, err)
	}
}
