package insights

import (
	"testing"

	domain "github.com/bryanwahyu/policylens/internal/domain/insights"
)

func TestNormalizeQuestion(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Is dengue covered?", "Is <condition> covered?"},
		{"Can I claim 5000 rupees for a HEART ATTACK?", "Can I claim <amount> for a <condition>?"},
		{"My wife Priya Sharma was admitted", "My wife <name> was admitted"},
		{"What happened to claim #12345", "What happened to <policy_id>"},
		{"I was admitted on 12/03/2024", "I was admitted on <date>"},
		{"my son is 5 years old", "my son is <age>"},
		{"  plain question  ", "plain question"},
	}
	for _, tc := range cases {
		if got := NormalizeQuestion(tc.in); got != tc.want {
			t.Fatalf("NormalizeQuestion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDetectConfusion(t *testing.T) {
	cases := map[string]bool{
		"what??":                               true,
		"I'm confused about this":              true,
		"I don't understand the deductible":    true,
		"What does co-payment mean":            true,
		"Why is my claim rejected":             true,
		"How come this is excluded":            true,
		"This doesn't make sense":              true,
		"Is maternity covered?":                false,
	}
	for q, want := range cases {
		if got := DetectConfusion(q); got != want {
			t.Fatalf("DetectConfusion(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestCategorizeQuestion(t *testing.T) {
	cases := map[string]domain.Category{
		"Is surgery covered?":           domain.CategoryCoverage,
		"Why was it excluded":           domain.CategoryExclusion,
		"How do I get reimbursed?":      domain.CategoryClaim,
		"How long is the waiting time?": domain.CategoryTiming,
		"Which documents are needed":    domain.CategoryDocumentation,
		"Hello there":                   domain.CategoryOther,
		// cover matches before exclusion keywords
		"Is this not covered?": domain.CategoryCoverage,
	}
	for q, want := range cases {
		if got := CategorizeQuestion(q); got != want {
			t.Fatalf("CategorizeQuestion(%q) = %s, want %s", q, got, want)
		}
	}
}
