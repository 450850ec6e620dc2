package insights

import (
	"regexp"
	"strings"

	domain "github.com/bryanwahyu/policylens/internal/domain/insights"
)

// Substitutions run in order; later patterns see the output of earlier ones.
var scrubRules = []struct {
	rx   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b(diabetes|dengue|cancer|covid|malaria|typhoid|heart attack|stroke)\b`), "<condition>"},
	{regexp.MustCompile(`(?i)\b\d+\s*(rupees|rs|inr|dollars|usd|lakhs?|crores?)\b`), "<amount>"},
	{regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`), "<name>"},
	{regexp.MustCompile(`(?i)\b(policy|pol|claim)\s*#?\s*\d+\b`), "<policy_id>"},
	{regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`), "<date>"},
	{regexp.MustCompile(`(?i)\b(\d+)\s*(years?|yrs?|months?)\s*(old|age)\b`), "<age>"},
}

var confusionIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\?\?+`),
	regexp.MustCompile(`(?i)\bconfus(ed|ing)\b`),
	regexp.MustCompile(`(?i)\bdon't understand\b`),
	regexp.MustCompile(`(?i)\bwhat does.*mean\b`),
	regexp.MustCompile(`(?i)\bwhy (is|does|would|can't)\b`),
	regexp.MustCompile(`(?i)\bhow come\b`),
	regexp.MustCompile(`(?i)\bdoesn't make sense\b`),
}

// NormalizeQuestion replaces conditions, amounts, names, policy numbers, dates and ages
// with placeholders. The name rule is naive: any two capitalized words match.
func NormalizeQuestion(q string) string {
	for _, r := range scrubRules {
		q = r.rx.ReplaceAllString(q, r.repl)
	}
	return strings.TrimSpace(q)
}

// DetectConfusion reports whether the wording suggests the asker is lost.
func DetectConfusion(q string) bool {
	for _, rx := range confusionIndicators {
		if rx.MatchString(q) {
			return true
		}
	}
	return false
}

var categoryKeywords = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryCoverage, []string{"cover", "included", "eligible"}},
	{domain.CategoryExclusion, []string{"exclud", "not cover", "denied"}},
	{domain.CategoryClaim, []string{"claim", "reimburse", "settle"}},
	{domain.CategoryTiming, []string{"when", "how long", "wait", "period"}},
	{domain.CategoryDocumentation, []string{"document", "proof", "evidence"}},
}

// CategorizeQuestion picks the first category whose keyword appears in q.
func CategorizeQuestion(q string) domain.Category {
	lower := strings.ToLower(q)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.category
			}
		}
	}
	return domain.CategoryOther
}
