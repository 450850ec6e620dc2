package policies

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	ai "github.com/bryanwahyu/policylens/internal/domain/ai"
	domain "github.com/bryanwahyu/policylens/internal/domain/policies"
)

const untitled = "Untitled Policy"

var durationRx = regexp.MustCompile(`(?i)(\d+)\s*(day|week|month|year)s?`)

// ParseDurationDays reads strings like "30 days", "2 years" or "36 months" as a day
// count. Months count as 30 days and years as 365.
func ParseDurationDays(s string) (int, bool) {
	m := durationRx.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	unit := 1
	switch strings.ToLower(m[2]) {
	case "week":
		unit = 7
	case "month":
		unit = 30
	case "year":
		unit = 365
	}
	// the result must fit an INTEGER column
	if n > math.MaxInt32/unit {
		return 0, false
	}
	n *= unit
	return n, true
}

// FromResult maps a gateway result onto a storable analysis. The longest parseable
// waiting period becomes WaitingPeriodDays.
func FromResult(res ai.AnalysisResult, title, policyType string, provider *string) domain.Analysis {
	a := domain.Analysis{
		PolicyTitle:          strings.TrimSpace(title),
		PolicyType:           domain.PolicyType(policyType),
		InsuranceProvider:    provider,
		PlainLanguageSummary: res.Summary,
		ExtractedExclusions:  append([]string{}, res.KeyExclusions...),
		ExtractedConditions:  []string{},
		RiskLevel:            domain.RiskLevel(res.RiskLevel),
		MajorExclusions:      res.HiddenClauses,
		ClaimRequirements:    res.ClaimRequirements,
	}
	if a.PolicyTitle == "" {
		a.PolicyTitle = untitled
	}
	if strings.TrimSpace(a.PlainLanguageSummary) == "" {
		a.PlainLanguageSummary = "No summary available."
	}
	if !a.PolicyType.Valid() {
		a.PolicyType = domain.TypeOther
	}
	if !a.RiskLevel.Valid() {
		a.RiskLevel = domain.RiskMedium
	}
	for _, c := range res.Conditions {
		text := c.PlainLanguage
		if text == "" {
			text = c.Clause
		}
		if text != "" {
			a.ExtractedConditions = append(a.ExtractedConditions, text)
		}
	}
	longest := -1
	for _, wp := range res.WaitingPeriods {
		if d, ok := ParseDurationDays(wp.Duration); ok && d > longest {
			longest = d
		}
	}
	if longest >= 0 {
		a.WaitingPeriodDays = &longest
	}
	return a
}
