package ai

import (
	"strings"

	domain "github.com/bryanwahyu/policylens/internal/domain/ai"
)

// FallbackAnalysis is the canned analysis served whenever the provider is unavailable.
// It does not look at the input.
func FallbackAnalysis() domain.AnalysisResult {
	return domain.AnalysisResult{
		Summary:           "This health insurance policy covers hospitalization expenses after a 36-month waiting period for pre-existing conditions. It includes room rent caps and requires 48-hour claim notification.",
		RiskLevel:         domain.RiskMedium,
		RiskJustification: "Long waiting periods and strict notification requirements could delay or block valid claims.",
		KeyExclusions: []string{
			"Pre-existing diseases (first 36 months)",
			"Cosmetic treatments and experimental procedures",
			"Self-inflicted injuries and substance abuse",
		},
		HiddenClauses: []string{
			"Room rent limited to 1% of sum insured per day",
			"Claims must be filed within 48 hours of hospitalization",
			"Medical records older than 5 years may be requested",
		},
		ClaimRequirements: []string{
			"Notify insurer within 48 hours",
			"Submit original hospital bills and discharge summary",
			"Provide past medical records if requested",
		},
		WaitingPeriods: []domain.WaitingPeriod{
			{Condition: "Pre-existing diseases", Duration: "36 months"},
			{Condition: "Specific procedures (e.g., cataract)", Duration: "24 months"},
		},
		Conditions: []domain.Condition{
			{
				Clause:        "Sub-limit on room rent",
				PlainLanguage: "Daily room charges cannot exceed 1% of your total coverage amount",
				Impact:        "If you choose an expensive room, excess charges will not be covered",
			},
		},
	}
}

// FallbackAnswer picks one of three canned answers by keyword.
func FallbackAnswer(question string) domain.ChatResult {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "dengue") || strings.Contains(q, "disease"):
		return domain.ChatResult{
			Answer: "Dengue is typically covered after the initial 30-day waiting period, but may have sub-limits. Check if room rent caps apply during treatment.",
			RelevantClauses: []string{
				"Waiting Period: Claims covered after 30 days from policy start",
				"Room rent limited to 1% of sum insured per day",
			},
			Confidence: domain.ConfidenceHigh,
			Disclaimer: "Coverage may be affected by room rent sub-limits",
		}
	case strings.Contains(q, "late") || strings.Contains(q, "claim"):
		return domain.ChatResult{
			Answer: "Claims must be filed within 48 hours of hospitalization. Late filing can lead to delays, partial rejection, or denial. Always keep proof of notification.",
			RelevantClauses: []string{
				"48-hour intimation requirement from hospitalization",
				"Insurer reserves right to reject delayed claims",
			},
			Confidence: domain.ConfidenceHigh,
			Disclaimer: "Exceptions may apply in emergencies - contact insurer immediately",
		}
	default:
		return domain.ChatResult{
			Answer:          "This depends on specific policy terms. The clause might cover the event, but conditions like waiting periods, documentation, and timelines decide claim approval.",
			RelevantClauses: []string{"Refer to policy exclusions and conditions section"},
			Confidence:      domain.ConfidenceMedium,
			Disclaimer:      "Please provide more specific details for a precise answer",
		}
	}
}
