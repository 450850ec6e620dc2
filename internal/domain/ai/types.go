package ai

// RiskLevel enum
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Confidence enum for chat answers
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// AnalysisRequest is what the caller hands to the gateway. PolicyText is never stored.
type AnalysisRequest struct {
	PolicyText       string
	PolicyType       string
	SpecificQuestion string
}

type WaitingPeriod struct {
	Condition string `json:"condition"`
	Duration  string `json:"duration"`
}

type Condition struct {
	Clause        string `json:"clause"`
	PlainLanguage string `json:"plainLanguage"`
	Impact        string `json:"impact"`
}

// AnalysisResult is the structured reply of a policy analysis.
type AnalysisResult struct {
	Summary           string          `json:"summary"`
	RiskLevel         RiskLevel       `json:"riskLevel"`
	RiskJustification string          `json:"riskJustification"`
	KeyExclusions     []string        `json:"keyExclusions"`
	HiddenClauses     []string        `json:"hiddenClauses"`
	ClaimRequirements []string        `json:"claimRequirements"`
	WaitingPeriods    []WaitingPeriod `json:"waitingPeriods,omitempty"`
	Conditions        []Condition     `json:"conditions,omitempty"`
}

// ChatResult is the structured reply to a follow-up question.
type ChatResult struct {
	Answer          string     `json:"answer"`
	RelevantClauses []string   `json:"relevantClauses"`
	Confidence      Confidence `json:"confidence"`
	Disclaimer      string     `json:"disclaimer,omitempty"`
}
