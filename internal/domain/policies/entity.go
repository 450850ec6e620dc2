package policies

import "time"

// PolicyType enum
type PolicyType string

const (
	TypeHealth  PolicyType = "Health"
	TypeVehicle PolicyType = "Vehicle"
	TypeLife    PolicyType = "Life"
	TypeHome    PolicyType = "Home"
	TypeTravel  PolicyType = "Travel"
	TypeOther   PolicyType = "Other"
)

func (t PolicyType) Valid() bool {
	switch t {
	case TypeHealth, TypeVehicle, TypeLife, TypeHome, TypeTravel, TypeOther:
		return true
	}
	return false
}

// RiskLevel enum
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Analysis is one persisted AI analysis. It only carries derived data; the raw policy
// text never reaches this struct.
type Analysis struct {
	ID                   string     `json:"id"`
	UserID               *string    `json:"userId"`
	PolicyTitle          string     `json:"policyTitle"`
	PolicyType           PolicyType `json:"policyType"`
	InsuranceProvider    *string    `json:"insuranceProvider"`
	PlainLanguageSummary string     `json:"plainLanguageSummary"`
	ExtractedExclusions  []string   `json:"extractedExclusions"`
	ExtractedConditions  []string   `json:"extractedConditions"`
	RiskLevel            RiskLevel  `json:"riskLevel"`
	WaitingPeriodDays    *int       `json:"waitingPeriodDays"`
	CoverageLimitAmount  *int       `json:"coverageLimitAmount"`
	MajorExclusions      []string   `json:"majorExclusions"`
	ClaimRequirements    []string   `json:"claimRequirements"`
	AnalyzedAt           time.Time  `json:"analyzedAt"`
}
