package clauses

import "time"

// Category enum
type Category string

const (
	CategoryExclusion        Category = "Exclusion"
	CategoryCondition        Category = "Condition"
	CategoryWaitingPeriod    Category = "Waiting Period"
	CategoryCoverageLimit    Category = "Coverage Limit"
	CategoryClaimRequirement Category = "Claim Requirement"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryExclusion, CategoryCondition, CategoryWaitingPeriod, CategoryCoverageLimit, CategoryClaimRequirement:
		return true
	}
	return false
}

// Clause is a cached plain-language explanation, keyed by the exact clause text.
type Clause struct {
	ID                    string    `json:"id"`
	ClauseText            string    `json:"clauseText"`
	SimplifiedExplanation string    `json:"simplifiedExplanation"`
	RealWorldExample      *string   `json:"realWorldExample"`
	Category              Category  `json:"category"`
	FrequencyCount        int       `json:"frequencyCount"`
	CreatedAt             time.Time `json:"createdAt"`
	LastUsedAt            time.Time `json:"lastUsedAt"`
}
