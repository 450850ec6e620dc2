package insights

import "time"

// Category enum
type Category string

const (
	CategoryCoverage      Category = "Coverage"
	CategoryExclusion     Category = "Exclusion"
	CategoryClaim         Category = "Claim"
	CategoryTiming        Category = "Timing"
	CategoryDocumentation Category = "Documentation"
	CategoryOther         Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCoverage, CategoryExclusion, CategoryClaim, CategoryTiming, CategoryDocumentation, CategoryOther:
		return true
	}
	return false
}

// Insight is an anonymized question record. It has no user reference on purpose.
type Insight struct {
	ID                 string    `json:"id"`
	PolicyID           *string   `json:"policyId"`
	NormalizedQuestion string    `json:"normalizedQuestion"`
	Category           Category  `json:"category"`
	IsConfused         int       `json:"isConfused"`
	AskedAt            time.Time `json:"askedAt"`
}
