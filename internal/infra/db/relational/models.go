package relational

import (
	"time"

	"gorm.io/datatypes"
)

// userModel maps users. Password is a bcrypt hash, NULL for OAuth-only accounts.
type userModel struct {
	ID                string     `gorm:"type:char(36);primaryKey"`
	Username          string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Password          *string    `gorm:"type:varchar(255)"`
	GoogleID          *string    `gorm:"type:varchar(255);uniqueIndex"`
	Name              *string    `gorm:"type:varchar(255)"`
	Email             *string    `gorm:"type:varchar(255);uniqueIndex"`
	PreferredLanguage string     `gorm:"type:varchar(16);not null"`
	CreatedAt         time.Time  `gorm:"not null"`
	LastLoginAt       *time.Time
}

func (userModel) TableName() string { return "users" }

// analysisModel maps policy_analyses. List columns hold JSON arrays and are never NULL.
type analysisModel struct {
	ID                   string                      `gorm:"type:char(36);primaryKey"`
	UserID               *string                     `gorm:"type:char(36);index:idx_analyses_owner,priority:1"`
	PolicyTitle          string                      `gorm:"type:varchar(255);not null"`
	PolicyType           string                      `gorm:"type:varchar(16);not null"`
	InsuranceProvider    *string                     `gorm:"type:varchar(255)"`
	PlainLanguageSummary string                      `gorm:"type:text;not null"`
	ExtractedExclusions  datatypes.JSONSlice[string] `gorm:"not null"`
	ExtractedConditions  datatypes.JSONSlice[string] `gorm:"not null"`
	RiskLevel            string                      `gorm:"type:varchar(8);not null"`
	WaitingPeriodDays    *int
	CoverageLimitAmount  *int
	MajorExclusions      datatypes.JSONSlice[string]
	ClaimRequirements    datatypes.JSONSlice[string]
	AnalyzedAt           time.Time `gorm:"not null;index:idx_analyses_owner,priority:2"`

	User *userModel `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (analysisModel) TableName() string { return "policy_analyses" }

// clauseModel maps clause_knowledge. ClauseHash is sha256(ClauseText) and carries the
// unique index, so TEXT columns never need to be indexed.
type clauseModel struct {
	ID                    string    `gorm:"type:char(36);primaryKey"`
	ClauseHash            string    `gorm:"type:char(64);not null;uniqueIndex"`
	ClauseText            string    `gorm:"type:text;not null"`
	SimplifiedExplanation string    `gorm:"type:text;not null"`
	RealWorldExample      *string   `gorm:"type:text"`
	Category              string    `gorm:"type:varchar(32);not null"`
	FrequencyCount        int       `gorm:"not null;index"`
	CreatedAt             time.Time `gorm:"not null"`
	LastUsedAt            time.Time `gorm:"not null"`
}

func (clauseModel) TableName() string { return "clause_knowledge" }

// insightModel maps user_insights. It has no user column.
type insightModel struct {
	ID                 string    `gorm:"type:char(36);primaryKey"`
	PolicyID           *string   `gorm:"type:char(36);index"`
	NormalizedQuestion string    `gorm:"type:text;not null"`
	Category           string    `gorm:"type:varchar(32);not null;index:idx_insights_category,priority:1"`
	IsConfused         int       `gorm:"not null"`
	AskedAt            time.Time `gorm:"not null;index:idx_insights_category,priority:2"`

	Policy *analysisModel `gorm:"foreignKey:PolicyID;references:ID;constraint:OnDelete:SET NULL"`
}

func (insightModel) TableName() string { return "user_insights" }

// sessionModel maps analysis_sessions.
type sessionModel struct {
	ID               string    `gorm:"type:char(36);primaryKey"`
	UserID           *string   `gorm:"type:char(36);index"`
	SessionToken     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	IsGuest          int       `gorm:"not null"`
	PoliciesAnalyzed int       `gorm:"not null"`
	QuestionsAsked   int       `gorm:"not null"`
	StartedAt        time.Time `gorm:"not null"`
	LastActivityAt   time.Time `gorm:"not null"`
	ExpiresAt        time.Time `gorm:"not null;index"`

	User *userModel `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (sessionModel) TableName() string { return "analysis_sessions" }

// Models lists every table in creation order.
func Models() []any {
	return []any{&userModel{}, &analysisModel{}, &clauseModel{}, &insightModel{}, &sessionModel{}}
}
