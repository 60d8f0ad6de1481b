// internal/model/risk.go
package model

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFactor is one signed contribution to a risk score, with a
// human-readable explanation for the reviewer.
type RiskFactor struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Explanation string `json:"explanation"`
}

// RiskAssessment is computed fresh per action and lives only for the
// approval lifecycle of that action.
type RiskAssessment struct {
	Level            RiskLevel    `json:"level"`
	Score            int          `json:"score"`
	Factors          []RiskFactor `json:"factors"`
	RequiresApproval bool         `json:"requires_approval"`
}
