// internal/risk/assessor.go
package risk

import (
	"fmt"
	"strings"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

// Tier lower bounds, inclusive. A score of exactly 20 is medium, not low.
const (
	mediumThreshold   = 20
	highThreshold     = 40
	criticalThreshold = 60
)

// Classify maps a clamped score to its risk tier.
func Classify(score int) model.RiskLevel {
	switch {
	case score >= criticalThreshold:
		return model.RiskCritical
	case score >= highThreshold:
		return model.RiskHigh
	case score >= mediumThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Context carries per-action facts the lead record alone doesn't hold.
type Context struct {
	FirstContact bool
	Channel      model.ActionType
}

// Assessor scores an intended action. Scoring is additive: each applicable
// factor contributes a signed delta with an explanation a reviewer can read.
type Assessor struct{}

func NewAssessor() *Assessor {
	return &Assessor{}
}

var seniorTitleMarkers = []string{
	"chief", "ceo", "cto", "cfo", "coo", "founder", "president",
	"vp", "vice president", "head of", "director", "owner", "partner",
}

func seniorTitle(title string) bool {
	t := strings.ToLower(title)
	for _, m := range seniorTitleMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

func personalized(content string, lead model.Lead) bool {
	c := strings.ToLower(content)
	if len(lead.FirstName) > 1 && strings.Contains(c, strings.ToLower(lead.FirstName)) {
		return true
	}
	if len(lead.Company) > 1 && strings.Contains(c, strings.ToLower(lead.Company)) {
		return true
	}
	return false
}

// Assess computes a fresh RiskAssessment for sending content to lead.
// RequiresApproval here reflects only the tier; the approval gate finalizes
// it with sampling and auto-approve policy.
func (a *Assessor) Assess(lead model.Lead, content string, actx Context) model.RiskAssessment {
	var factors []model.RiskFactor
	score := 0
	add := func(name string, points int, explanation string) {
		factors = append(factors, model.RiskFactor{Name: name, Points: points, Explanation: explanation})
		score += points
	}

	if lead.StrategicAccount {
		add("strategic_account", 40, "target is on a strategic account list")
	}
	if lead.CompanySize > 1000 {
		add("large_company", 20, fmt.Sprintf("target company has %d employees", lead.CompanySize))
	}
	if seniorTitle(lead.Title) {
		add("senior_title", 15, "target holds a senior title: "+lead.Title)
	}
	if actx.FirstContact && lead.PriorThreads == 0 {
		add("first_contact", 10, "first contact with no prior history")
	}
	if content != "" && !personalized(content, lead) {
		add("unpersonalized_content", 15, "draft does not mention the lead's name or company")
	}
	if lead.PositiveHistory {
		add("positive_history", -20, "known positive history with this lead")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level := Classify(score)
	return model.RiskAssessment{
		Level:            level,
		Score:            score,
		Factors:          factors,
		RequiresApproval: level == model.RiskHigh || level == model.RiskCritical,
	}
}
