package risk

import (
	"testing"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{19, model.RiskLow},
		{20, model.RiskMedium}, // lower bounds are inclusive
		{39, model.RiskMedium},
		{40, model.RiskHigh},
		{59, model.RiskHigh},
		{60, model.RiskCritical},
		{100, model.RiskCritical},
	}
	for _, c := range cases {
		if got := Classify(c.score); got != c.want {
			t.Errorf("Classify(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestAssessAdditiveFactors(t *testing.T) {
	a := NewAssessor()
	lead := model.Lead{
		FirstName:        "Carla",
		Company:          "Omnistack",
		Title:            "VP of Sales",
		CompanySize:      1800,
		StrategicAccount: true,
	}

	// strategic 40 + large company 20 + senior title 15 + first contact 10 = 85
	res := a.Assess(lead, "Hi Carla, quick note about Omnistack.", Context{FirstContact: true})
	if res.Score != 85 {
		t.Errorf("expected score 85, got %d", res.Score)
	}
	if res.Level != model.RiskCritical {
		t.Errorf("expected critical, got %s", res.Level)
	}
	if !res.RequiresApproval {
		t.Error("critical assessment should require approval")
	}
	if len(res.Factors) != 4 {
		t.Errorf("expected 4 factors, got %d", len(res.Factors))
	}
}

func TestAssessUnpersonalizedContent(t *testing.T) {
	a := NewAssessor()
	lead := model.Lead{FirstName: "Bob", Company: "Kitewire", Title: "Engineer", PriorThreads: 1}

	with := a.Assess(lead, "Hi Bob, I had a thought about Kitewire.", Context{})
	without := a.Assess(lead, "Hello there, hope this finds you well.", Context{})

	if without.Score-with.Score != 15 {
		t.Errorf("unpersonalized draft should add 15 points, got %d vs %d", without.Score, with.Score)
	}
}

func TestAssessPositiveHistoryReducesScore(t *testing.T) {
	a := NewAssessor()
	lead := model.Lead{
		FirstName:   "Dan",
		Company:     "Freightly",
		Title:       "Director of Operations",
		CompanySize: 3200,
	}

	base := a.Assess(lead, "Hi Dan, about Freightly.", Context{})
	lead.PositiveHistory = true
	warm := a.Assess(lead, "Hi Dan, about Freightly.", Context{})

	if base.Score-warm.Score != 20 {
		t.Errorf("positive history should subtract 20, got %d vs %d", base.Score, warm.Score)
	}
}

func TestAssessScoreClampedAtZero(t *testing.T) {
	a := NewAssessor()
	lead := model.Lead{FirstName: "Eve", Company: "Portside", PositiveHistory: true, PriorThreads: 3}

	res := a.Assess(lead, "Hi Eve, following up on Portside.", Context{})
	if res.Score != 0 {
		t.Errorf("negative totals should clamp to 0, got %d", res.Score)
	}
	if res.Level != model.RiskLow {
		t.Errorf("expected low, got %s", res.Level)
	}
	if res.RequiresApproval {
		t.Error("low tier should not pre-require approval")
	}
}
