package approval

import (
	"strings"
	"testing"
	"time"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

func mediumAssessment() model.RiskAssessment {
	return model.RiskAssessment{Level: model.RiskMedium, Score: 25}
}

func TestDecideTiers(t *testing.T) {
	g := NewGate(Policy{MediumSampleRate: 0, AutoApproveLow: true})

	crit := model.RiskAssessment{Level: model.RiskCritical, Score: 70}
	if !g.Decide(1, &crit) {
		t.Error("critical must always require approval")
	}
	high := model.RiskAssessment{Level: model.RiskHigh, Score: 45}
	if !g.Decide(1, &high) {
		t.Error("high must require approval")
	}
	med := mediumAssessment()
	if g.Decide(1, &med) {
		t.Error("medium with sampling disabled should auto-approve")
	}
	low := model.RiskAssessment{Level: model.RiskLow, Score: 5}
	if g.Decide(1, &low) {
		t.Error("low should auto-approve")
	}

	strict := NewGate(Policy{MediumSampleRate: 0, AutoApproveLow: false})
	low2 := model.RiskAssessment{Level: model.RiskLow, Score: 5}
	if !strict.Decide(1, &low2) {
		t.Error("low should require approval when auto-approve is disabled")
	}
}

func TestMediumSamplingDeterministic(t *testing.T) {
	run := func() []int {
		g := NewGate(Policy{MediumSampleRate: 5, AutoApproveLow: true})
		var sampled []int
		for i := 0; i < 10; i++ {
			a := mediumAssessment()
			if g.Decide(42, &a) {
				sampled = append(sampled, i)
			}
		}
		return sampled
	}

	first := run()
	second := run()

	if len(first) != 2 || first[0] != 4 || first[1] != 9 {
		t.Fatalf("expected exactly the 5th and 10th actions sampled, got %v", first)
	}
	if len(second) != len(first) || second[0] != first[0] || second[1] != first[1] {
		t.Errorf("sampling must be deterministic: %v vs %v", first, second)
	}
}

func TestSamplingCountersArePerCampaign(t *testing.T) {
	g := NewGate(Policy{MediumSampleRate: 2, AutoApproveLow: true})

	a := mediumAssessment()
	g.Decide(1, &a) // campaign 1, count 1

	b := mediumAssessment()
	if g.Decide(2, &b) {
		t.Error("campaign 2's first medium action should not be sampled")
	}

	c := mediumAssessment()
	if !g.Decide(1, &c) {
		t.Error("campaign 1's second medium action should be sampled")
	}
}

func TestApprovalLifecycle(t *testing.T) {
	g := NewGate(DefaultPolicy())

	req := g.RequestApproval(1, 10, "acct-1", model.ActionDirectMessage,
		model.RiskAssessment{Level: model.RiskHigh, Score: 45},
		"Hi Carla, quick note about Omnistack.", "")

	if req.Status != model.ApprovalPending {
		t.Fatalf("new request should be pending, got %s", req.Status)
	}
	if pending := g.Pending(); len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}

	resolved, err := g.Approve(req.ID, "dana")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if resolved.Status != model.ApprovalApproved || resolved.Reviewer != "dana" {
		t.Errorf("unexpected resolution: %+v", resolved)
	}
	if resolved.ReviewedAt == nil {
		t.Error("ReviewedAt should be set on resolution")
	}
	if len(g.Pending()) != 0 {
		t.Error("resolved request should leave the pending set")
	}
	if history := g.History(); len(history) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(history))
	}

	// Acting twice on the same request is an error.
	if _, err := g.Approve(req.ID, "dana"); err == nil {
		t.Error("approving a resolved request should fail")
	}
}

func TestEditAndApprove(t *testing.T) {
	g := NewGate(DefaultPolicy())

	req := g.RequestApproval(1, 10, "acct-1", model.ActionEmail,
		model.RiskAssessment{Level: model.RiskHigh, Score: 50},
		"Hi Dan, about Freightly.", "Quick question")

	edited := "Hi Dan, congrats on the Freightly expansion. Worth a quick chat?"
	resolved, err := g.EditAndApprove(req.ID, "dana", edited)
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	if resolved.Status != model.ApprovalEdited {
		t.Errorf("expected edited status, got %s", resolved.Status)
	}
	if resolved.FinalContent() != edited {
		t.Errorf("FinalContent should be the edited text, got %q", resolved.FinalContent())
	}
	if len(g.Pending()) != 0 {
		t.Error("edited request should leave the pending set")
	}
	if history := g.History(); len(history) != 1 || history[0].Status != model.ApprovalEdited {
		t.Errorf("history should carry the edited entry: %+v", history)
	}

	diffs := g.EditDiffs()
	if len(diffs) != 1 {
		t.Fatalf("expected 1 edit diff, got %d", len(diffs))
	}
	if diffs[0].Original != "Hi Dan, about Freightly." || diffs[0].Edited != edited {
		t.Errorf("diff should capture both versions: %+v", diffs[0])
	}
	if !strings.Contains(diffs[0].UnifiedDiff, "-Hi Dan, about Freightly.") {
		t.Errorf("unified diff should show the removed line:\n%s", diffs[0].UnifiedDiff)
	}
}

func TestResolutionCallback(t *testing.T) {
	g := NewGate(DefaultPolicy())

	var got model.ApprovalRequest
	g.OnResolved(func(req model.ApprovalRequest) { got = req })

	req := g.RequestApproval(1, 10, "acct-1", model.ActionDirectMessage,
		model.RiskAssessment{Level: model.RiskHigh, Score: 45}, "Hi Carla, about Omnistack.", "")
	if _, err := g.Reject(req.ID, "dana", "tone is off"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if got.ID != req.ID || got.Status != model.ApprovalRejected || got.ReviewNote != "tone is off" {
		t.Errorf("callback saw %+v", got)
	}
}

func TestStatisticsDerivedFromHistory(t *testing.T) {
	g := NewGate(DefaultPolicy())
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	g.Now = func() time.Time { return now }

	assessment := model.RiskAssessment{Level: model.RiskHigh, Score: 45}
	a := g.RequestApproval(1, 1, "acct-1", model.ActionEmail, assessment, "Hi Alice, about Brightloop.", "")
	b := g.RequestApproval(1, 2, "acct-1", model.ActionEmail, assessment, "Hi Bob, about Kitewire.", "")
	c := g.RequestApproval(1, 3, "acct-1", model.ActionEmail, assessment, "Hi Carla, about Omnistack.", "")
	g.RequestApproval(1, 4, "acct-1", model.ActionEmail, assessment, "Hi Dan, about Freightly.", "")

	now = now.Add(10 * time.Minute)
	g.Approve(a.ID, "dana")
	g.Reject(b.ID, "dana", "wrong audience")
	g.EditAndApprove(c.ID, "dana", "Hi Carla, congrats on the Omnistack round.")

	stats := g.GetStatistics()
	if stats.Total != 4 || stats.Approved != 1 || stats.Rejected != 1 || stats.Edited != 1 || stats.Pending != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.EditRate != 0.25 {
		t.Errorf("expected edit rate 0.25, got %f", stats.EditRate)
	}
	if stats.MeanTurnaround != 10*time.Minute {
		t.Errorf("expected 10m mean turnaround, got %s", stats.MeanTurnaround)
	}
}
