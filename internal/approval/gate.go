// internal/approval/gate.go
package approval

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	appErrors "github.com/leadpilot/leadpilot-backend/internal/errors"
	"github.com/leadpilot/leadpilot-backend/internal/model"
)

// Policy controls which risk tiers reach a human. Critical and high always
// do; medium traffic is spot-checked 1-in-N; low is auto-approved unless
// auto-approval is switched off entirely.
type Policy struct {
	// MediumSampleRate routes every Nth medium-risk action of a campaign
	// to review. 0 disables sampling.
	MediumSampleRate int
	AutoApproveLow   bool
}

func DefaultPolicy() Policy {
	return Policy{MediumSampleRate: 5, AutoApproveLow: true}
}

// Statistics is derived from the history log and pending set on demand;
// there are no separate counters to keep in sync.
type Statistics struct {
	Total          int           `json:"total"`
	Approved       int           `json:"approved"`
	Rejected       int           `json:"rejected"`
	Edited         int           `json:"edited"`
	Pending        int           `json:"pending"`
	EditRate       float64       `json:"edit_rate"`
	MeanTurnaround time.Duration `json:"mean_turnaround_ns"`
}

// EditDiff is the side-channel record of what a reviewer changed, kept for
// downstream learning.
type EditDiff struct {
	RequestID   string    `json:"request_id"`
	Original    string    `json:"original"`
	Edited      string    `json:"edited"`
	UnifiedDiff string    `json:"unified_diff"`
	At          time.Time `json:"at"`
}

// Gate owns the pending set, the append-only history, and the per-campaign
// sampling counters. Sampling is a deterministic round-robin counter, not
// random, so the same input sequence always samples the same indices.
type Gate struct {
	mu             sync.Mutex
	policy         Policy
	pending        map[string]*model.ApprovalRequest
	history        []*model.ApprovalRequest
	sampleCounters map[int]int
	edits          []EditDiff
	onResolved     func(model.ApprovalRequest)

	// Now is swappable for tests.
	Now func() time.Time
}

func NewGate(policy Policy) *Gate {
	return &Gate{
		policy:         policy,
		pending:        make(map[string]*model.ApprovalRequest),
		sampleCounters: make(map[int]int),
		Now:            time.Now,
	}
}

// OnResolved registers the callback fired after a request reaches a
// terminal state. The callback runs outside the gate's lock.
func (g *Gate) OnResolved(fn func(model.ApprovalRequest)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onResolved = fn
}

// Decide finalizes the approval requirement for an assessment, consuming
// one tick of the campaign's sampling counter for medium-risk actions.
func (g *Gate) Decide(campaignID int, a *model.RiskAssessment) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch a.Level {
	case model.RiskCritical, model.RiskHigh:
		a.RequiresApproval = true
	case model.RiskMedium:
		if g.policy.MediumSampleRate > 0 {
			g.sampleCounters[campaignID]++
			a.RequiresApproval = g.sampleCounters[campaignID]%g.policy.MediumSampleRate == 0
		} else {
			a.RequiresApproval = false
		}
	default:
		a.RequiresApproval = !g.policy.AutoApproveLow
	}
	return a.RequiresApproval
}

// RequestApproval parks an action in the pending set and returns the record
// the reviewer will act on.
func (g *Gate) RequestApproval(campaignID, leadID int, accountID string, channel model.ActionType, assessment model.RiskAssessment, content, subject string) model.ApprovalRequest {
	req := &model.ApprovalRequest{
		ID:          uuid.NewString(),
		CampaignID:  campaignID,
		LeadID:      leadID,
		AccountID:   accountID,
		Channel:     channel,
		RiskLevel:   assessment.Level,
		RiskScore:   assessment.Score,
		RiskFactors: assessment.Factors,
		Content:     content,
		Subject:     subject,
		Status:      model.ApprovalPending,
		CreatedAt:   g.Now(),
	}

	g.mu.Lock()
	g.pending[req.ID] = req
	g.mu.Unlock()

	return *req
}

// resolve moves a pending request into history under the given terminal
// status and fires the resolution callback.
func (g *Gate) resolve(id string, mutate func(*model.ApprovalRequest)) (model.ApprovalRequest, error) {
	g.mu.Lock()
	req, ok := g.pending[id]
	if !ok {
		g.mu.Unlock()
		return model.ApprovalRequest{}, appErrors.NewApprovalNotFound(id)
	}

	mutate(req)
	now := g.Now()
	req.ReviewedAt = &now

	delete(g.pending, id)
	g.history = append(g.history, req)

	cb := g.onResolved
	out := *req
	g.mu.Unlock()

	if cb != nil {
		cb(out)
	}
	return out, nil
}

func (g *Gate) Approve(id, reviewer string) (model.ApprovalRequest, error) {
	return g.resolve(id, func(req *model.ApprovalRequest) {
		req.Status = model.ApprovalApproved
		req.Reviewer = reviewer
	})
}

func (g *Gate) Reject(id, reviewer, note string) (model.ApprovalRequest, error) {
	return g.resolve(id, func(req *model.ApprovalRequest) {
		req.Status = model.ApprovalRejected
		req.Reviewer = reviewer
		req.ReviewNote = note
	})
}

// EditAndApprove clears the request with replacement content and captures
// the original/edited diff for downstream learning.
func (g *Gate) EditAndApprove(id, reviewer, edited string) (model.ApprovalRequest, error) {
	return g.resolve(id, func(req *model.ApprovalRequest) {
		req.Status = model.ApprovalEdited
		req.Reviewer = reviewer
		req.EditedContent = edited

		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(req.Content),
			B:        difflib.SplitLines(edited),
			FromFile: "original",
			ToFile:   "edited",
			Context:  3,
		})
		g.edits = append(g.edits, EditDiff{
			RequestID:   req.ID,
			Original:    req.Content,
			Edited:      edited,
			UnifiedDiff: diff,
			At:          g.Now(),
		})
	})
}

// Pending returns the open requests, oldest first.
func (g *Gate) Pending() []model.ApprovalRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]model.ApprovalRequest, 0, len(g.pending))
	for _, req := range g.pending {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// History returns resolved requests in resolution order.
func (g *Gate) History() []model.ApprovalRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]model.ApprovalRequest, len(g.history))
	for i, req := range g.history {
		out[i] = *req
	}
	return out
}

// EditDiffs returns the captured reviewer edits.
func (g *Gate) EditDiffs() []EditDiff {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]EditDiff, len(g.edits))
	copy(out, g.edits)
	return out
}

// GetStatistics derives counts, edit rate and mean reviewer turnaround from
// the history log.
func (g *Gate) GetStatistics() Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := Statistics{Pending: len(g.pending)}
	var turnaround time.Duration
	for _, req := range g.history {
		switch req.Status {
		case model.ApprovalApproved:
			stats.Approved++
		case model.ApprovalRejected:
			stats.Rejected++
		case model.ApprovalEdited:
			stats.Edited++
		}
		if req.ReviewedAt != nil {
			turnaround += req.ReviewedAt.Sub(req.CreatedAt)
		}
	}
	stats.Total = len(g.history) + len(g.pending)
	if stats.Total > 0 {
		stats.EditRate = float64(stats.Edited) / float64(stats.Total)
	}
	if len(g.history) > 0 {
		stats.MeanTurnaround = turnaround / time.Duration(len(g.history))
	}
	return stats
}
