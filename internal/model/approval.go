// internal/model/approval.go
package model

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalEdited   ApprovalStatus = "edited"
)

// ApprovalRequest is a held outbound action awaiting human sign-off.
// Terminal requests move from the pending set into the gate's history log.
type ApprovalRequest struct {
	ID            string         `db:"id" json:"id"`
	CampaignID    int            `db:"campaign_id" json:"campaign_id"`
	LeadID        int            `db:"lead_id" json:"lead_id"`
	AccountID     string         `db:"account_id" json:"account_id"`
	Channel       ActionType     `db:"channel" json:"channel"`
	RiskLevel     RiskLevel      `db:"risk_level" json:"risk_level"`
	RiskScore     int            `db:"risk_score" json:"risk_score"`
	RiskFactors   []RiskFactor   `db:"-" json:"risk_factors,omitempty"`
	Content       string         `db:"content" json:"content"`
	Subject       string         `db:"subject" json:"subject,omitempty"`
	Status        ApprovalStatus `db:"status" json:"status"`
	Reviewer      string         `db:"reviewer" json:"reviewer,omitempty"`
	ReviewNote    string         `db:"review_note" json:"review_note,omitempty"`
	EditedContent string         `db:"edited_content" json:"edited_content,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	ReviewedAt    *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// FinalContent is what actually goes out if the request was cleared.
func (r ApprovalRequest) FinalContent() string {
	if r.Status == ApprovalEdited && r.EditedContent != "" {
		return r.EditedContent
	}
	return r.Content
}

// Cleared reports whether the request permits the send.
func (r ApprovalRequest) Cleared() bool {
	return r.Status == ApprovalApproved || r.Status == ApprovalEdited
}
