// internal/model/send_record.go
package model

import "time"

// SendRecord is the audit outcome of one sequence step attempt. The
// scheduler publishes one per attempt; the worker persists them.
type SendRecord struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	LeadID     int        `db:"lead_id" json:"lead_id"`
	StepNumber int        `db:"step_number" json:"step_number"`
	Channel    ActionType `db:"channel" json:"channel"`
	AccountID  string     `db:"account_id" json:"account_id"`
	Content    string     `db:"content" json:"content"`
	Status     string     `db:"status" json:"status"` // sent, failed, blocked, rejected
	DeliveryID string     `db:"delivery_id" json:"delivery_id,omitempty"`
	LastError  string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

const (
	SendStatusSent     = "sent"
	SendStatusFailed   = "failed"
	SendStatusBlocked  = "blocked"  // content validation refused it
	SendStatusRejected = "rejected" // reviewer refused it
)
