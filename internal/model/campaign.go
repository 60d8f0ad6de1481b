// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignArchived  CampaignStatus = "archived"
)

type Campaign struct {
	ID        int              `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	AccountID string           `db:"account_id" json:"account_id"`
	Status    CampaignStatus   `db:"status" json:"status"`
	Sequence  Sequence         `db:"sequence" json:"sequence"`
	Settings  CampaignSettings `db:"settings" json:"settings"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time       `db:"updated_at" json:"updated_at,omitempty"`
}

// Sequence is the ordered list of steps every lead in the campaign walks.
// Immutable once the campaign is active.
type Sequence struct {
	Steps []SequenceStep `json:"steps"`
}

type SequenceStep struct {
	StepNumber int        `json:"step_number"`
	Channel    ActionType `json:"channel"`
	// DelayHours is measured from completion of the previous step.
	DelayHours float64 `json:"delay_hours"`
}

type CampaignSettings struct {
	DailyLimit            int  `json:"daily_limit"`
	PerActionDelaySeconds int  `json:"per_action_delay_seconds"`
	AutoSend              bool `json:"auto_send"`
}

// CampaignMetrics is maintained incrementally by the scheduler.
type CampaignMetrics struct {
	TotalLeads int `json:"total_leads"`
	Contacted  int `json:"contacted"`
	Replied    int `json:"replied"`
	Positive   int `json:"positive"`
	Negative   int `json:"negative"`
	Neutral    int `json:"neutral"`
	Bounced    int `json:"bounced"`
}

func (m CampaignMetrics) ReplyRate() float64 {
	if m.Contacted == 0 {
		return 0
	}
	return float64(m.Replied) / float64(m.Contacted)
}

func (m CampaignMetrics) ConversionRate() float64 {
	if m.Contacted == 0 {
		return 0
	}
	return float64(m.Positive) / float64(m.Contacted)
}
