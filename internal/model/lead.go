// internal/model/lead.go
package model

import "time"

type Lead struct {
	ID               int        `db:"id" json:"id"`
	CampaignID       int        `db:"campaign_id" json:"campaign_id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Title            string     `db:"title" json:"title"`
	Company          string     `db:"company" json:"company"`
	CompanySize      int        `db:"company_size" json:"company_size"`
	Email            string     `db:"email" json:"email"`
	ProfileURL       string     `db:"profile_url" json:"profile_url"`
	StrategicAccount bool       `db:"strategic_account" json:"strategic_account"`
	PriorThreads     int        `db:"prior_threads" json:"prior_threads"`
	PositiveHistory  bool       `db:"positive_history" json:"positive_history"`
	LastContactedAt  *time.Time `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
}

func (l Lead) FullName() string {
	if l.LastName == "" {
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}
