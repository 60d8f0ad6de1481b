// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrInvalidCampaign means the campaign definition cannot be started.
// Raised at start time, before any step is scheduled.
type ErrInvalidCampaign struct {
	CampaignID int
	Reason     string
}

func (e *ErrInvalidCampaign) Error() string {
	return fmt.Sprintf("campaign %d is invalid: %s", e.CampaignID, e.Reason)
}

func NewInvalidCampaign(id int, reason string) error {
	return &ErrInvalidCampaign{CampaignID: id, Reason: reason}
}

// ErrApprovalNotFound is returned when a reviewer acts on an unknown or
// already-resolved request.
type ErrApprovalNotFound struct {
	RequestID string
}

func (e *ErrApprovalNotFound) Error() string {
	return fmt.Sprintf("approval request %s not found in pending set", e.RequestID)
}

func NewApprovalNotFound(id string) error {
	return &ErrApprovalNotFound{RequestID: id}
}

// ErrInvalidTransition rejects a campaign state-machine move.
type ErrInvalidTransition struct {
	CampaignID int
	From       string
	To         string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %d cannot go from %s to %s", e.CampaignID, e.From, e.To)
}

func NewInvalidTransition(id int, from, to string) error {
	return &ErrInvalidTransition{CampaignID: id, From: from, To: to}
}
