// internal/platform/platform.go
package platform

import (
	"github.com/leadpilot/leadpilot-backend/internal/model"
)

// Strategy is the outreach angle an external generator proposes for a lead.
type Strategy struct {
	Angle         string   `json:"angle"`
	Tone          string   `json:"tone"`
	TalkingPoints []string `json:"talking_points"`
}

// GeneratedMessage is the drafted content for one lead.
type GeneratedMessage struct {
	Subject   string   `json:"subject,omitempty"`
	Body      string   `json:"body"`
	FollowUps []string `json:"follow_ups,omitempty"`
}

// ContentGenerator drafts outreach content. The core treats it as a black
// box and only inspects the returned text for risk and spam scoring.
type ContentGenerator interface {
	GenerateStrategy(lead model.Lead, fitScore int) (*Strategy, error)
	GenerateMessages(lead model.Lead, strategy *Strategy) (*GeneratedMessage, error)
}

// Drafter is the narrow slice of the generator the scheduler consumes:
// one finished draft per (lead, channel).
type Drafter interface {
	Draft(lead model.Lead, channel model.ActionType) (body, subject string, err error)
}

// Classification is the reply classifier's verdict on an inbound thread.
type Classification struct {
	Intent     string  `json:"intent"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

const (
	IntentInterested    = "interested"
	IntentQuestion      = "question"
	IntentNotInterested = "not_interested"
	IntentUnsubscribe   = "unsubscribe"
	IntentNeutral       = "neutral"

	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ReplyClassifier labels inbound replies so the scheduler can decide whether
// a lead stays in the sequence.
type ReplyClassifier interface {
	Classify(thread []string) (*Classification, error)
}

// SendResult identifies a delivery accepted by the messaging platform.
type SendResult struct {
	DeliveryID string `json:"delivery_id"`
}

// SendClient performs the actual outbound action. The core calls Send
// exactly once per admitted step; any error is a failed step.
type SendClient interface {
	Send(accountID string, leadID int, content string, channel model.ActionType) (*SendResult, error)
}
