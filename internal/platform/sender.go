// internal/platform/sender.go
package platform

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

// MockSendClient simulates the messaging platform with a configurable
// success rate. Default is 90% success, like real-world delivery.
type MockSendClient struct {
	SuccessRate float64
}

func NewMockSendClient() *MockSendClient {
	return &MockSendClient{SuccessRate: 0.9}
}

func (c *MockSendClient) Send(accountID string, leadID int, content string, channel model.ActionType) (*SendResult, error) {
	if content == "" {
		return nil, fmt.Errorf("empty content for lead %d", leadID)
	}
	if rand.Float64() >= c.SuccessRate {
		return nil, fmt.Errorf("mock sending failed for lead %d on %s", leadID, channel)
	}
	return &SendResult{DeliveryID: uuid.NewString()}, nil
}

var _ SendClient = (*MockSendClient)(nil)
