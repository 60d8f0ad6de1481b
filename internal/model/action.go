// internal/model/action.go
package model

import "fmt"

// ActionType is the closed set of outbound channels the system can use.
type ActionType string

const (
	ActionConnectionRequest ActionType = "connection_request"
	ActionDirectMessage     ActionType = "direct_message"
	ActionEmail             ActionType = "email"
)

// ParseActionType rejects anything outside the closed set.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionConnectionRequest, ActionDirectMessage, ActionEmail:
		return ActionType(s), nil
	}
	return "", fmt.Errorf("unknown action type: %q", s)
}

func (a ActionType) Valid() bool {
	_, err := ParseActionType(string(a))
	return err == nil
}
