package enums

import "fmt"

// SessionStatus marks whether a session row still owns the customer's live thread.
type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusInactive SessionStatus = "inactive"
)

// String implements fmt.Stringer.
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SessionStatus.
func (s SessionStatus) IsValid() bool {
	return s == SessionStatusActive || s == SessionStatusInactive
}

// ControlMode says who answers a customer: the bot or a human operator.
type ControlMode string

const (
	ControlModeBot   ControlMode = "BOT"
	ControlModeAdmin ControlMode = "ADMIN"
)

// IsValid reports whether the value is a known ControlMode.
func (m ControlMode) IsValid() bool {
	return m == ControlModeBot || m == ControlModeAdmin
}

// ParseControlMode converts raw input into a ControlMode.
func ParseControlMode(value string) (ControlMode, error) {
	switch ControlMode(value) {
	case ControlModeBot, ControlModeAdmin:
		return ControlMode(value), nil
	}
	return "", fmt.Errorf("invalid control mode %q", value)
}

// EventType names the audit events recorded per customer/session.
type EventType string

const (
	EventTypeNewCustomer        EventType = "new_customer"
	EventTypeReturningCustomer  EventType = "returning_customer"
	EventTypeBotResponseSuccess EventType = "bot_response_success"
	EventTypeBotResponseFailure EventType = "bot_response_failure"
)

var validEventTypes = []EventType{
	EventTypeNewCustomer,
	EventTypeReturningCustomer,
	EventTypeBotResponseSuccess,
	EventTypeBotResponseFailure,
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}
