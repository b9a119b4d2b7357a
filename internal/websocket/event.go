package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the kind of change an event describes
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeSubmitted EventType = "submitted"
	EventTypeApproved  EventType = "approved"
	EventTypeRejected  EventType = "rejected"
	EventTypeRepaid    EventType = "repaid"
	EventTypeUpdated   EventType = "updated"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypePayment      EntityType = "payment"
	EntityTypeLoan         EntityType = "loan"
	EntityTypeMember       EntityType = "member"
	EntityTypeNotification EntityType = "notification"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment.approved"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentSubmitted creates a payment.submitted event
func PaymentSubmitted(payload interface{}) Event {
	return NewEvent(EventTypeSubmitted, EntityTypePayment, payload)
}

// PaymentApproved creates a payment.approved event
func PaymentApproved(payload interface{}) Event {
	return NewEvent(EventTypeApproved, EntityTypePayment, payload)
}

// PaymentRejected creates a payment.rejected event
func PaymentRejected(payload interface{}) Event {
	return NewEvent(EventTypeRejected, EntityTypePayment, payload)
}

// LoanRequested creates a loan.created event
func LoanRequested(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanApproved creates a loan.approved event
func LoanApproved(payload interface{}) Event {
	return NewEvent(EventTypeApproved, EntityTypeLoan, payload)
}

// LoanRejected creates a loan.rejected event
func LoanRejected(payload interface{}) Event {
	return NewEvent(EventTypeRejected, EntityTypeLoan, payload)
}

// LoanRepaid creates a loan.repaid event
func LoanRepaid(payload interface{}) Event {
	return NewEvent(EventTypeRepaid, EntityTypeLoan, payload)
}

// NotificationCreated creates a notification.created event
func NotificationCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeNotification, payload)
}
