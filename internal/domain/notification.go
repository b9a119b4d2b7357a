package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationKind identifies what a notification is about
type NotificationKind string

const (
	NotificationPaymentSubmitted NotificationKind = "payment_submitted"
	NotificationPaymentApproved  NotificationKind = "payment_approved"
	NotificationPaymentRejected  NotificationKind = "payment_rejected"
	NotificationLoanRequested    NotificationKind = "loan_requested"
	NotificationLoanApproved     NotificationKind = "loan_approved"
	NotificationLoanRejected     NotificationKind = "loan_rejected"
	NotificationPaymentDue       NotificationKind = "payment_due"
)

// Notification is a message for one user about activity in a group
type Notification struct {
	ID        int32            `json:"id"`
	GroupID   int32            `json:"groupId"`
	UserID    uuid.UUID        `json:"userId"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Create(notification *Notification) (*Notification, error)
	GetByUser(userID uuid.UUID, unreadOnly bool) ([]*Notification, error)
	MarkRead(userID uuid.UUID, id int32) error
	MarkAllRead(userID uuid.UUID) error
}
