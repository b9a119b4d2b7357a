package service

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/websocket"
)

// NotificationService handles in-app notifications and their delivery over
// WebSocket
type NotificationService struct {
	notificationRepo domain.NotificationRepository
	memberRepo       domain.MemberRepository
	events           websocket.EventPublisher
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo domain.NotificationRepository,
	memberRepo domain.MemberRepository,
	events websocket.EventPublisher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		memberRepo:       memberRepo,
		events:           events,
	}
}

// Notify stores a notification for one user and pushes it to the group's
// WebSocket clients. Notification failures are logged, never propagated:
// a missed notification must not fail the operation that caused it.
func (s *NotificationService) Notify(groupID int32, userID uuid.UUID, kind domain.NotificationKind, message string) {
	notification, err := s.notificationRepo.Create(&domain.Notification{
		GroupID: groupID,
		UserID:  userID,
		Kind:    kind,
		Message: message,
	})
	if err != nil {
		log.Error().Err(err).
			Int32("group_id", groupID).
			Str("kind", string(kind)).
			Msg("Failed to store notification")
		return
	}

	if s.events != nil {
		s.events.Publish(groupID, websocket.NotificationCreated(notification))
	}
}

// NotifyAdmins sends the notification to every active admin of the group
func (s *NotificationService) NotifyAdmins(groupID int32, kind domain.NotificationKind, message string) {
	members, err := s.memberRepo.GetAllByGroup(groupID)
	if err != nil {
		log.Error().Err(err).Int32("group_id", groupID).Msg("Failed to list members for admin notification")
		return
	}
	for _, member := range members {
		if member.Active && member.IsAdmin() {
			s.Notify(groupID, member.UserID, kind, message)
		}
	}
}

// ListForUser retrieves a user's notifications, optionally unread only
func (s *NotificationService) ListForUser(userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	return s.notificationRepo.GetByUser(userID, unreadOnly)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(userID uuid.UUID, id int32) error {
	return s.notificationRepo.MarkRead(userID, id)
}

// MarkAllRead marks all of the user's notifications as read
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(userID)
}
