package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /api/v1/notifications
// ?unread=true restricts to unread notifications
func (h *NotificationHandler) List(c echo.Context) error {
	unreadOnly := c.QueryParam("unread") == "true"

	notifications, err := h.notificationService.ListForUser(middleware.GetUserID(c), unreadOnly)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid notification ID", nil)
	}

	if err := h.notificationService.MarkRead(middleware.GetUserID(c), id); err != nil {
		return MapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.notificationService.MarkAllRead(middleware.GetUserID(c)); err != nil {
		return MapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
