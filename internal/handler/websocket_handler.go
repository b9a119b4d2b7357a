package handler

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vikoba/vikoba-backend/internal/websocket"
)

// JWTValidator checks a bearer token and the subject's membership in a group
type JWTValidator interface {
	ValidateToken(token string, groupID int32) error
}

// WebSocketHandler upgrades connections for live group event streaming
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator JWTValidator
	upgrader  gorilla.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// Connect handles GET /ws?groupId=...&token=...
// Browsers cannot set headers on WebSocket dials, so the token rides the query string
func (h *WebSocketHandler) Connect(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		groupID, ok = queryID(c, "groupId")
	}
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "Missing token")
	}
	if err := h.validator.ValidateToken(token, groupID); err != nil {
		switch err {
		case websocket.ErrNotMember:
			return NewForbiddenError(c, "Not a member of this group")
		default:
			return NewUnauthorizedError(c, "Invalid token")
		}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Int32("group_id", groupID).Msg("WebSocket upgrade failed")
		return nil
	}

	client := websocket.NewClient(conn, groupID, h.hub)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
