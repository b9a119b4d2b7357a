package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CallbackResponse represents the auth callback response
type CallbackResponse struct {
	User      interface{} `json:"user"`
	Groups    interface{} `json:"groups"`
	IsNewUser bool        `json:"isNewUser"`
}

// Callback handles POST /api/v1/auth/callback
// Provisions the user on first login from the validated token claims
func (h *AuthHandler) Callback(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Missing authentication")
	}

	claims := middleware.GetCustomClaims(c)
	if claims == nil || claims.Email == "" {
		return NewValidationError(c, "Token is missing the email claim", nil)
	}

	var name, picture *string
	if claims.Name != "" {
		name = &claims.Name
	}
	if claims.Picture != "" {
		picture = &claims.Picture
	}

	result, err := h.authService.AuthenticateUser(auth0ID, claims.Email, name, picture)
	if err != nil {
		return MapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, CallbackResponse{
		User:      result.User,
		Groups:    result.Groups,
		IsNewUser: result.IsNewUser,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Missing authentication")
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// UpdateProfile handles PUT /api/v1/profile
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Missing authentication")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	user, err := h.authService.UpdateProfile(userID, req.Name, req.Phone)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
