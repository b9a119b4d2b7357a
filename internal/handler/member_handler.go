package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// MemberHandler handles group membership HTTP requests
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// AddMemberRequest represents the add member request body
type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// AddMember handles POST /api/v1/groups/:groupId/members
func (h *MemberHandler) AddMember(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return NewValidationError(c, "Email is required", []ValidationError{
			{Field: "email", Message: "Must not be empty"},
		})
	}

	member, err := h.memberService.AddMember(groupID, middleware.GetUserID(c), req.Email, domain.MemberRole(req.Role))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, member)
}

// ListMembers handles GET /api/v1/groups/:groupId/members
func (h *MemberHandler) ListMembers(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	members, err := h.memberService.ListMembers(groupID, middleware.GetUserID(c))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

// GetMember handles GET /api/v1/groups/:groupId/members/:memberId
func (h *MemberHandler) GetMember(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	member, err := h.memberService.GetMember(groupID, middleware.GetUserID(c), memberID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, member)
}

// ChangeRoleRequest represents the change role request body
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRole handles PATCH /api/v1/groups/:groupId/members/:memberId/role
func (h *MemberHandler) ChangeRole(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	role := domain.MemberRole(req.Role)
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return NewValidationError(c, "Invalid role", []ValidationError{
			{Field: "role", Message: "Must be admin or member"},
		})
	}

	member, err := h.memberService.ChangeRole(groupID, middleware.GetUserID(c), memberID, role)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, member)
}

// DeactivateMember handles DELETE /api/v1/groups/:groupId/members/:memberId
func (h *MemberHandler) DeactivateMember(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	if err := h.memberService.DeactivateMember(groupID, middleware.GetUserID(c), memberID); err != nil {
		return MapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
