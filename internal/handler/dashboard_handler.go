package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// DashboardHandler handles financial summary HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GroupSummary handles GET /api/v1/groups/:groupId/dashboard
func (h *DashboardHandler) GroupSummary(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	summary, err := h.dashboardService.GetGroupSummary(groupID, middleware.GetUserID(c))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// PeriodSummary handles GET /api/v1/groups/:groupId/dashboard/:year/:month
func (h *DashboardHandler) PeriodSummary(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	year, ok := pathID(c, "year")
	if !ok {
		return NewValidationError(c, "Invalid year", nil)
	}
	month, ok := pathID(c, "month")
	if !ok {
		return NewValidationError(c, "Invalid month", nil)
	}

	summary, err := h.dashboardService.GetPeriodSummary(groupID, middleware.GetUserID(c), int(year), int(month))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Invalid period", []ValidationError{
				{Field: "month", Message: "Must be between 1 and 12"},
			})
		}
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ArrearsReport handles GET /api/v1/groups/:groupId/arrears
func (h *DashboardHandler) ArrearsReport(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	report, err := h.dashboardService.GetArrearsReport(groupID, middleware.GetUserID(c))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// MemberSummary handles GET /api/v1/groups/:groupId/members/:memberId/summary
func (h *DashboardHandler) MemberSummary(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	summary, err := h.dashboardService.GetMemberSummary(groupID, middleware.GetUserID(c), memberID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
