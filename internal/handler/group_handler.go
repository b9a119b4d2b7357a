package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// GroupRequest represents the create/update group request body.
// Monetary amounts and rates travel as strings to keep exact decimals.
type GroupRequest struct {
	Name                string  `json:"name"`
	Currency            string  `json:"currency,omitempty"`
	SeedMoneyAmount     string  `json:"seedMoneyAmount"`
	MonthlyContribution string  `json:"monthlyContribution"`
	ServiceFeeAmount    string  `json:"serviceFeeAmount"`
	ContributionDueDay  int32   `json:"contributionDueDay"`
	RateMonth1          *string `json:"rateMonth1,omitempty"`
	RateMonth2          *string `json:"rateMonth2,omitempty"`
	RateMonth3          *string `json:"rateMonth3,omitempty"`
	MaxLoanMonths       int32   `json:"maxLoanMonths"`
}

func (r *GroupRequest) toDomain() (*domain.Group, []ValidationError) {
	var verrs []ValidationError

	parseAmount := func(field, raw string) decimal.Decimal {
		if raw == "" {
			return decimal.Zero
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			verrs = append(verrs, ValidationError{Field: field, Message: "Must be a valid decimal number"})
			return decimal.Zero
		}
		return value
	}
	parseRate := func(field string, raw *string) *decimal.Decimal {
		if raw == nil || *raw == "" {
			return nil
		}
		value, err := decimal.NewFromString(*raw)
		if err != nil {
			verrs = append(verrs, ValidationError{Field: field, Message: "Must be a valid decimal number"})
			return nil
		}
		return &value
	}

	group := &domain.Group{
		Name:                r.Name,
		Currency:            r.Currency,
		SeedMoneyAmount:     parseAmount("seedMoneyAmount", r.SeedMoneyAmount),
		MonthlyContribution: parseAmount("monthlyContribution", r.MonthlyContribution),
		ServiceFeeAmount:    parseAmount("serviceFeeAmount", r.ServiceFeeAmount),
		ContributionDueDay:  r.ContributionDueDay,
		InterestTiers: domain.InterestTiers{
			Month1: parseRate("rateMonth1", r.RateMonth1),
			Month2: parseRate("rateMonth2", r.RateMonth2),
			Month3: parseRate("rateMonth3", r.RateMonth3),
		},
		MaxLoanMonths: r.MaxLoanMonths,
	}
	return group, verrs
}

func groupValidationResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrGroupNameEmpty), errors.Is(err, domain.ErrGroupNameTooLong):
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "name", Message: err.Error()}})
	case errors.Is(err, domain.ErrGroupDueDayInvalid):
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "contributionDueDay", Message: err.Error()}})
	case errors.Is(err, domain.ErrGroupRateInvalid):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrGroupSeedAmountInvalid),
		errors.Is(err, domain.ErrGroupContributionInvalid),
		errors.Is(err, domain.ErrGroupServiceFeeInvalid),
		errors.Is(err, domain.ErrGroupMaxLoanMonthsInvalid):
		return NewValidationError(c, err.Error(), nil)
	default:
		return MapDomainError(c, err)
	}
}

// CreateGroup handles POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req GroupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	group, verrs := req.toDomain()
	if len(verrs) > 0 {
		return NewValidationError(c, "Invalid group settings", verrs)
	}

	created, err := h.groupService.CreateGroup(userID, group)
	if err != nil {
		return groupValidationResponse(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListGroups handles GET /api/v1/groups
func (h *GroupHandler) ListGroups(c echo.Context) error {
	userID := middleware.GetUserID(c)

	groups, err := h.groupService.ListGroupsForUser(userID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, groups)
}

// GetGroup handles GET /api/v1/groups/:groupId
func (h *GroupHandler) GetGroup(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	group, err := h.groupService.GetGroup(groupID, middleware.GetUserID(c))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, group)
}

// UpdateGroup handles PUT /api/v1/groups/:groupId
func (h *GroupHandler) UpdateGroup(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	var req GroupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	group, verrs := req.toDomain()
	if len(verrs) > 0 {
		return NewValidationError(c, "Invalid group settings", verrs)
	}

	updated, err := h.groupService.UpdateGroup(groupID, middleware.GetUserID(c), group)
	if err != nil {
		return groupValidationResponse(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteGroup handles DELETE /api/v1/groups/:groupId
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	if err := h.groupService.DeleteGroup(groupID, middleware.GetUserID(c)); err != nil {
		return MapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
