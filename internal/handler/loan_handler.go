package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// LoanHandler handles loan HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// LoanRequest represents the request/preview loan body.
// Principal travels as a string to keep exact decimals.
type LoanRequest struct {
	Principal string  `json:"principal"`
	Months    int32   `json:"months"`
	Purpose   *string `json:"purpose,omitempty"`
}

func (r *LoanRequest) principal() (decimal.Decimal, error) {
	return decimal.NewFromString(r.Principal)
}

func loanTermsResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLoanPrincipalInvalid):
		return NewValidationError(c, err.Error(), []ValidationError{
			{Field: "principal", Message: "Must be positive"},
		})
	case errors.Is(err, domain.ErrLoanMonthsInvalid), errors.Is(err, domain.ErrLoanMonthsTooLong):
		return NewValidationError(c, err.Error(), []ValidationError{
			{Field: "months", Message: err.Error()},
		})
	default:
		return MapDomainError(c, err)
	}
}

// PreviewSchedule handles POST /api/v1/groups/:groupId/loans/preview
// Computes a repayment schedule without creating anything
func (h *LoanHandler) PreviewSchedule(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	var req LoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	principal, err := req.principal()
	if err != nil {
		return NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}

	schedule, err := h.loanService.PreviewSchedule(groupID, middleware.GetUserID(c), principal, req.Months)
	if err != nil {
		return loanTermsResponse(c, err)
	}
	return c.JSON(http.StatusOK, schedule)
}

// RequestLoan handles POST /api/v1/groups/:groupId/loans
func (h *LoanHandler) RequestLoan(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	var req LoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	principal, err := req.principal()
	if err != nil {
		return NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}

	loan, err := h.loanService.RequestLoan(groupID, middleware.GetUserID(c), principal, req.Months, req.Purpose)
	if err != nil {
		return loanTermsResponse(c, err)
	}
	return c.JSON(http.StatusCreated, loan)
}

// ListLoans handles GET /api/v1/groups/:groupId/loans
func (h *LoanHandler) ListLoans(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	loans, err := h.loanService.ListLoans(groupID, middleware.GetUserID(c))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, loans)
}

// GetLoan handles GET /api/v1/groups/:groupId/loans/:loanId
func (h *LoanHandler) GetLoan(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoan(groupID, middleware.GetUserID(c), loanID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}

// ListMemberLoans handles GET /api/v1/groups/:groupId/members/:memberId/loans
func (h *LoanHandler) ListMemberLoans(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	loans, err := h.loanService.ListMemberLoans(groupID, middleware.GetUserID(c), memberID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, loans)
}

// ApproveLoan handles POST /api/v1/groups/:groupId/loans/:loanId/approve
func (h *LoanHandler) ApproveLoan(c echo.Context) error {
	return h.decide(c, h.loanService.ApproveLoan)
}

// RejectLoan handles POST /api/v1/groups/:groupId/loans/:loanId/reject
func (h *LoanHandler) RejectLoan(c echo.Context) error {
	return h.decide(c, h.loanService.RejectLoan)
}

func (h *LoanHandler) decide(c echo.Context, decision func(int32, uuid.UUID, int32) (*domain.Loan, error)) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := decision(groupID, middleware.GetUserID(c), loanID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotPending) {
			return NewConflictError(c, err.Error())
		}
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}
