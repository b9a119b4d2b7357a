package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
)

// PaymentHandler handles payment record HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// GeneratePeriodRequest represents the generate period records request body
type GeneratePeriodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// GeneratePeriod handles POST /api/v1/groups/:groupId/payments/generate
func (h *PaymentHandler) GeneratePeriod(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	var req GeneratePeriodRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	records, err := h.paymentService.GeneratePeriodRecords(groupID, middleware.GetUserID(c), req.Year, req.Month)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Invalid period", []ValidationError{
				{Field: "month", Message: "Must be between 1 and 12"},
			})
		}
		return MapDomainError(c, err)
	}
	if records == nil {
		records = []*domain.PaymentRecord{}
	}
	return c.JSON(http.StatusCreated, records)
}

// ListPayments handles GET /api/v1/groups/:groupId/payments
// Optional ?year= and ?month= filter to one period
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	records, err := h.paymentService.ListGroupPayments(groupID, middleware.GetUserID(c),
		queryInt(c, "year"), queryInt(c, "month"))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// ListPending handles GET /api/v1/groups/:groupId/payments/pending
func (h *PaymentHandler) ListPending(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}

	records, err := h.paymentService.ListPendingPayments(groupID, middleware.GetUserID(c))
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// GetPayment handles GET /api/v1/groups/:groupId/payments/:paymentId
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	paymentID, ok := pathID(c, "paymentId")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	record, err := h.paymentService.GetPayment(groupID, middleware.GetUserID(c), paymentID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// ListMemberPayments handles GET /api/v1/groups/:groupId/members/:memberId/payments
func (h *PaymentHandler) ListMemberPayments(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	records, err := h.paymentService.ListMemberPayments(groupID, middleware.GetUserID(c), memberID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// SubmitPayment handles POST /api/v1/groups/:groupId/payments/:paymentId/submit
// Multipart form: "amount" field plus a "proof" image file
func (h *PaymentHandler) SubmitPayment(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	paymentID, ok := pathID(c, "paymentId")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	amount, err := decimal.NewFromString(c.FormValue("amount"))
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return NewValidationError(c, "Proof image is required", []ValidationError{
			{Field: "proof", Message: "Must attach an image file"},
		})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxProofSize+1))
	if err != nil {
		return NewInternalError(c, "Failed to read uploaded file")
	}

	record, err := h.paymentService.SubmitPayment(c.Request().Context(), groupID,
		middleware.GetUserID(c), paymentID, amount, data, fileHeader.Filename)
	if err != nil {
		return submitErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func submitErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrPaymentAmountInvalid):
		return NewValidationError(c, err.Error(), []ValidationError{
			{Field: "amount", Message: "Must be positive"},
		})
	case errors.Is(err, domain.ErrPaymentAlreadyApproved):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrPaymentProofRequired),
		errors.Is(err, service.ErrProofTooLarge),
		errors.Is(err, service.ErrProofInvalidFormat),
		errors.Is(err, service.ErrProofTooSmall),
		errors.Is(err, service.ErrProofInvalidData):
		return NewValidationError(c, err.Error(), []ValidationError{
			{Field: "proof", Message: err.Error()},
		})
	case errors.Is(err, service.ErrProofStorageUnavailable):
		return NewInternalError(c, err.Error())
	default:
		return MapDomainError(c, err)
	}
}

// ApprovePayment handles POST /api/v1/groups/:groupId/payments/:paymentId/approve
func (h *PaymentHandler) ApprovePayment(c echo.Context) error {
	return h.decide(c, h.paymentService.ApprovePayment)
}

// RejectPayment handles POST /api/v1/groups/:groupId/payments/:paymentId/reject
func (h *PaymentHandler) RejectPayment(c echo.Context) error {
	return h.decide(c, h.paymentService.RejectPayment)
}

func (h *PaymentHandler) decide(c echo.Context, decision func(int32, uuid.UUID, int32) (*domain.PaymentRecord, error)) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	paymentID, ok := pathID(c, "paymentId")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	record, err := decision(groupID, middleware.GetUserID(c), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotPending) {
			return NewConflictError(c, err.Error())
		}
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// ProofURL handles GET /api/v1/groups/:groupId/payments/:paymentId/proof-url
func (h *PaymentHandler) ProofURL(c echo.Context) error {
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return NewValidationError(c, "Invalid group ID", nil)
	}
	paymentID, ok := pathID(c, "paymentId")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	url, err := h.paymentService.ProofURL(c.Request().Context(), groupID, middleware.GetUserID(c), paymentID)
	if err != nil {
		return MapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
