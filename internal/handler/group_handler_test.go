package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/middleware"
	"github.com/vikoba/vikoba-backend/internal/service"
	"github.com/vikoba/vikoba-backend/internal/testutil"
)

// setupAuthContext injects an authenticated user the way the auth middleware does
func setupAuthContext(c echo.Context, userID uuid.UUID) {
	ctx := context.WithValue(c.Request().Context(), middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}

func newGroupTestHandler() (*GroupHandler, *testutil.MockGroupRepository, *testutil.MockMemberRepository) {
	groupRepo := testutil.NewMockGroupRepository()
	memberRepo := testutil.NewMockMemberRepository()
	userRepo := testutil.NewMockUserRepository()
	return NewGroupHandler(service.NewGroupService(groupRepo, memberRepo, userRepo)), groupRepo, memberRepo
}

func TestCreateGroup_Success(t *testing.T) {
	e := echo.New()
	handler, _, memberRepo := newGroupTestHandler()
	userID := uuid.New()

	reqBody := `{
		"name": "Umoja",
		"seedMoneyAmount": "100000",
		"monthlyContribution": "50000",
		"serviceFeeAmount": "1000",
		"contributionDueDay": 5,
		"rateMonth1": "10",
		"rateMonth2": "7",
		"rateMonth3": "5",
		"maxLoanMonths": 6
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, userID)

	if err := handler.CreateGroup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if created.Name != "Umoja" {
		t.Errorf("Expected name Umoja, got %s", created.Name)
	}
	if created.Currency != "TZS" {
		t.Errorf("Expected default currency TZS, got %s", created.Currency)
	}
	if !created.MonthlyContribution.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Expected monthly contribution 50000, got %s", created.MonthlyContribution)
	}

	founder, err := memberRepo.GetByGroupAndUser(created.ID, userID)
	if err != nil {
		t.Fatalf("Expected founding member, got %v", err)
	}
	if founder.Role != domain.RoleAdmin || !founder.Active {
		t.Errorf("Expected active admin founder, got role=%s active=%v", founder.Role, founder.Active)
	}
}

func TestCreateGroup_InvalidDecimal(t *testing.T) {
	e := echo.New()
	handler, groupRepo, _ := newGroupTestHandler()

	reqBody := `{"name": "Umoja", "seedMoneyAmount": "not-a-number", "monthlyContribution": "50000", "serviceFeeAmount": "0", "contributionDueDay": 5, "maxLoanMonths": 6}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := handler.CreateGroup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if len(groupRepo.Groups) != 0 {
		t.Errorf("Expected no group created, got %d", len(groupRepo.Groups))
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation problem type, got %s", problem.Type)
	}
}

func TestCreateGroup_InvalidDueDay(t *testing.T) {
	e := echo.New()
	handler, _, _ := newGroupTestHandler()

	reqBody := `{"name": "Umoja", "seedMoneyAmount": "0", "monthlyContribution": "50000", "serviceFeeAmount": "0", "contributionDueDay": 29, "maxLoanMonths": 6}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := handler.CreateGroup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetGroup_NotMember(t *testing.T) {
	e := echo.New()
	handler, groupRepo, _ := newGroupTestHandler()
	groupRepo.Create(&domain.Group{Name: "Umoja", Currency: "TZS", ContributionDueDay: 5, MaxLoanMonths: 6})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("groupId")
	c.SetParamValues("1")
	setupAuthContext(c, uuid.New())

	if err := handler.GetGroup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}

func TestGetGroup_BadID(t *testing.T) {
	e := echo.New()
	handler, _, _ := newGroupTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("groupId")
	c.SetParamValues("abc")
	setupAuthContext(c, uuid.New())

	if err := handler.GetGroup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
