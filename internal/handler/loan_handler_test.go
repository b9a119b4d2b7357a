package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/service"
	"github.com/vikoba/vikoba-backend/internal/testutil"
)

type loanHandlerEnv struct {
	handler  *LoanHandler
	loanRepo *testutil.MockLoanRepository
	member   *domain.Member
	memberID uuid.UUID
}

func newLoanTestHandler(t *testing.T) *loanHandlerEnv {
	t.Helper()

	groupRepo := testutil.NewMockGroupRepository()
	memberRepo := testutil.NewMockMemberRepository()
	loanRepo := testutil.NewMockLoanRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	notificationRepo := testutil.NewMockNotificationRepository()
	events := testutil.NewMockEventPublisher()

	rate1 := decimal.NewFromInt(10)
	rate2 := decimal.NewFromInt(7)
	group, _ := groupRepo.Create(&domain.Group{
		Name:                "Umoja",
		Currency:            "TZS",
		MonthlyContribution: decimal.NewFromInt(50000),
		ContributionDueDay:  5,
		InterestTiers:       domain.InterestTiers{Month1: &rate1, Month2: &rate2},
		MaxLoanMonths:       6,
	})

	userID := uuid.New()
	member := memberRepo.AddMember(&domain.Member{
		GroupID: group.ID,
		UserID:  userID,
		Role:    domain.RoleMember,
		Active:  true,
	})

	notifications := service.NewNotificationService(notificationRepo, memberRepo, events)
	loanService := service.NewLoanService(groupRepo, memberRepo, loanRepo, paymentRepo,
		&testutil.MockTxManager{}, notifications, testutil.NewMockCache(), events).
		WithClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })

	return &loanHandlerEnv{
		handler:  NewLoanHandler(loanService),
		loanRepo: loanRepo,
		member:   member,
		memberID: userID,
	}
}

func TestRequestLoan_Success(t *testing.T) {
	e := echo.New()
	env := newLoanTestHandler(t)

	reqBody := `{"principal": "30000", "months": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("groupId")
	c.SetParamValues("1")
	setupAuthContext(c, env.memberID)

	if err := env.handler.RequestLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var loan domain.Loan
	if err := json.Unmarshal(rec.Body.Bytes(), &loan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if loan.Status != domain.LoanStatusPending {
		t.Errorf("Expected pending loan, got %s", loan.Status)
	}
	if !loan.Terms.Principal.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("Expected principal 30000, got %s", loan.Terms.Principal)
	}
	if len(env.loanRepo.Loans) != 1 {
		t.Errorf("Expected 1 stored loan, got %d", len(env.loanRepo.Loans))
	}
}

func TestRequestLoan_InvalidPrincipal(t *testing.T) {
	e := echo.New()
	env := newLoanTestHandler(t)

	for _, body := range []string{
		`{"principal": "abc", "months": 2}`,
		`{"principal": "-5", "months": 2}`,
		`{"principal": "30000", "months": 0}`,
		`{"principal": "30000", "months": 7}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/1/loans", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("groupId")
		c.SetParamValues("1")
		setupAuthContext(c, env.memberID)

		if err := env.handler.RequestLoan(c); err != nil {
			t.Fatalf("Expected no error for %s, got %v", body, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", body, rec.Code)
		}
	}
	if len(env.loanRepo.Loans) != 0 {
		t.Errorf("Expected no stored loans, got %d", len(env.loanRepo.Loans))
	}
}

func TestPreviewSchedule_Success(t *testing.T) {
	e := echo.New()
	env := newLoanTestHandler(t)

	reqBody := `{"principal": "30000", "months": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/1/loans/preview", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("groupId")
	c.SetParamValues("1")
	setupAuthContext(c, env.memberID)

	if err := env.handler.PreviewSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var schedule domain.RepaymentSchedule
	if err := json.Unmarshal(rec.Body.Bytes(), &schedule); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(schedule.Entries) != 2 {
		t.Errorf("Expected 2 schedule entries, got %d", len(schedule.Entries))
	}
	if len(env.loanRepo.Loans) != 0 {
		t.Errorf("Preview must not persist a loan, got %d", len(env.loanRepo.Loans))
	}
}

func TestApproveLoan_NotAdmin(t *testing.T) {
	e := echo.New()
	env := newLoanTestHandler(t)

	loan := &domain.Loan{
		GroupID:  1,
		MemberID: env.member.ID,
		Terms: domain.LoanTerms{
			Principal: decimal.NewFromInt(30000),
			Months:    2,
		},
		Status: domain.LoanStatusPending,
	}
	env.loanRepo.AddLoan(loan)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/1/loans/1/approve", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("groupId", "loanId")
	c.SetParamValues("1", "1")
	setupAuthContext(c, env.memberID)

	if err := env.handler.ApproveLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}
