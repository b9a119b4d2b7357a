package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/testutil"
)

type loanEnv struct {
	svc         *LoanService
	groupRepo   *testutil.MockGroupRepository
	memberRepo  *testutil.MockMemberRepository
	loanRepo    *testutil.MockLoanRepository
	paymentRepo *testutil.MockPaymentRepository
	notifRepo   *testutil.MockNotificationRepository
	cache       *testutil.MockCache
	events      *testutil.MockEventPublisher

	group       *domain.Group
	adminUserID uuid.UUID
	admin       *domain.Member
	userID      uuid.UUID
	member      *domain.Member
	outsiderID  uuid.UUID
	now         time.Time
}

func rate(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newLoanEnv(t *testing.T) *loanEnv {
	t.Helper()

	env := &loanEnv{
		groupRepo:   testutil.NewMockGroupRepository(),
		memberRepo:  testutil.NewMockMemberRepository(),
		loanRepo:    testutil.NewMockLoanRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
		notifRepo:   testutil.NewMockNotificationRepository(),
		cache:       testutil.NewMockCache(),
		events:      &testutil.MockEventPublisher{},
		adminUserID: uuid.New(),
		userID:      uuid.New(),
		outsiderID:  uuid.New(),
		now:         time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}

	group, err := env.groupRepo.Create(&domain.Group{
		Name:                "Umoja",
		Currency:            "TZS",
		SeedMoneyAmount:     decimal.RequireFromString("100000"),
		MonthlyContribution: decimal.RequireFromString("50000"),
		ServiceFeeAmount:    decimal.RequireFromString("1000"),
		ContributionDueDay:  5,
		InterestTiers: domain.InterestTiers{
			Month1: rate("10"),
			Month2: rate("7"),
			Month3: rate("5"),
		},
		MaxLoanMonths: 6,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	env.group = group

	env.admin = env.memberRepo.AddMember(&domain.Member{
		GroupID: group.ID, UserID: env.adminUserID, Role: domain.RoleAdmin, Active: true,
	})
	env.member = env.memberRepo.AddMember(&domain.Member{
		GroupID: group.ID, UserID: env.userID, Role: domain.RoleMember, Active: true,
	})

	notifications := NewNotificationService(env.notifRepo, env.memberRepo, env.events)
	env.svc = NewLoanService(
		env.groupRepo, env.memberRepo, env.loanRepo, env.paymentRepo,
		&testutil.MockTxManager{}, notifications, env.cache, env.events,
	).WithClock(func() time.Time { return env.now })
	return env
}

func TestRequestLoan_CreatesPendingLoanWithSchedule(t *testing.T) {
	env := newLoanEnv(t)

	loan, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("30000"), 3, nil)
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}

	if loan.Status != domain.LoanStatusPending {
		t.Errorf("status = %s, want pending", loan.Status)
	}
	if got := loan.TotalInterest.String(); got != "4900" {
		t.Errorf("TotalInterest = %s, want 4900", got)
	}
	if got := loan.TotalRepayable.String(); got != "34900" {
		t.Errorf("TotalRepayable = %s, want 34900", got)
	}
	if len(loan.Schedule) != 3 {
		t.Fatalf("schedule entries = %d, want 3", len(loan.Schedule))
	}

	saved, _ := env.loanRepo.GetSchedule(loan.ID)
	if len(saved) != 3 {
		t.Errorf("persisted schedule entries = %d, want 3", len(saved))
	}

	// Admin gets notified, requester does not
	if got := env.notifRepo.CountForUser(env.adminUserID); got != 1 {
		t.Errorf("admin notifications = %d, want 1", got)
	}
	if got := env.notifRepo.CountForUser(env.userID); got != 0 {
		t.Errorf("member notifications = %d, want 0", got)
	}

	types := env.events.EventTypes()
	found := false
	for _, typ := range types {
		if typ == "loan.created" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected loan.created event, got %v", types)
	}
}

func TestRequestLoan_SnapshotsTiersAtRequestTime(t *testing.T) {
	env := newLoanEnv(t)

	loan, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("10000"), 2, nil)
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}

	// Changing the group's tiers afterwards must not affect the stored terms
	env.group.InterestTiers.Month1 = rate("50")

	if got := loan.Terms.Tiers.RateFor(1).String(); got != "10" {
		t.Errorf("snapshot month-1 rate = %s, want 10", got)
	}
}

func TestRequestLoan_RejectsSecondOutstandingLoan(t *testing.T) {
	env := newLoanEnv(t)

	if _, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("10000"), 2, nil); err != nil {
		t.Fatalf("first RequestLoan: %v", err)
	}
	_, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("5000"), 1, nil)
	if err != domain.ErrLoanOutstanding {
		t.Errorf("err = %v, want ErrLoanOutstanding", err)
	}
}

func TestRequestLoan_Validation(t *testing.T) {
	env := newLoanEnv(t)

	if _, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.Zero, 3, nil); err != domain.ErrLoanPrincipalInvalid {
		t.Errorf("zero principal err = %v, want ErrLoanPrincipalInvalid", err)
	}
	if _, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("1000"), 0, nil); err != domain.ErrLoanMonthsInvalid {
		t.Errorf("zero months err = %v, want ErrLoanMonthsInvalid", err)
	}
	if _, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("1000"), 7, nil); err != domain.ErrLoanMonthsTooLong {
		t.Errorf("over-cap months err = %v, want ErrLoanMonthsTooLong", err)
	}
	if _, err := env.svc.RequestLoan(env.group.ID, env.outsiderID, decimal.RequireFromString("1000"), 2, nil); err != domain.ErrNotGroupMember {
		t.Errorf("outsider err = %v, want ErrNotGroupMember", err)
	}
}

func TestPreviewSchedule_MatchesTerms(t *testing.T) {
	env := newLoanEnv(t)

	schedule, err := env.svc.PreviewSchedule(env.group.ID, env.userID, decimal.RequireFromString("30000"), 3)
	if err != nil {
		t.Fatalf("PreviewSchedule: %v", err)
	}
	if got := schedule.TotalInterest.String(); got != "4900" {
		t.Errorf("TotalInterest = %s, want 4900", got)
	}
	if len(env.loanRepo.Loans) != 0 {
		t.Errorf("preview must not create loans, found %d", len(env.loanRepo.Loans))
	}
}

func TestApproveLoan_CreatesInstallments(t *testing.T) {
	env := newLoanEnv(t)

	loan, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("30000"), 3, nil)
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}

	approved, err := env.svc.ApproveLoan(env.group.ID, env.adminUserID, loan.ID)
	if err != nil {
		t.Fatalf("ApproveLoan: %v", err)
	}

	if approved.Status != domain.LoanStatusActive {
		t.Errorf("status = %s, want active", approved.Status)
	}
	if approved.DisbursedAt == nil || !approved.DisbursedAt.Equal(env.now) {
		t.Errorf("DisbursedAt = %v, want %v", approved.DisbursedAt, env.now)
	}

	installments, _ := env.paymentRepo.GetByLoan(loan.ID)
	if len(installments) != 3 {
		t.Fatalf("installments = %d, want 3", len(installments))
	}
	// Disbursed 2025-03-10, due day 5: first installment due April 5
	first := installments[0]
	for _, inst := range installments {
		if inst.Category != domain.CategoryLoanInstallment {
			t.Errorf("category = %s, want loan_installment", inst.Category)
		}
		if inst.DueDate == nil {
			t.Fatal("installment missing due date")
		}
		if inst.DueDate.Before(*first.DueDate) {
			first = inst
		}
	}
	if first.DueDate.Month() != time.April || first.DueDate.Day() != 5 {
		t.Errorf("first due date = %v, want April 5", first.DueDate)
	}

	if len(env.cache.Invalidated) == 0 {
		t.Error("expected summary cache invalidation")
	}
}

func TestApproveLoan_RequiresAdmin(t *testing.T) {
	env := newLoanEnv(t)

	loan, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("10000"), 2, nil)
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}
	if _, err := env.svc.ApproveLoan(env.group.ID, env.userID, loan.ID); err != domain.ErrNotGroupAdmin {
		t.Errorf("err = %v, want ErrNotGroupAdmin", err)
	}
}

func TestRejectLoan_OnlyFromPending(t *testing.T) {
	env := newLoanEnv(t)

	loan, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("10000"), 2, nil)
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}

	rejected, err := env.svc.RejectLoan(env.group.ID, env.adminUserID, loan.ID)
	if err != nil {
		t.Fatalf("RejectLoan: %v", err)
	}
	if rejected.Status != domain.LoanStatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}

	if _, err := env.svc.ApproveLoan(env.group.ID, env.adminUserID, loan.ID); err != domain.ErrLoanNotPending {
		t.Errorf("approve after reject err = %v, want ErrLoanNotPending", err)
	}

	// Rejecting frees the member to request again
	if _, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("5000"), 1, nil); err != nil {
		t.Errorf("request after reject: %v", err)
	}
}

func TestGetLoan_IncludesSchedule(t *testing.T) {
	env := newLoanEnv(t)

	loan, err := env.svc.RequestLoan(env.group.ID, env.userID, decimal.RequireFromString("30000"), 3, nil)
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}

	got, err := env.svc.GetLoan(env.group.ID, env.adminUserID, loan.ID)
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if len(got.Schedule) != 3 {
		t.Errorf("schedule entries = %d, want 3", len(got.Schedule))
	}

	if _, err := env.svc.GetLoan(env.group.ID, env.outsiderID, loan.ID); err != domain.ErrNotGroupMember {
		t.Errorf("outsider err = %v, want ErrNotGroupMember", err)
	}
}
