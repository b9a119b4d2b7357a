package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/repository/cache"
	"github.com/vikoba/vikoba-backend/internal/testutil"
)

type dashboardEnv struct {
	svc         *DashboardService
	memberRepo  *testutil.MockMemberRepository
	paymentRepo *testutil.MockPaymentRepository
	loanRepo    *testutil.MockLoanRepository
	cache       *testutil.MockCache

	groupID     int32
	adminUserID uuid.UUID
	admin       *domain.Member
	userID      uuid.UUID
	member      *domain.Member
	now         time.Time
}

func newDashboardEnv(t *testing.T) *dashboardEnv {
	t.Helper()

	env := &dashboardEnv{
		memberRepo:  testutil.NewMockMemberRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
		loanRepo:    testutil.NewMockLoanRepository(),
		cache:       testutil.NewMockCache(),
		groupID:     1,
		adminUserID: uuid.New(),
		userID:      uuid.New(),
		now:         time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC),
	}

	env.admin = env.memberRepo.AddMember(&domain.Member{
		GroupID: env.groupID, UserID: env.adminUserID, Role: domain.RoleAdmin, Active: true,
	})
	env.member = env.memberRepo.AddMember(&domain.Member{
		GroupID: env.groupID, UserID: env.userID, Role: domain.RoleMember, Active: true,
	})

	env.svc = NewDashboardService(env.memberRepo, env.paymentRepo, env.loanRepo, env.cache).
		WithClock(func() time.Time { return env.now })
	return env
}

func (env *dashboardEnv) addPayment(memberID int32, amount, paid string, status domain.ApprovalStatus, due *time.Time) {
	env.paymentRepo.AddPayment(&domain.PaymentRecord{
		GroupID:        env.groupID,
		MemberID:       memberID,
		Category:       domain.CategoryMonthlyContribution,
		PeriodYear:     2025,
		PeriodMonth:    6,
		TotalAmount:    decimal.RequireFromString(amount),
		AmountPaid:     decimal.RequireFromString(paid),
		DueDate:        due,
		ApprovalStatus: status,
	})
}

func TestGetGroupSummary(t *testing.T) {
	env := newDashboardEnv(t)
	overdue := env.now.AddDate(0, 0, -10)

	env.addPayment(env.admin.ID, "50000", "50000", domain.StatusApproved, &overdue)
	env.addPayment(env.member.ID, "50000", "20000", domain.StatusPending, &overdue)

	summary, err := env.svc.GetGroupSummary(env.groupID, env.userID)
	if err != nil {
		t.Fatalf("GetGroupSummary: %v", err)
	}

	if got := summary.TotalPaid.String(); got != "50000" {
		t.Errorf("TotalPaid = %s, want 50000", got)
	}
	if got := summary.PendingAmount.String(); got != "20000" {
		t.Errorf("PendingAmount = %s, want 20000", got)
	}
	// Only the pending member's 30000 shortfall is overdue
	if got := summary.TotalArrears.String(); got != "30000" {
		t.Errorf("TotalArrears = %s, want 30000", got)
	}
	if summary.TotalMembers != 2 || summary.MembersWithPayments != 2 {
		t.Errorf("participation = %d/%d, want 2/2", summary.MembersWithPayments, summary.TotalMembers)
	}
}

func TestGetGroupSummary_ServesFromCache(t *testing.T) {
	env := newDashboardEnv(t)
	env.addPayment(env.member.ID, "50000", "50000", domain.StatusApproved, nil)

	first, err := env.svc.GetGroupSummary(env.groupID, env.userID)
	if err != nil {
		t.Fatalf("first GetGroupSummary: %v", err)
	}

	// New records are invisible until the cache is invalidated
	env.addPayment(env.admin.ID, "50000", "50000", domain.StatusApproved, nil)

	cached, err := env.svc.GetGroupSummary(env.groupID, env.userID)
	if err != nil {
		t.Fatalf("cached GetGroupSummary: %v", err)
	}
	if !cached.TotalPaid.Equal(first.TotalPaid) {
		t.Errorf("cached TotalPaid = %s, want %s", cached.TotalPaid, first.TotalPaid)
	}

	if err := env.cache.InvalidatePrefix(context.Background(), cache.Prefix("group", env.groupID)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	fresh, err := env.svc.GetGroupSummary(env.groupID, env.userID)
	if err != nil {
		t.Fatalf("fresh GetGroupSummary: %v", err)
	}
	if got := fresh.TotalPaid.String(); got != "100000" {
		t.Errorf("fresh TotalPaid = %s, want 100000", got)
	}
}

func TestGetPeriodSummary(t *testing.T) {
	env := newDashboardEnv(t)
	env.addPayment(env.member.ID, "50000", "50000", domain.StatusApproved, nil)
	env.paymentRepo.AddPayment(&domain.PaymentRecord{
		GroupID:        env.groupID,
		MemberID:       env.member.ID,
		Category:       domain.CategoryMonthlyContribution,
		PeriodYear:     2025,
		PeriodMonth:    7,
		TotalAmount:    decimal.RequireFromString("50000"),
		AmountPaid:     decimal.Zero,
		ApprovalStatus: domain.StatusUnpaid,
	})

	summary, err := env.svc.GetPeriodSummary(env.groupID, env.userID, 2025, 6)
	if err != nil {
		t.Fatalf("GetPeriodSummary: %v", err)
	}
	if got := summary.TotalDue.String(); got != "50000" {
		t.Errorf("TotalDue = %s, want 50000 (July record excluded)", got)
	}

	if _, err := env.svc.GetPeriodSummary(env.groupID, env.userID, 2025, 13); err != domain.ErrInvalidInput {
		t.Errorf("month 13 err = %v, want ErrInvalidInput", err)
	}
}

func TestGetGroupSummary_RequiresMembership(t *testing.T) {
	env := newDashboardEnv(t)

	if _, err := env.svc.GetGroupSummary(env.groupID, uuid.New()); err != domain.ErrNotGroupMember {
		t.Errorf("err = %v, want ErrNotGroupMember", err)
	}
}

func TestGetMemberSummary(t *testing.T) {
	env := newDashboardEnv(t)
	env.addPayment(env.member.ID, "50000", "50000", domain.StatusApproved, nil)

	loan := env.loanRepo.AddLoan(&domain.Loan{
		GroupID:  env.groupID,
		MemberID: env.member.ID,
		Terms: domain.LoanTerms{
			Principal: decimal.RequireFromString("10000"),
			Months:    2,
		},
		TotalRepayable: decimal.RequireFromString("11000"),
		AmountRepaid:   decimal.RequireFromString("3500"),
		Status:         domain.LoanStatusActive,
	})

	summary, err := env.svc.GetMemberSummary(env.groupID, env.userID, env.member.ID)
	if err != nil {
		t.Fatalf("GetMemberSummary: %v", err)
	}
	if summary.ActiveLoans != 1 {
		t.Errorf("ActiveLoans = %d, want 1", summary.ActiveLoans)
	}
	if got := summary.LoanProgress[loan.ID]; got != 35 {
		t.Errorf("LoanProgress = %d, want 35", got)
	}
	if got := summary.Summary.TotalPaid.String(); got != "50000" {
		t.Errorf("TotalPaid = %s, want 50000", got)
	}
}

func TestGetArrearsReport(t *testing.T) {
	env := newDashboardEnv(t)
	overdue := env.now.AddDate(0, 0, -10)
	future := env.now.AddDate(0, 0, 10)

	// Admin owes 30000 across two overdue records, member's record is not due yet
	env.addPayment(env.admin.ID, "50000", "30000", domain.StatusApproved, &overdue)
	env.addPayment(env.admin.ID, "10000", "0", domain.StatusUnpaid, &overdue)
	env.addPayment(env.member.ID, "50000", "0", domain.StatusUnpaid, &future)

	report, err := env.svc.GetArrearsReport(env.groupID, env.adminUserID)
	if err != nil {
		t.Fatalf("GetArrearsReport: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("report rows = %d, want 1", len(report))
	}
	if report[0].MemberID != env.admin.ID {
		t.Errorf("MemberID = %d, want %d", report[0].MemberID, env.admin.ID)
	}
	if got := report[0].Arrears.String(); got != "30000" {
		t.Errorf("Arrears = %s, want 30000", got)
	}
	if report[0].OverdueRecords != 2 {
		t.Errorf("OverdueRecords = %d, want 2", report[0].OverdueRecords)
	}
}

func TestGetArrearsReport_AdminOnly(t *testing.T) {
	env := newDashboardEnv(t)

	if _, err := env.svc.GetArrearsReport(env.groupID, env.userID); err != domain.ErrNotGroupAdmin {
		t.Errorf("err = %v, want ErrNotGroupAdmin", err)
	}
}

func TestGetMemberSummary_MembersSeeOnlyTheirOwn(t *testing.T) {
	env := newDashboardEnv(t)

	if _, err := env.svc.GetMemberSummary(env.groupID, env.userID, env.admin.ID); err != domain.ErrForbidden {
		t.Errorf("member viewing admin err = %v, want ErrForbidden", err)
	}
	// Admins can view anyone
	if _, err := env.svc.GetMemberSummary(env.groupID, env.adminUserID, env.member.ID); err != nil {
		t.Errorf("admin viewing member: %v", err)
	}
}
