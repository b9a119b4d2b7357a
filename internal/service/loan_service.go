package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/repository/cache"
	"github.com/vikoba/vikoba-backend/internal/websocket"
)

// LoanService handles loan business logic: previewing and requesting loans,
// the admin review workflow, and disbursement.
type LoanService struct {
	groupRepo     domain.GroupRepository
	memberRepo    domain.MemberRepository
	loanRepo      domain.LoanRepository
	paymentRepo   domain.PaymentRepository
	tx            domain.TxManager
	notifications *NotificationService
	cache         cache.Cache
	events        websocket.EventPublisher

	now func() time.Time
}

// NewLoanService creates a new LoanService
func NewLoanService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	loanRepo domain.LoanRepository,
	paymentRepo domain.PaymentRepository,
	tx domain.TxManager,
	notifications *NotificationService,
	c cache.Cache,
	events websocket.EventPublisher,
) *LoanService {
	return &LoanService{
		groupRepo:     groupRepo,
		memberRepo:    memberRepo,
		loanRepo:      loanRepo,
		paymentRepo:   paymentRepo,
		tx:            tx,
		notifications: notifications,
		cache:         c,
		events:        events,
		now:           time.Now,
	}
}

// WithClock overrides the service clock (for tests)
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// buildTerms snapshots the group's current interest tiers into loan terms and
// enforces the group's repayment period cap
func (s *LoanService) buildTerms(group *domain.Group, principal decimal.Decimal, months int32) (domain.LoanTerms, error) {
	terms := domain.LoanTerms{
		Principal: principal,
		Tiers:     group.InterestTiers,
		Months:    months,
	}
	if err := terms.Validate(); err != nil {
		return domain.LoanTerms{}, err
	}
	if months > group.MaxLoanMonths {
		return domain.LoanTerms{}, domain.ErrLoanMonthsTooLong
	}
	return terms, nil
}

// PreviewSchedule computes the repayment schedule for a prospective loan
// without creating anything
func (s *LoanService) PreviewSchedule(groupID int32, callerUserID uuid.UUID, principal decimal.Decimal, months int32) (*domain.RepaymentSchedule, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	terms, err := s.buildTerms(group, principal, months)
	if err != nil {
		return nil, err
	}
	return terms.Schedule()
}

// RequestLoan creates a pending loan for the calling member. The group's
// interest tiers are snapshotted into the loan terms and the amortization
// schedule is computed once and persisted with the loan; later tier changes
// never touch it. A member with a pending or active loan cannot request
// another.
func (s *LoanService) RequestLoan(groupID int32, callerUserID uuid.UUID, principal decimal.Decimal, months int32, purpose *string) (*domain.Loan, error) {
	caller, err := requireMember(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.loanRepo.GetByMember(caller.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if l.Status == domain.LoanStatusPending || l.Status == domain.LoanStatusActive {
			return nil, domain.ErrLoanOutstanding
		}
	}

	terms, err := s.buildTerms(group, principal, months)
	if err != nil {
		return nil, err
	}

	schedule, err := terms.Schedule()
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		GroupID:        groupID,
		MemberID:       caller.ID,
		Terms:          terms,
		TotalInterest:  schedule.TotalInterest,
		TotalRepayable: schedule.TotalRepayable,
		AmountRepaid:   decimal.Zero,
		Purpose:        purpose,
		Status:         domain.LoanStatusPending,
	}

	err = s.tx.WithTx(context.Background(), func(tx interface{}) error {
		created, err := s.loanRepo.CreateTx(tx, loan)
		if err != nil {
			return err
		}
		loan = created
		return s.loanRepo.SaveScheduleTx(tx, created.ID, schedule.Entries)
	})
	if err != nil {
		return nil, err
	}
	loan.Schedule = schedule.Entries

	s.notifications.NotifyAdmins(groupID, domain.NotificationLoanRequested,
		fmt.Sprintf("Loan request of %s over %d months", principal.StringFixed(2), months))
	if s.events != nil {
		s.events.Publish(groupID, websocket.LoanRequested(loan))
	}

	log.Info().
		Int32("group_id", groupID).
		Int32("loan_id", loan.ID).
		Str("principal", principal.StringFixed(2)).
		Int32("months", months).
		Msg("Loan requested")
	return loan, nil
}

// ApproveLoan approves and disburses a pending loan. Admin only. Approval
// creates one loan installment payment record per schedule entry, due on the
// group's contribution due day of successive months after disbursement, all
// in the same transaction as the status change.
func (s *LoanService) ApproveLoan(groupID int32, callerUserID uuid.UUID, loanID int32) (*domain.Loan, error) {
	admin, err := requireAdmin(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	loan, err := s.loanRepo.GetByID(groupID, loanID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.loanRepo.GetSchedule(loanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := loan.Approve(admin.ID, now); err != nil {
		return nil, err
	}

	installments := s.buildInstallments(group, loan, schedule, now)

	err = s.tx.WithTx(context.Background(), func(tx interface{}) error {
		updated, err := s.loanRepo.UpdateTx(tx, loan)
		if err != nil {
			return err
		}
		loan = updated
		return s.paymentRepo.CreateBatchTx(tx, installments)
	})
	if err != nil {
		return nil, err
	}
	loan.Schedule = schedule

	s.notifyMember(groupID, loan.MemberID, domain.NotificationLoanApproved,
		fmt.Sprintf("Your loan of %s was approved", loan.Terms.Principal.StringFixed(2)))
	if s.events != nil {
		s.events.Publish(groupID, websocket.LoanApproved(loan))
	}
	s.invalidateSummaries(groupID)

	log.Info().
		Int32("group_id", groupID).
		Int32("loan_id", loanID).
		Int("installments", len(installments)).
		Msg("Loan approved and disbursed")
	return loan, nil
}

// buildInstallments converts schedule entries into due payment records.
// Installment n falls due on the group's contribution due day n months after
// disbursement.
func (s *LoanService) buildInstallments(group *domain.Group, loan *domain.Loan, schedule []domain.RepaymentScheduleEntry, disbursedAt time.Time) []*domain.PaymentRecord {
	records := make([]*domain.PaymentRecord, 0, len(schedule))
	for _, entry := range schedule {
		dueMonth := disbursedAt.AddDate(0, int(entry.Month), 0)
		due := group.ContributionDueDate(dueMonth.Year(), dueMonth.Month())
		loanID := loan.ID
		records = append(records, &domain.PaymentRecord{
			GroupID:        loan.GroupID,
			MemberID:       loan.MemberID,
			LoanID:         &loanID,
			Category:       domain.CategoryLoanInstallment,
			PeriodYear:     int32(due.Year()),
			PeriodMonth:    int32(due.Month()),
			TotalAmount:    entry.TotalPayment,
			AmountPaid:     decimal.Zero,
			DueDate:        &due,
			ApprovalStatus: domain.StatusUnpaid,
		})
	}
	return records
}

// RejectLoan declines a pending loan. Admin only.
func (s *LoanService) RejectLoan(groupID int32, callerUserID uuid.UUID, loanID int32) (*domain.Loan, error) {
	admin, err := requireAdmin(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}

	loan, err := s.loanRepo.GetByID(groupID, loanID)
	if err != nil {
		return nil, err
	}

	if err := loan.Reject(admin.ID, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.loanRepo.Update(loan)
	if err != nil {
		return nil, err
	}

	s.notifyMember(groupID, loan.MemberID, domain.NotificationLoanRejected,
		"Your loan request was rejected")
	if s.events != nil {
		s.events.Publish(groupID, websocket.LoanRejected(updated))
	}
	return updated, nil
}

// GetLoan retrieves a loan with its repayment schedule. Loans are visible to
// every member of the group.
func (s *LoanService) GetLoan(groupID int32, callerUserID uuid.UUID, loanID int32) (*domain.Loan, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	loan, err := s.loanRepo.GetByID(groupID, loanID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.loanRepo.GetSchedule(loanID)
	if err != nil {
		return nil, err
	}
	loan.Schedule = schedule
	return loan, nil
}

// ListLoans retrieves all loans for a group
func (s *LoanService) ListLoans(groupID int32, callerUserID uuid.UUID) ([]*domain.Loan, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	return s.loanRepo.GetAllByGroup(groupID)
}

// ListMemberLoans retrieves one member's loans
func (s *LoanService) ListMemberLoans(groupID int32, callerUserID uuid.UUID, memberID int32) ([]*domain.Loan, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member.GroupID != groupID {
		return nil, domain.ErrMemberNotFound
	}
	return s.loanRepo.GetByMember(memberID)
}

func (s *LoanService) notifyMember(groupID, memberID int32, kind domain.NotificationKind, message string) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		log.Error().Err(err).Int32("member_id", memberID).Msg("Failed to resolve member for notification")
		return
	}
	s.notifications.Notify(groupID, member.UserID, kind, message)
}

func (s *LoanService) invalidateSummaries(groupID int32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(context.Background(), cache.Prefix("group", groupID)); err != nil {
		log.Warn().Err(err).Int32("group_id", groupID).Msg("Failed to invalidate summary cache")
	}
}
