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

// PaymentService handles payment record business logic: generating periodic
// obligations, proof submission, and the admin review workflow.
type PaymentService struct {
	groupRepo     domain.GroupRepository
	memberRepo    domain.MemberRepository
	paymentRepo   domain.PaymentRepository
	loanRepo      domain.LoanRepository
	tx            domain.TxManager
	proofs        *ProofService
	notifications *NotificationService
	cache         cache.Cache
	events        websocket.EventPublisher

	// now is injectable so arrears and review timestamps are testable
	now func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	paymentRepo domain.PaymentRepository,
	loanRepo domain.LoanRepository,
	tx domain.TxManager,
	proofs *ProofService,
	notifications *NotificationService,
	c cache.Cache,
	events websocket.EventPublisher,
) *PaymentService {
	return &PaymentService{
		groupRepo:     groupRepo,
		memberRepo:    memberRepo,
		paymentRepo:   paymentRepo,
		loanRepo:      loanRepo,
		tx:            tx,
		proofs:        proofs,
		notifications: notifications,
		cache:         c,
		events:        events,
		now:           time.Now,
	}
}

// WithClock overrides the service clock (for tests)
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// GeneratePeriodRecords creates the monthly contribution and service fee
// obligations for every active member for the given period. Admin only.
// Members who already have a record for the period and category are skipped,
// so the operation is safe to repeat.
func (s *PaymentService) GeneratePeriodRecords(groupID int32, callerUserID uuid.UUID, year, month int) ([]*domain.PaymentRecord, error) {
	if _, err := requireAdmin(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, domain.ErrInvalidInput
	}

	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.GetAllByGroup(groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.paymentRepo.GetByGroupAndPeriod(groupID, year, month)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, record := range existing {
		have[fmt.Sprintf("%d/%s", record.MemberID, record.Category)] = true
	}

	dueDate := group.ContributionDueDate(year, time.Month(month))

	var records []*domain.PaymentRecord
	addRecord := func(memberID int32, category domain.PaymentCategory, amount decimal.Decimal) {
		if amount.IsZero() || have[fmt.Sprintf("%d/%s", memberID, category)] {
			return
		}
		due := dueDate
		records = append(records, &domain.PaymentRecord{
			GroupID:        groupID,
			MemberID:       memberID,
			Category:       category,
			PeriodYear:     int32(year),
			PeriodMonth:    int32(month),
			TotalAmount:    amount,
			AmountPaid:     decimal.Zero,
			DueDate:        &due,
			ApprovalStatus: domain.StatusUnpaid,
		})
	}

	for _, member := range members {
		if !member.Active {
			continue
		}
		addRecord(member.ID, domain.CategoryMonthlyContribution, group.MonthlyContribution)
		addRecord(member.ID, domain.CategoryServiceFee, group.ServiceFeeAmount)
	}

	if len(records) == 0 {
		return nil, nil
	}

	err = s.tx.WithTx(context.Background(), func(tx interface{}) error {
		return s.paymentRepo.CreateBatchTx(tx, records)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummaries(groupID)
	log.Info().
		Int32("group_id", groupID).
		Int("year", year).
		Int("month", month).
		Int("count", len(records)).
		Msg("Generated period payment records")
	return records, nil
}

// SubmitPayment attaches a proof of payment to the member's own record and
// moves it to pending review
func (s *PaymentService) SubmitPayment(ctx context.Context, groupID int32, callerUserID uuid.UUID, paymentID int32, amount decimal.Decimal, proofData []byte, proofFilename string) (*domain.PaymentRecord, error) {
	caller, err := requireMember(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}

	record, err := s.getGroupPayment(groupID, paymentID)
	if err != nil {
		return nil, err
	}
	if record.MemberID != caller.ID {
		return nil, domain.ErrForbidden
	}

	upload, err := s.proofs.Upload(ctx, groupID, paymentID, proofData, proofFilename)
	if err != nil {
		return nil, err
	}

	if err := record.SubmitProof(amount, upload.Path, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.Update(record)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyAdmins(groupID, domain.NotificationPaymentSubmitted,
		fmt.Sprintf("Payment of %s submitted for review", amount.StringFixed(2)))
	if s.events != nil {
		s.events.Publish(groupID, websocket.PaymentSubmitted(updated))
	}
	s.invalidateSummaries(groupID)
	return updated, nil
}

// ApprovePayment accepts a pending submission. Admin only. Approving a loan
// installment credits the repayment against the loan, completing it when the
// total repayable is covered.
func (s *PaymentService) ApprovePayment(groupID int32, callerUserID uuid.UUID, paymentID int32) (*domain.PaymentRecord, error) {
	admin, err := requireAdmin(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}

	record, err := s.getGroupPayment(groupID, paymentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := record.Approve(admin.ID, now); err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.Update(record)
	if err != nil {
		return nil, err
	}

	if record.Category == domain.CategoryLoanInstallment && record.LoanID != nil {
		if err := s.creditLoanRepayment(groupID, *record.LoanID, record.AmountPaid, now); err != nil {
			log.Error().Err(err).
				Int32("loan_id", *record.LoanID).
				Int32("payment_id", paymentID).
				Msg("Failed to credit loan repayment")
			return nil, err
		}
	}

	s.notifyMember(groupID, record.MemberID, domain.NotificationPaymentApproved,
		"Your payment was approved")
	if s.events != nil {
		s.events.Publish(groupID, websocket.PaymentApproved(updated))
	}
	s.invalidateSummaries(groupID)
	return updated, nil
}

// RejectPayment declines a pending submission. Admin only. The member can
// attach a new proof, which returns the record to pending.
func (s *PaymentService) RejectPayment(groupID int32, callerUserID uuid.UUID, paymentID int32) (*domain.PaymentRecord, error) {
	admin, err := requireAdmin(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}

	record, err := s.getGroupPayment(groupID, paymentID)
	if err != nil {
		return nil, err
	}

	if err := record.Reject(admin.ID, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.Update(record)
	if err != nil {
		return nil, err
	}

	s.notifyMember(groupID, record.MemberID, domain.NotificationPaymentRejected,
		"Your payment was rejected. Please submit a new proof.")
	if s.events != nil {
		s.events.Publish(groupID, websocket.PaymentRejected(updated))
	}
	s.invalidateSummaries(groupID)
	return updated, nil
}

// ListGroupPayments retrieves payment records for a group, optionally
// filtered to one period
func (s *PaymentService) ListGroupPayments(groupID int32, callerUserID uuid.UUID, year, month int) ([]*domain.PaymentRecord, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	if year > 0 && month >= 1 && month <= 12 {
		return s.paymentRepo.GetByGroupAndPeriod(groupID, year, month)
	}
	return s.paymentRepo.GetAllByGroup(groupID)
}

// ListPendingPayments retrieves the group's review queue. Admin only.
func (s *PaymentService) ListPendingPayments(groupID int32, callerUserID uuid.UUID) ([]*domain.PaymentRecord, error) {
	if _, err := requireAdmin(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetPendingByGroup(groupID)
}

// ListMemberPayments retrieves one member's payment records
func (s *PaymentService) ListMemberPayments(groupID int32, callerUserID uuid.UUID, memberID int32) ([]*domain.PaymentRecord, error) {
	caller, err := requireMember(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}
	// Regular members can only see their own records
	if caller.ID != memberID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member.GroupID != groupID {
		return nil, domain.ErrMemberNotFound
	}
	return s.paymentRepo.GetByMember(memberID)
}

// GetPayment retrieves one payment record
func (s *PaymentService) GetPayment(groupID int32, callerUserID uuid.UUID, paymentID int32) (*domain.PaymentRecord, error) {
	caller, err := requireMember(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}
	record, err := s.getGroupPayment(groupID, paymentID)
	if err != nil {
		return nil, err
	}
	if record.MemberID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return record, nil
}

// ProofURL returns a short-lived view URL for a record's proof of payment
func (s *PaymentService) ProofURL(ctx context.Context, groupID int32, callerUserID uuid.UUID, paymentID int32) (string, error) {
	record, err := s.GetPayment(groupID, callerUserID, paymentID)
	if err != nil {
		return "", err
	}
	if record.ProofPath == nil {
		return "", domain.ErrNotFound
	}
	return s.proofs.ViewURL(ctx, *record.ProofPath)
}

func (s *PaymentService) getGroupPayment(groupID, paymentID int32) (*domain.PaymentRecord, error) {
	record, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if record.GroupID != groupID {
		return nil, domain.ErrPaymentNotFound
	}
	return record, nil
}

func (s *PaymentService) creditLoanRepayment(groupID, loanID int32, amount decimal.Decimal, now time.Time) error {
	loan, err := s.loanRepo.GetByID(groupID, loanID)
	if err != nil {
		return err
	}
	if err := loan.RecordRepayment(amount, now); err != nil {
		return err
	}
	if _, err := s.loanRepo.Update(loan); err != nil {
		return err
	}
	if loan.Status == domain.LoanStatusCompleted {
		s.notifyMemberOfLoan(groupID, loan.MemberID, "Your loan is fully repaid")
	}
	if s.events != nil {
		s.events.Publish(groupID, websocket.LoanRepaid(loan))
	}
	return nil
}

func (s *PaymentService) notifyMember(groupID, memberID int32, kind domain.NotificationKind, message string) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		log.Error().Err(err).Int32("member_id", memberID).Msg("Failed to resolve member for notification")
		return
	}
	s.notifications.Notify(groupID, member.UserID, kind, message)
}

func (s *PaymentService) notifyMemberOfLoan(groupID, memberID int32, message string) {
	s.notifyMember(groupID, memberID, domain.NotificationLoanApproved, message)
}

func (s *PaymentService) invalidateSummaries(groupID int32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(context.Background(), cache.Prefix("group", groupID)); err != nil {
		log.Warn().Err(err).Int32("group_id", groupID).Msg("Failed to invalidate summary cache")
	}
}
