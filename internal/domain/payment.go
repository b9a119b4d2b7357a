package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrPaymentAmountInvalid   = errors.New("payment amount must be positive")
	ErrPaymentNotPending      = errors.New("payment is not pending review")
	ErrPaymentAlreadyApproved = errors.New("payment is already approved")
	ErrPaymentProofRequired   = errors.New("proof of payment is required")
)

// PaymentCategory identifies what a payment record is for
type PaymentCategory string

const (
	CategorySeedMoney           PaymentCategory = "seed_money"
	CategoryMonthlyContribution PaymentCategory = "monthly_contribution"
	CategoryServiceFee          PaymentCategory = "service_fee"
	CategoryLoanInstallment     PaymentCategory = "loan_installment"
)

// ApprovalStatus is the admin-review state of a payment record.
// Lifecycle: unpaid → pending (member submits proof) → approved | rejected
// (admin decision). A rejected record returns to pending when a new proof is
// attached; approved is terminal.
type ApprovalStatus string

const (
	StatusUnpaid   ApprovalStatus = "unpaid"
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// PaymentState classifies how much of a record has been paid
type PaymentState string

const (
	PaymentStateUnpaid  PaymentState = "unpaid"
	PaymentStatePartial PaymentState = "partial"
	PaymentStatePaid    PaymentState = "paid"
)

// PaymentRecord is a single due amount for one member in one period.
// Records are never deleted; submissions and admin decisions mutate them in
// place and the full history lives in the proof/decision columns.
type PaymentRecord struct {
	ID             int32           `json:"id"`
	GroupID        int32           `json:"groupId"`
	MemberID       int32           `json:"memberId"`
	LoanID         *int32          `json:"loanId,omitempty"` // set for loan installments
	Category       PaymentCategory `json:"category"`
	PeriodYear     int32           `json:"periodYear"`
	PeriodMonth    int32           `json:"periodMonth"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	ApprovalStatus ApprovalStatus  `json:"approvalStatus"`
	ProofPath      *string         `json:"proofPath,omitempty"`
	DecidedBy      *int32          `json:"decidedBy,omitempty"` // member ID of the deciding admin
	DecidedAt      *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Outstanding returns the unpaid portion, clamped at zero. Overpaid or
// malformed records (amountPaid > totalAmount, negative amounts) never
// produce a negative balance.
func (p *PaymentRecord) Outstanding() decimal.Decimal {
	outstanding := p.TotalAmount.Sub(p.AmountPaid)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// ArrearsAt returns the portion of the outstanding balance that is overdue at
// the supplied instant. A record with no due date, or whose due date has not
// strictly passed, contributes zero: an amount not yet due is not in arrears.
func (p *PaymentRecord) ArrearsAt(now time.Time) decimal.Decimal {
	if p.DueDate == nil || !now.After(*p.DueDate) {
		return decimal.Zero
	}
	return p.Outstanding()
}

// State classifies the record as unpaid, partial, or paid based on amounts
// alone, independent of approval status.
func (p *PaymentRecord) State() PaymentState {
	if p.AmountPaid.LessThanOrEqual(decimal.Zero) {
		return PaymentStateUnpaid
	}
	if p.AmountPaid.GreaterThanOrEqual(p.TotalAmount) {
		return PaymentStatePaid
	}
	return PaymentStatePartial
}

// SubmitProof records a member's proof of payment and moves the record to
// pending review. Allowed from unpaid, rejected (resubmission), and pending
// (replacing an unreviewed proof).
func (p *PaymentRecord) SubmitProof(amount decimal.Decimal, proofPath string, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if proofPath == "" {
		return ErrPaymentProofRequired
	}
	if p.ApprovalStatus == StatusApproved && p.Outstanding().IsZero() {
		return ErrPaymentAlreadyApproved
	}
	p.AmountPaid = amount
	p.ProofPath = &proofPath
	p.ApprovalStatus = StatusPending
	p.DecidedBy = nil
	p.DecidedAt = nil
	p.UpdatedAt = now
	return nil
}

// Approve marks a pending submission as accepted by an admin
func (p *PaymentRecord) Approve(adminMemberID int32, now time.Time) error {
	if p.ApprovalStatus != StatusPending {
		return ErrPaymentNotPending
	}
	p.ApprovalStatus = StatusApproved
	p.DecidedBy = &adminMemberID
	p.DecidedAt = &now
	p.UpdatedAt = now
	return nil
}

// Reject marks a pending submission as rejected by an admin
func (p *PaymentRecord) Reject(adminMemberID int32, now time.Time) error {
	if p.ApprovalStatus != StatusPending {
		return ErrPaymentNotPending
	}
	p.ApprovalStatus = StatusRejected
	p.DecidedBy = &adminMemberID
	p.DecidedAt = &now
	p.UpdatedAt = now
	return nil
}

// PaymentRepository defines the interface for payment persistence operations
type PaymentRepository interface {
	Create(payment *PaymentRecord) (*PaymentRecord, error)
	CreateBatchTx(tx interface{}, payments []*PaymentRecord) error
	GetByID(id int32) (*PaymentRecord, error)
	GetAllByGroup(groupID int32) ([]*PaymentRecord, error)
	GetByGroupAndPeriod(groupID int32, year, month int) ([]*PaymentRecord, error)
	GetByMember(memberID int32) ([]*PaymentRecord, error)
	GetByLoan(loanID int32) ([]*PaymentRecord, error)
	GetPendingByGroup(groupID int32) ([]*PaymentRecord, error)
	Update(payment *PaymentRecord) (*PaymentRecord, error)
}
