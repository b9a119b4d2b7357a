package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanPrincipalInvalid = errors.New("loan principal must be positive")
	ErrLoanMonthsInvalid    = errors.New("repayment period must be at least 1 month")
	ErrLoanMonthsTooLong    = errors.New("repayment period exceeds the group maximum")
	ErrLoanNotPending       = errors.New("loan is not pending review")
	ErrLoanNotActive        = errors.New("loan is not active")
	ErrLoanOutstanding      = errors.New("member already has an outstanding loan")
	ErrLoanRepaymentInvalid = errors.New("repayment amount must be positive")
)

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
)

// LoanTerms is the immutable value describing a loan proposal: principal,
// the group's interest tier snapshot at request time, and the repayment
// period. The derived schedule is computed once from these terms and
// persisted verbatim as the authoritative schedule for the loan.
type LoanTerms struct {
	Principal decimal.Decimal `json:"principal"`
	Tiers     InterestTiers   `json:"tiers"`
	Months    int32           `json:"months"`
}

// Validate checks the terms preconditions. The calculator refuses degenerate
// input rather than returning an empty schedule.
func (t LoanTerms) Validate() error {
	if t.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrLoanPrincipalInvalid
	}
	if t.Months < 1 {
		return ErrLoanMonthsInvalid
	}
	return t.Tiers.Validate()
}

// RepaymentScheduleEntry is one row of the amortization table
type RepaymentScheduleEntry struct {
	Month            int32           `json:"month"` // 1-based installment index
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	TotalPayment     decimal.Decimal `json:"totalPayment"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// RepaymentSchedule is the full amortization result for a set of loan terms
type RepaymentSchedule struct {
	Entries        []RepaymentScheduleEntry `json:"entries"`
	TotalInterest  decimal.Decimal          `json:"totalInterest"`
	TotalRepayable decimal.Decimal          `json:"totalRepayable"`
}

// Schedule computes the reducing-balance repayment schedule for the terms.
// Interest each month is charged on the balance remaining after prior
// principal repayments, at the tier rate for that month. The principal is
// split evenly across installments, except the final month, which repays the
// remaining balance exactly so the schedule reconciles to the principal.
// Every monetary value is rounded to 2 decimal places at each step; persisted
// schedules depend on this exact rounding behavior.
func (t LoanTerms) Schedule() (*RepaymentSchedule, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	months := int(t.Months)
	hundred := decimal.NewFromInt(100)
	evenPrincipal := t.Principal.Div(decimal.NewFromInt(int64(months))).Round(2)

	entries := make([]RepaymentScheduleEntry, 0, months)
	remaining := t.Principal
	totalInterest := decimal.Zero

	for month := 1; month <= months; month++ {
		rate := t.Tiers.RateFor(month)
		interest := remaining.Mul(rate).Div(hundred).Round(2)

		principal := evenPrincipal
		if month == months {
			// Final installment absorbs rounding drift
			principal = remaining
		}

		total := principal.Add(interest).Round(2)

		remaining = remaining.Sub(principal).Round(2)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		entries = append(entries, RepaymentScheduleEntry{
			Month:            int32(month),
			PrincipalPortion: principal,
			InterestPortion:  interest,
			TotalPayment:     total,
			RemainingBalance: remaining,
		})
		totalInterest = totalInterest.Add(interest)
	}

	totalInterest = totalInterest.Round(2)

	return &RepaymentSchedule{
		Entries:        entries,
		TotalInterest:  totalInterest,
		TotalRepayable: t.Principal.Add(totalInterest),
	}, nil
}

// PercentRepaid classifies repayment progress as a whole percentage:
// 0 when nothing has been repaid, 100 once the principal is covered,
// otherwise the rounded ratio.
func PercentRepaid(amountRepaid, principal decimal.Decimal) int {
	if amountRepaid.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	if amountRepaid.GreaterThanOrEqual(principal) {
		return 100
	}
	pct := amountRepaid.Div(principal).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// Loan is a loan record for a member of a group. Terms and the derived
// schedule are locked in at request time.
type Loan struct {
	ID             int32           `json:"id"`
	GroupID        int32           `json:"groupId"`
	MemberID       int32           `json:"memberId"`
	Terms          LoanTerms       `json:"terms"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`
	TotalRepayable decimal.Decimal `json:"totalRepayable"`
	AmountRepaid   decimal.Decimal `json:"amountRepaid"`
	Purpose        *string         `json:"purpose,omitempty"`
	Status         LoanStatus      `json:"status"`
	DecidedBy      *int32          `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time      `json:"decidedAt,omitempty"`
	DisbursedAt    *time.Time      `json:"disbursedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// Joined data
	Schedule []RepaymentScheduleEntry `json:"schedule,omitempty"`
}

// PercentRepaid returns the loan's repayment progress against its principal
func (l *Loan) PercentRepaid() int {
	return PercentRepaid(l.AmountRepaid, l.Terms.Principal)
}

// Approve marks a pending loan as approved and active for disbursement
func (l *Loan) Approve(adminMemberID int32, now time.Time) error {
	if l.Status != LoanStatusPending {
		return ErrLoanNotPending
	}
	l.Status = LoanStatusActive
	l.DecidedBy = &adminMemberID
	l.DecidedAt = &now
	l.DisbursedAt = &now
	l.UpdatedAt = now
	return nil
}

// Reject marks a pending loan as rejected
func (l *Loan) Reject(adminMemberID int32, now time.Time) error {
	if l.Status != LoanStatusPending {
		return ErrLoanNotPending
	}
	l.Status = LoanStatusRejected
	l.DecidedBy = &adminMemberID
	l.DecidedAt = &now
	l.UpdatedAt = now
	return nil
}

// RecordRepayment adds a repayment amount and completes the loan once the
// total repayable is covered
func (l *Loan) RecordRepayment(amount decimal.Decimal, now time.Time) error {
	if l.Status != LoanStatusActive {
		return ErrLoanNotActive
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanRepaymentInvalid
	}
	l.AmountRepaid = l.AmountRepaid.Add(amount)
	if l.AmountRepaid.GreaterThanOrEqual(l.TotalRepayable) {
		l.Status = LoanStatusCompleted
	}
	l.UpdatedAt = now
	return nil
}

// LoanRepository defines the interface for loan persistence operations
type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	CreateTx(tx interface{}, loan *Loan) (*Loan, error)
	GetByID(groupID int32, id int32) (*Loan, error)
	GetAllByGroup(groupID int32) ([]*Loan, error)
	GetByMember(memberID int32) ([]*Loan, error)
	Update(loan *Loan) (*Loan, error)
	UpdateTx(tx interface{}, loan *Loan) (*Loan, error)
	SaveScheduleTx(tx interface{}, loanID int32, entries []RepaymentScheduleEntry) error
	GetSchedule(loanID int32) ([]RepaymentScheduleEntry, error)
}
