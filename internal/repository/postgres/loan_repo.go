package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vikoba/vikoba-backend/internal/domain"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `
	id, group_id, member_id,
	principal::text, rate_month1::text, rate_month2::text, rate_month3::text, months,
	total_interest::text, total_repayable::text, amount_repaid::text,
	purpose, status, decided_by, decided_at, disbursed_at, created_at, updated_at`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		l                               domain.Loan
		principal                       string
		rate1, rate2, rate3             *string
		interest, repayable, repaid     string
		status                          string
	)
	err := row.Scan(&l.ID, &l.GroupID, &l.MemberID, &principal,
		&rate1, &rate2, &rate3, &l.Terms.Months,
		&interest, &repayable, &repaid,
		&l.Purpose, &status, &l.DecidedBy, &l.DecidedAt, &l.DisbursedAt,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	l.Status = domain.LoanStatus(status)
	if l.Terms.Principal, err = scanDecimal(principal); err != nil {
		return nil, err
	}
	if l.Terms.Tiers.Month1, err = scanNullDecimal(rate1); err != nil {
		return nil, err
	}
	if l.Terms.Tiers.Month2, err = scanNullDecimal(rate2); err != nil {
		return nil, err
	}
	if l.Terms.Tiers.Month3, err = scanNullDecimal(rate3); err != nil {
		return nil, err
	}
	if l.TotalInterest, err = scanDecimal(interest); err != nil {
		return nil, err
	}
	if l.TotalRepayable, err = scanDecimal(repayable); err != nil {
		return nil, err
	}
	if l.AmountRepaid, err = scanDecimal(repaid); err != nil {
		return nil, err
	}
	return &l, nil
}

const insertLoanSQL = `
	INSERT INTO loans (
		group_id, member_id, principal, rate_month1, rate_month2, rate_month3,
		months, total_interest, total_repayable, amount_repaid, purpose, status
	) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7,
		$8::numeric, $9::numeric, $10::numeric, $11, $12)
	RETURNING ` + loanColumns

func loanInsertArgs(loan *domain.Loan) []interface{} {
	return []interface{}{
		loan.GroupID, loan.MemberID, loan.Terms.Principal.String(),
		nullDecimalArg(loan.Terms.Tiers.Month1),
		nullDecimalArg(loan.Terms.Tiers.Month2),
		nullDecimalArg(loan.Terms.Tiers.Month3),
		loan.Terms.Months,
		loan.TotalInterest.String(), loan.TotalRepayable.String(),
		loan.AmountRepaid.String(), loan.Purpose, string(loan.Status),
	}
}

// Create creates a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, insertLoanSQL, loanInsertArgs(loan)...)
	return scanLoan(row)
}

// CreateTx creates a new loan within a transaction
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errors.New("invalid transaction type")
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, insertLoanSQL, loanInsertArgs(loan)...)
	return scanLoan(row)
}

// GetByID retrieves a loan by ID within a group
func (r *LoanRepository) GetByID(groupID int32, id int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 AND group_id = $2`, id, groupID)
	return scanLoan(row)
}

// GetAllByGroup retrieves all loans for a group
func (r *LoanRepository) GetAllByGroup(groupID int32) ([]*domain.Loan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE group_id = $1 ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, err
	}
	return collectLoans(rows)
}

// GetByMember retrieves all loans for a member
func (r *LoanRepository) GetByMember(memberID int32) ([]*domain.Loan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE member_id = $1 ORDER BY created_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	return collectLoans(rows)
}

func collectLoans(rows pgx.Rows) ([]*domain.Loan, error) {
	defer rows.Close()
	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

const updateLoanSQL = `
	UPDATE loans SET
		amount_repaid = $2::numeric, status = $3,
		decided_by = $4, decided_at = $5, disbursed_at = $6, updated_at = now()
	WHERE id = $1
	RETURNING ` + loanColumns

func loanUpdateArgs(loan *domain.Loan) []interface{} {
	return []interface{}{
		loan.ID, loan.AmountRepaid.String(), string(loan.Status),
		loan.DecidedBy, loan.DecidedAt, loan.DisbursedAt,
	}
}

// Update persists loan status and repayment state
func (r *LoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, updateLoanSQL, loanUpdateArgs(loan)...)
	return scanLoan(row)
}

// UpdateTx persists loan status and repayment state within a transaction
func (r *LoanRepository) UpdateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errors.New("invalid transaction type")
	}
	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, updateLoanSQL, loanUpdateArgs(loan)...)
	return scanLoan(row)
}

// SaveScheduleTx persists the amortization schedule rows within a transaction.
// The schedule is written once at loan creation and never recomputed.
func (r *LoanRepository) SaveScheduleTx(tx interface{}, loanID int32, entries []domain.RepaymentScheduleEntry) error {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return errors.New("invalid transaction type")
	}

	ctx := context.Background()
	for _, entry := range entries {
		_, err := pgxTx.Exec(ctx, `
			INSERT INTO loan_schedule (
				loan_id, month, principal_portion, interest_portion, total_payment, remaining_balance
			) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric)`,
			loanID, entry.Month,
			entry.PrincipalPortion.String(), entry.InterestPortion.String(),
			entry.TotalPayment.String(), entry.RemainingBalance.String())
		if err != nil {
			return err
		}
	}
	return nil
}

// GetSchedule retrieves the persisted schedule for a loan
func (r *LoanRepository) GetSchedule(loanID int32) ([]domain.RepaymentScheduleEntry, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT month, principal_portion::text, interest_portion::text,
		       total_payment::text, remaining_balance::text
		FROM loan_schedule WHERE loan_id = $1 ORDER BY month`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.RepaymentScheduleEntry
	for rows.Next() {
		var entry domain.RepaymentScheduleEntry
		var principal, interest, total, remaining string
		if err := rows.Scan(&entry.Month, &principal, &interest, &total, &remaining); err != nil {
			return nil, err
		}
		if entry.PrincipalPortion, err = scanDecimal(principal); err != nil {
			return nil, err
		}
		if entry.InterestPortion, err = scanDecimal(interest); err != nil {
			return nil, err
		}
		if entry.TotalPayment, err = scanDecimal(total); err != nil {
			return nil, err
		}
		if entry.RemainingBalance, err = scanDecimal(remaining); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
