package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vikoba/vikoba-backend/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `
	id, group_id, member_id, loan_id, category, period_year, period_month,
	total_amount::text, amount_paid::text, due_date, approval_status,
	proof_path, decided_by, decided_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.PaymentRecord, error) {
	var (
		p              domain.PaymentRecord
		category       string
		status         string
		total, paid    string
	)
	err := row.Scan(&p.ID, &p.GroupID, &p.MemberID, &p.LoanID, &category,
		&p.PeriodYear, &p.PeriodMonth, &total, &paid, &p.DueDate, &status,
		&p.ProofPath, &p.DecidedBy, &p.DecidedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	p.Category = domain.PaymentCategory(category)
	p.ApprovalStatus = domain.ApprovalStatus(status)
	if p.TotalAmount, err = scanDecimal(total); err != nil {
		return nil, err
	}
	if p.AmountPaid, err = scanDecimal(paid); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*domain.PaymentRecord, error) {
	defer rows.Close()
	var payments []*domain.PaymentRecord
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

const insertPaymentSQL = `
	INSERT INTO payments (
		group_id, member_id, loan_id, category, period_year, period_month,
		total_amount, amount_paid, due_date, approval_status
	) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10)
	RETURNING ` + paymentColumns

// Create creates a single payment record
func (r *PaymentRepository) Create(payment *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, insertPaymentSQL,
		payment.GroupID, payment.MemberID, payment.LoanID, string(payment.Category),
		payment.PeriodYear, payment.PeriodMonth,
		payment.TotalAmount.String(), payment.AmountPaid.String(),
		payment.DueDate, string(payment.ApprovalStatus))
	return scanPayment(row)
}

// CreateBatchTx creates multiple payment records within a transaction
func (r *PaymentRepository) CreateBatchTx(tx interface{}, payments []*domain.PaymentRecord) error {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return errors.New("invalid transaction type")
	}

	ctx := context.Background()
	for _, payment := range payments {
		_, err := pgxTx.Exec(ctx, `
			INSERT INTO payments (
				group_id, member_id, loan_id, category, period_year, period_month,
				total_amount, amount_paid, due_date, approval_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10)`,
			payment.GroupID, payment.MemberID, payment.LoanID, string(payment.Category),
			payment.PeriodYear, payment.PeriodMonth,
			payment.TotalAmount.String(), payment.AmountPaid.String(),
			payment.DueDate, string(payment.ApprovalStatus))
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a payment record by ID
func (r *PaymentRepository) GetByID(id int32) (*domain.PaymentRecord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// GetAllByGroup retrieves all payment records for a group
func (r *PaymentRepository) GetAllByGroup(groupID int32) ([]*domain.PaymentRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE group_id = $1 ORDER BY period_year, period_month, id`,
		groupID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// GetByGroupAndPeriod retrieves a group's payment records for one period
func (r *PaymentRepository) GetByGroupAndPeriod(groupID int32, year, month int) ([]*domain.PaymentRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE group_id = $1 AND period_year = $2 AND period_month = $3 ORDER BY id`,
		groupID, year, month)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// GetByMember retrieves all payment records for a member
func (r *PaymentRepository) GetByMember(memberID int32) ([]*domain.PaymentRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE member_id = $1 ORDER BY period_year, period_month, id`,
		memberID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// GetByLoan retrieves the installment records for a loan
func (r *PaymentRepository) GetByLoan(loanID int32) ([]*domain.PaymentRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1 ORDER BY period_year, period_month, id`,
		loanID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// GetPendingByGroup retrieves records awaiting admin review
func (r *PaymentRepository) GetPendingByGroup(groupID int32) ([]*domain.PaymentRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE group_id = $1 AND approval_status = 'pending' ORDER BY updated_at`,
		groupID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// Update persists submission and decision state for a payment record
func (r *PaymentRepository) Update(payment *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE payments SET
			amount_paid = $2::numeric, due_date = $3, approval_status = $4,
			proof_path = $5, decided_by = $6, decided_at = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+paymentColumns,
		payment.ID, payment.AmountPaid.String(), payment.DueDate,
		string(payment.ApprovalStatus), payment.ProofPath, payment.DecidedBy, payment.DecidedAt)
	return scanPayment(row)
}
