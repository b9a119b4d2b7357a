package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vikoba/vikoba-backend/internal/domain"
)

// GroupRepository implements domain.GroupRepository using PostgreSQL
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

const groupColumns = `
	id, name, currency,
	seed_money_amount::text, monthly_contribution::text, service_fee_amount::text,
	contribution_due_day,
	rate_month1::text, rate_month2::text, rate_month3::text,
	max_loan_months, created_at, updated_at`

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var (
		g                          domain.Group
		seed, contribution, fee    string
		rate1, rate2, rate3        *string
	)
	err := row.Scan(&g.ID, &g.Name, &g.Currency, &seed, &contribution, &fee,
		&g.ContributionDueDay, &rate1, &rate2, &rate3, &g.MaxLoanMonths,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}

	if g.SeedMoneyAmount, err = scanDecimal(seed); err != nil {
		return nil, err
	}
	if g.MonthlyContribution, err = scanDecimal(contribution); err != nil {
		return nil, err
	}
	if g.ServiceFeeAmount, err = scanDecimal(fee); err != nil {
		return nil, err
	}
	if g.InterestTiers.Month1, err = scanNullDecimal(rate1); err != nil {
		return nil, err
	}
	if g.InterestTiers.Month2, err = scanNullDecimal(rate2); err != nil {
		return nil, err
	}
	if g.InterestTiers.Month3, err = scanNullDecimal(rate3); err != nil {
		return nil, err
	}

	return &g, nil
}

// Create creates a new group
func (r *GroupRepository) Create(group *domain.Group) (*domain.Group, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO groups (
			name, currency, seed_money_amount, monthly_contribution,
			service_fee_amount, contribution_due_day,
			rate_month1, rate_month2, rate_month3, max_loan_months
		) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7::numeric, $8::numeric, $9::numeric, $10)
		RETURNING `+groupColumns,
		group.Name, group.Currency,
		group.SeedMoneyAmount.String(), group.MonthlyContribution.String(),
		group.ServiceFeeAmount.String(), group.ContributionDueDay,
		nullDecimalArg(group.InterestTiers.Month1),
		nullDecimalArg(group.InterestTiers.Month2),
		nullDecimalArg(group.InterestTiers.Month3),
		group.MaxLoanMonths)
	return scanGroup(row)
}

// GetByID retrieves a group by its ID
func (r *GroupRepository) GetByID(id int32) (*domain.Group, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id)
	return scanGroup(row)
}

// GetByMemberUserID retrieves all groups a user belongs to
func (r *GroupRepository) GetByMemberUserID(userID string) ([]*domain.Group, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+groupColumns+` FROM groups g
		JOIN members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND m.active
		ORDER BY g.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// Update updates a group's settings
func (r *GroupRepository) Update(group *domain.Group) (*domain.Group, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE groups SET
			name = $2, currency = $3,
			seed_money_amount = $4::numeric, monthly_contribution = $5::numeric,
			service_fee_amount = $6::numeric, contribution_due_day = $7,
			rate_month1 = $8::numeric, rate_month2 = $9::numeric, rate_month3 = $10::numeric,
			max_loan_months = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+groupColumns,
		group.ID, group.Name, group.Currency,
		group.SeedMoneyAmount.String(), group.MonthlyContribution.String(),
		group.ServiceFeeAmount.String(), group.ContributionDueDay,
		nullDecimalArg(group.InterestTiers.Month1),
		nullDecimalArg(group.InterestTiers.Month2),
		nullDecimalArg(group.InterestTiers.Month3),
		group.MaxLoanMonths)
	return scanGroup(row)
}

// Delete removes a group
func (r *GroupRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}
