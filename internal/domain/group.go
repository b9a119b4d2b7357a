package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrGroupNameEmpty          = errors.New("group name is required")
	ErrGroupNameTooLong        = errors.New("group name must be 255 characters or less")
	ErrGroupSeedAmountInvalid  = errors.New("seed money amount must not be negative")
	ErrGroupContributionInvalid = errors.New("monthly contribution amount must not be negative")
	ErrGroupServiceFeeInvalid  = errors.New("service fee amount must not be negative")
	ErrGroupDueDayInvalid      = errors.New("contribution due day must be between 1 and 28")
	ErrGroupRateInvalid        = errors.New("interest rates must be between 0 and 100")
	ErrGroupMaxLoanMonthsInvalid = errors.New("max loan months must be at least 1")
)

// InterestTiers holds the per-month loan interest rates for a group.
// Each tier is a monthly percentage in [0,100]. Unset tiers fall back to the
// previous tier, so a group configured with only a month-1 rate charges that
// rate for the whole term, and a fully unset schedule charges 0.
type InterestTiers struct {
	Month1 *decimal.Decimal `json:"month1,omitempty"`
	Month2 *decimal.Decimal `json:"month2,omitempty"`
	Month3 *decimal.Decimal `json:"month3,omitempty"` // applies to month 3 and beyond
}

// RateFor returns the monthly rate applicable to a 1-based installment month,
// applying the tier fallback chain.
func (t InterestTiers) RateFor(month int) decimal.Decimal {
	m1 := decimal.Zero
	if t.Month1 != nil {
		m1 = *t.Month1
	}
	m2 := m1
	if t.Month2 != nil {
		m2 = *t.Month2
	}
	m3 := m2
	if t.Month3 != nil {
		m3 = *t.Month3
	}

	switch {
	case month <= 1:
		return m1
	case month == 2:
		return m2
	default:
		return m3
	}
}

// Validate checks that all configured tiers are valid percentages
func (t InterestTiers) Validate() error {
	hundred := decimal.NewFromInt(100)
	for _, rate := range []*decimal.Decimal{t.Month1, t.Month2, t.Month3} {
		if rate == nil {
			continue
		}
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return ErrGroupRateInvalid
		}
	}
	return nil
}

// Group represents a village bank group. It is the tenancy unit: members,
// payments, and loans all belong to exactly one group.
type Group struct {
	ID                  int32           `json:"id"`
	Name                string          `json:"name"`
	Currency            string          `json:"currency"`
	SeedMoneyAmount     decimal.Decimal `json:"seedMoneyAmount"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	ServiceFeeAmount    decimal.Decimal `json:"serviceFeeAmount"`
	ContributionDueDay  int32           `json:"contributionDueDay"` // day of month payments fall due
	InterestTiers       InterestTiers   `json:"interestTiers"`
	MaxLoanMonths       int32           `json:"maxLoanMonths"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

func (g *Group) Validate() error {
	if g.Name == "" {
		return ErrGroupNameEmpty
	}
	if len(g.Name) > MaxGroupNameLength {
		return ErrGroupNameTooLong
	}
	if g.SeedMoneyAmount.IsNegative() {
		return ErrGroupSeedAmountInvalid
	}
	if g.MonthlyContribution.IsNegative() {
		return ErrGroupContributionInvalid
	}
	if g.ServiceFeeAmount.IsNegative() {
		return ErrGroupServiceFeeInvalid
	}
	if g.ContributionDueDay < 1 || g.ContributionDueDay > 28 {
		return ErrGroupDueDayInvalid
	}
	if g.MaxLoanMonths < 1 {
		return ErrGroupMaxLoanMonthsInvalid
	}
	return g.InterestTiers.Validate()
}

// ContributionDueDate returns the due date for a given contribution period
func (g *Group) ContributionDueDate(year int, month time.Month) time.Time {
	return time.Date(year, month, int(g.ContributionDueDay), 23, 59, 59, 0, time.UTC)
}

// GroupRepository defines the interface for group persistence operations
type GroupRepository interface {
	Create(group *Group) (*Group, error)
	GetByID(id int32) (*Group, error)
	GetByMemberUserID(userID string) ([]*Group, error)
	Update(group *Group) (*Group, error)
	Delete(id int32) error
}
