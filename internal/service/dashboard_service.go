package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/repository/cache"
)

// DashboardService computes group and member financial summaries. Summaries
// are pure folds over the payment records; the service adds caching on top,
// keyed per group so any payment or loan mutation can drop the whole prefix.
type DashboardService struct {
	memberRepo  domain.MemberRepository
	paymentRepo domain.PaymentRepository
	loanRepo    domain.LoanRepository
	cache       cache.Cache

	now func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	memberRepo domain.MemberRepository,
	paymentRepo domain.PaymentRepository,
	loanRepo domain.LoanRepository,
	c cache.Cache,
) *DashboardService {
	return &DashboardService{
		memberRepo:  memberRepo,
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		cache:       c,
		now:         time.Now,
	}
}

// WithClock overrides the service clock (for tests)
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// GetGroupSummary returns the group's financial summary across all periods
func (s *DashboardService) GetGroupSummary(groupID int32, callerUserID uuid.UUID) (*domain.FinancialSummary, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}

	key := cache.Key("group", groupID, "summary", "all")
	if cached, ok := s.cacheGet(key); ok {
		return cached, nil
	}

	records, err := s.paymentRepo.GetAllByGroup(groupID)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(groupID, records)
	if err != nil {
		return nil, err
	}

	s.cacheSet(key, summary)
	return summary, nil
}

// GetPeriodSummary returns the group's financial summary for one period
func (s *DashboardService) GetPeriodSummary(groupID int32, callerUserID uuid.UUID, year, month int) (*domain.FinancialSummary, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, domain.ErrInvalidInput
	}

	key := cache.Key("group", groupID, "summary", fmt.Sprintf("%04d-%02d", year, month))
	if cached, ok := s.cacheGet(key); ok {
		return cached, nil
	}

	records, err := s.paymentRepo.GetByGroupAndPeriod(groupID, year, month)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(groupID, records)
	if err != nil {
		return nil, err
	}

	s.cacheSet(key, summary)
	return summary, nil
}

// GetArrearsReport returns the per-member overdue amounts for a group,
// largest debt first. Admin only: the report exposes other members' debts.
func (s *DashboardService) GetArrearsReport(groupID int32, callerUserID uuid.UUID) ([]domain.MemberArrears, error) {
	if _, err := requireAdmin(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}

	records, err := s.paymentRepo.GetAllByGroup(groupID)
	if err != nil {
		return nil, err
	}
	return domain.ArrearsByMember(records, s.now()), nil
}

// GetMemberSummary returns one member's rollup, including loan progress
func (s *DashboardService) GetMemberSummary(groupID int32, callerUserID uuid.UUID, memberID int32) (*domain.MemberSummary, error) {
	caller, err := requireMember(s.memberRepo, groupID, callerUserID)
	if err != nil {
		return nil, err
	}
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

	records, err := s.paymentRepo.GetByMember(memberID)
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.GetByMember(memberID)
	if err != nil {
		return nil, err
	}

	summary := domain.SummarizePayments(records, 1, s.now())

	result := &domain.MemberSummary{
		MemberID:     memberID,
		Summary:      summary,
		LoanProgress: make(map[int32]int),
	}
	for _, loan := range loans {
		if loan.Status == domain.LoanStatusActive {
			result.ActiveLoans++
		}
		if loan.Status == domain.LoanStatusActive || loan.Status == domain.LoanStatusCompleted {
			result.LoanProgress[loan.ID] = loan.PercentRepaid()
		}
	}
	return result, nil
}

func (s *DashboardService) summarize(groupID int32, records []*domain.PaymentRecord) (*domain.FinancialSummary, error) {
	totalMembers, err := s.memberRepo.CountActiveByGroup(groupID)
	if err != nil {
		return nil, err
	}
	return domain.SummarizePayments(records, totalMembers, s.now()), nil
}

func (s *DashboardService) cacheGet(key string) (*domain.FinancialSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.Get(context.Background(), key)
	if !ok {
		return nil, false
	}
	var summary domain.FinancialSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Dropping malformed cached summary")
		return nil, false
	}
	return &summary, true
}

func (s *DashboardService) cacheSet(key string, summary *domain.FinancialSummary) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(context.Background(), key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache summary")
	}
}
