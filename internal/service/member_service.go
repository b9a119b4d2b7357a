package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/websocket"
)

// MemberService handles group membership business logic
type MemberService struct {
	groupRepo     domain.GroupRepository
	memberRepo    domain.MemberRepository
	userRepo      domain.UserRepository
	paymentRepo   domain.PaymentRepository
	notifications *NotificationService
	events        websocket.EventPublisher
}

// NewMemberService creates a new MemberService
func NewMemberService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	userRepo domain.UserRepository,
	paymentRepo domain.PaymentRepository,
	notifications *NotificationService,
	events websocket.EventPublisher,
) *MemberService {
	return &MemberService{
		groupRepo:     groupRepo,
		memberRepo:    memberRepo,
		userRepo:      userRepo,
		paymentRepo:   paymentRepo,
		notifications: notifications,
		events:        events,
	}
}

// AddMember adds a registered user to the group by email. Admin only.
// Joining creates the member's seed money obligation when the group collects
// one; seed money carries no due date, so it never counts toward arrears.
func (s *MemberService) AddMember(groupID int32, callerUserID uuid.UUID, email string, role domain.MemberRole) (*domain.Member, error) {
	if _, err := requireAdmin(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}

	if role != domain.RoleAdmin {
		role = domain.RoleMember
	}

	member, err := s.memberRepo.Create(&domain.Member{
		GroupID:  groupID,
		UserID:   user.ID,
		Role:     role,
		Active:   true,
		JoinedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	member.User = user

	if group.SeedMoneyAmount.IsPositive() {
		now := time.Now()
		_, err = s.paymentRepo.Create(&domain.PaymentRecord{
			GroupID:        groupID,
			MemberID:       member.ID,
			Category:       domain.CategorySeedMoney,
			PeriodYear:     int32(now.Year()),
			PeriodMonth:    int32(now.Month()),
			TotalAmount:    group.SeedMoneyAmount,
			AmountPaid:     decimal.Zero,
			ApprovalStatus: domain.StatusUnpaid,
		})
		if err != nil {
			log.Error().Err(err).
				Int32("group_id", groupID).
				Int32("member_id", member.ID).
				Msg("Failed to create seed money record")
			return nil, err
		}
	}

	s.notifications.Notify(groupID, user.ID, domain.NotificationPaymentDue,
		fmt.Sprintf("You have been added to %s", group.Name))

	if s.events != nil {
		s.events.Publish(groupID, websocket.NewEvent(websocket.EventTypeCreated, websocket.EntityTypeMember, member))
	}

	log.Info().
		Int32("group_id", groupID).
		Int32("member_id", member.ID).
		Str("role", string(member.Role)).
		Msg("Member added to group")
	return member, nil
}

// ListMembers retrieves all members of the group. Any active member may list.
func (s *MemberService) ListMembers(groupID int32, callerUserID uuid.UUID) ([]*domain.Member, error) {
	if _, err := requireMember(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}
	return s.memberRepo.GetAllByGroup(groupID)
}

// GetMember retrieves one member of the group
func (s *MemberService) GetMember(groupID int32, callerUserID uuid.UUID, memberID int32) (*domain.Member, error) {
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
	return member, nil
}

// ChangeRole promotes or demotes a member. Admin only. The last active admin
// cannot be demoted.
func (s *MemberService) ChangeRole(groupID int32, callerUserID uuid.UUID, memberID int32, role domain.MemberRole) (*domain.Member, error) {
	if _, err := requireAdmin(s.memberRepo, groupID, callerUserID); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member.GroupID != groupID {
		return nil, domain.ErrMemberNotFound
	}

	if member.IsAdmin() && role != domain.RoleAdmin {
		admins, err := s.countActiveAdmins(groupID)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, domain.ErrLastAdmin
		}
	}

	member.Role = role
	return s.memberRepo.Update(member)
}

// DeactivateMember marks a member inactive. Admin only. Inactive members keep
// their payment history but stop accruing new obligations. The last active
// admin cannot be deactivated.
func (s *MemberService) DeactivateMember(groupID int32, callerUserID uuid.UUID, memberID int32) error {
	if _, err := requireAdmin(s.memberRepo, groupID, callerUserID); err != nil {
		return err
	}

	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return err
	}
	if member.GroupID != groupID {
		return domain.ErrMemberNotFound
	}

	if member.IsAdmin() {
		admins, err := s.countActiveAdmins(groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return domain.ErrLastAdmin
		}
	}

	return s.memberRepo.Deactivate(groupID, memberID)
}

func (s *MemberService) countActiveAdmins(groupID int32) (int, error) {
	members, err := s.memberRepo.GetAllByGroup(groupID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range members {
		if m.Active && m.IsAdmin() {
			count++
		}
	}
	return count, nil
}
