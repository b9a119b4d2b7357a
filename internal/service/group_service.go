package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vikoba/vikoba-backend/internal/domain"
)

// GroupService handles group business logic
type GroupService struct {
	groupRepo  domain.GroupRepository
	memberRepo domain.MemberRepository
	userRepo   domain.UserRepository
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo domain.GroupRepository, memberRepo domain.MemberRepository, userRepo domain.UserRepository) *GroupService {
	return &GroupService{
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
	}
}

// requireMember returns the caller's active membership in the group
func requireMember(memberRepo domain.MemberRepository, groupID int32, userID uuid.UUID) (*domain.Member, error) {
	member, err := memberRepo.GetByGroupAndUser(groupID, userID)
	if err != nil {
		if err == domain.ErrMemberNotFound {
			return nil, domain.ErrNotGroupMember
		}
		return nil, err
	}
	if !member.Active {
		return nil, domain.ErrNotGroupMember
	}
	return member, nil
}

// requireAdmin returns the caller's membership if they administer the group
func requireAdmin(memberRepo domain.MemberRepository, groupID int32, userID uuid.UUID) (*domain.Member, error) {
	member, err := requireMember(memberRepo, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsAdmin() {
		return nil, domain.ErrNotGroupAdmin
	}
	return member, nil
}

// CreateGroup creates a new group with the creator as its first admin member
func (s *GroupService) CreateGroup(creatorUserID uuid.UUID, group *domain.Group) (*domain.Group, error) {
	group.Name = strings.TrimSpace(group.Name)
	if group.Currency == "" {
		group.Currency = "TZS"
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	created, err := s.groupRepo.Create(group)
	if err != nil {
		return nil, err
	}

	_, err = s.memberRepo.Create(&domain.Member{
		GroupID:  created.ID,
		UserID:   creatorUserID,
		Role:     domain.RoleAdmin,
		Active:   true,
		JoinedAt: time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Int32("group_id", created.ID).Msg("Failed to create founding admin member")
		return nil, err
	}

	log.Info().Int32("group_id", created.ID).Str("name", created.Name).Msg("Group created")
	return created, nil
}

// GetGroup retrieves a group, verifying the caller belongs to it
func (s *GroupService) GetGroup(groupID int32, userID uuid.UUID) (*domain.Group, error) {
	if _, err := requireMember(s.memberRepo, groupID, userID); err != nil {
		return nil, err
	}
	return s.groupRepo.GetByID(groupID)
}

// ListGroupsForUser retrieves all groups the user is an active member of
func (s *GroupService) ListGroupsForUser(userID uuid.UUID) ([]*domain.Group, error) {
	return s.groupRepo.GetByMemberUserID(userID.String())
}

// UpdateGroup updates group settings. Admin only. Changes to interest tiers
// affect future loans only; existing loans keep the terms snapshot captured
// at request time.
func (s *GroupService) UpdateGroup(groupID int32, userID uuid.UUID, group *domain.Group) (*domain.Group, error) {
	if _, err := requireAdmin(s.memberRepo, groupID, userID); err != nil {
		return nil, err
	}

	existing, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	group.ID = existing.ID
	group.Name = strings.TrimSpace(group.Name)
	if group.Currency == "" {
		group.Currency = existing.Currency
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	return s.groupRepo.Update(group)
}

// DeleteGroup removes a group and all of its data. Admin only.
func (s *GroupService) DeleteGroup(groupID int32, userID uuid.UUID) error {
	if _, err := requireAdmin(s.memberRepo, groupID, userID); err != nil {
		return err
	}
	log.Warn().Int32("group_id", groupID).Msg("Deleting group")
	return s.groupRepo.Delete(groupID)
}

// IsGroupMember reports whether the Auth0 subject is an active member of the
// group. Used by the WebSocket validator.
func (s *GroupService) IsGroupMember(auth0ID string, groupID int32) (bool, error) {
	user, err := s.userRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return false, nil
		}
		return false, err
	}
	_, err = requireMember(s.memberRepo, groupID, user.ID)
	if err != nil {
		if err == domain.ErrNotGroupMember {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
