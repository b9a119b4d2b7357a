package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMemberAlreadyInGroup = errors.New("user is already a member of this group")
	ErrMemberInactive       = errors.New("member is not active")
)

// MemberRole distinguishes group administrators from regular members
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Member links a user to a group
type Member struct {
	ID        int32      `json:"id"`
	GroupID   int32      `json:"groupId"`
	UserID    uuid.UUID  `json:"userId"`
	Role      MemberRole `json:"role"`
	Active    bool       `json:"active"`
	JoinedAt  time.Time  `json:"joinedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Joined data
	User *User `json:"user,omitempty"`
}

// IsAdmin returns true if the member administers the group
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// MemberRepository defines the interface for member persistence operations
type MemberRepository interface {
	Create(member *Member) (*Member, error)
	GetByID(id int32) (*Member, error)
	GetByGroupAndUser(groupID int32, userID uuid.UUID) (*Member, error)
	GetAllByGroup(groupID int32) ([]*Member, error)
	CountActiveByGroup(groupID int32) (int, error)
	Update(member *Member) (*Member, error)
	Deactivate(groupID int32, id int32) error
}
