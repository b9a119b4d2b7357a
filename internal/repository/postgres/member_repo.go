package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vikoba/vikoba-backend/internal/domain"
)

// MemberRepository implements domain.MemberRepository using PostgreSQL
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

const memberColumns = `id, group_id, user_id, role, active, joined_at, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	var role string
	err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &role, &m.Active, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	m.Role = domain.MemberRole(role)
	return &m, nil
}

// Create creates a new member
func (r *MemberRepository) Create(member *domain.Member) (*domain.Member, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO members (group_id, user_id, role, active, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+memberColumns,
		member.GroupID, member.UserID, string(member.Role), member.Active, member.JoinedAt)
	return scanMember(row)
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(id int32) (*domain.Member, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	return scanMember(row)
}

// GetByGroupAndUser retrieves a group membership for a user
func (r *MemberRepository) GetByGroupAndUser(groupID int32, userID uuid.UUID) (*domain.Member, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID)
	return scanMember(row)
}

// GetAllByGroup retrieves all members of a group with user details
func (r *MemberRepository) GetAllByGroup(groupID int32) ([]*domain.Member, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.group_id, m.user_id, m.role, m.active, m.joined_at, m.created_at, m.updated_at,
		       u.id, u.auth0_id, u.email, u.name, u.phone, u.picture_url, u.created_at, u.updated_at
		FROM members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		var m domain.Member
		var u domain.User
		var role string
		err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &role, &m.Active, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
			&u.ID, &u.Auth0ID, &u.Email, &u.Name, &u.Phone, &u.PictureURL, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		m.Role = domain.MemberRole(role)
		m.User = &u
		members = append(members, &m)
	}
	return members, rows.Err()
}

// CountActiveByGroup counts a group's active members
func (r *MemberRepository) CountActiveByGroup(groupID int32) (int, error) {
	ctx := context.Background()
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM members WHERE group_id = $1 AND active`, groupID).Scan(&count)
	return count, err
}

// Update updates a member
func (r *MemberRepository) Update(member *domain.Member) (*domain.Member, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE members SET role = $2, active = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns,
		member.ID, string(member.Role), member.Active)
	return scanMember(row)
}

// Deactivate marks a member inactive without removing their history
func (r *MemberRepository) Deactivate(groupID int32, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`UPDATE members SET active = false, updated_at = now() WHERE group_id = $1 AND id = $2`,
		groupID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
