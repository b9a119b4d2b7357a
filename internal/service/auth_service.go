package service

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vikoba/vikoba-backend/internal/domain"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo  domain.UserRepository
	groupRepo domain.GroupRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, groupRepo domain.GroupRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Groups    []*domain.Group
	IsNewUser bool
}

// AuthenticateUser handles the authentication flow after Auth0 callback.
// Creates the user on first login; membership in groups is by invitation, so
// a new user starts with none.
func (s *AuthService) AuthenticateUser(auth0ID, email string, name, pictureURL *string) (*AuthResult, error) {
	existing, err := s.userRepo.GetByAuth0ID(auth0ID)
	isNew := err == domain.ErrUserNotFound

	user := existing
	if user == nil {
		user, err = s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name, pictureURL)
		if err != nil {
			log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
			return nil, err
		}
	}

	groups, err := s.groupRepo.GetByMemberUserID(user.ID.String())
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to list user groups")
		return nil, err
	}

	if isNew {
		log.Info().Str("user_id", user.ID.String()).Msg("Created new user")
	}

	return &AuthResult{
		User:      user,
		Groups:    groups,
		IsNewUser: isNew,
	}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// UpdateProfile updates a user's display name and phone number
func (s *AuthService) UpdateProfile(userID uuid.UUID, name, phone *string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		user.Name = name
	}
	if phone != nil {
		user.Phone = phone
	}
	return s.userRepo.Update(user)
}
