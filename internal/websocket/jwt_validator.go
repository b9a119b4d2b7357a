package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrNotMember is returned when the caller does not belong to the group
var ErrNotMember = errors.New("not a member of this group")

// MembershipLookup verifies that an Auth0 subject belongs to a group
type MembershipLookup interface {
	IsGroupMember(auth0ID string, groupID int32) (bool, error)
}

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections
type Auth0JWTValidator struct {
	validator  *validator.Validator
	membership MembershipLookup
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, membership MembershipLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator:  jwtValidator,
		membership: membership,
	}, nil
}

// ValidateToken validates a JWT token and confirms membership in the group
// the client wants to subscribe to
func (v *Auth0JWTValidator) ValidateToken(token string, groupID int32) error {
	ctx := context.Background()

	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return ErrInvalidToken
	}

	if v.membership == nil {
		return nil
	}

	member, err := v.membership.IsGroupMember(validatedClaims.RegisteredClaims.Subject, groupID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	return nil
}
