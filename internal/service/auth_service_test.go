package service

import (
	"testing"

	"github.com/vikoba/vikoba-backend/internal/testutil"
)

func TestAuthenticateUser_CreatesOnFirstLogin(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	groupRepo := testutil.NewMockGroupRepository()
	svc := NewAuthService(userRepo, groupRepo)

	name := "Neema"
	result, err := svc.AuthenticateUser("auth0|123", "neema@example.com", &name, nil)
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if !result.IsNewUser {
		t.Error("first login should report a new user")
	}
	if result.User.Email != "neema@example.com" {
		t.Errorf("email = %s", result.User.Email)
	}
	if len(result.Groups) != 0 {
		t.Errorf("new user groups = %d, want 0", len(result.Groups))
	}

	again, err := svc.AuthenticateUser("auth0|123", "neema@example.com", &name, nil)
	if err != nil {
		t.Fatalf("second AuthenticateUser: %v", err)
	}
	if again.IsNewUser {
		t.Error("second login should not report a new user")
	}
	if again.User.ID != result.User.ID {
		t.Error("second login returned a different user")
	}
}

func TestUpdateProfile(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	svc := NewAuthService(userRepo, testutil.NewMockGroupRepository())

	result, err := svc.AuthenticateUser("auth0|123", "neema@example.com", nil, nil)
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}

	name := "Neema M"
	phone := "+255700000000"
	updated, err := svc.UpdateProfile(result.User.ID, &name, &phone)
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name == nil || *updated.Name != name {
		t.Errorf("name = %v, want %s", updated.Name, name)
	}
	if updated.Phone == nil || *updated.Phone != phone {
		t.Errorf("phone = %v, want %s", updated.Phone, phone)
	}
}
