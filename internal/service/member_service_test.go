package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/testutil"
)

type memberEnv struct {
	svc         *MemberService
	memberRepo  *testutil.MockMemberRepository
	userRepo    *testutil.MockUserRepository
	paymentRepo *testutil.MockPaymentRepository
	notifRepo   *testutil.MockNotificationRepository

	group       *domain.Group
	adminUserID uuid.UUID
	admin       *domain.Member
}

func newMemberEnv(t *testing.T) *memberEnv {
	t.Helper()

	env := &memberEnv{
		memberRepo:  testutil.NewMockMemberRepository(),
		userRepo:    testutil.NewMockUserRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
		notifRepo:   testutil.NewMockNotificationRepository(),
		adminUserID: uuid.New(),
	}
	groupRepo := testutil.NewMockGroupRepository()

	group, err := groupRepo.Create(&domain.Group{
		Name:                "Amani",
		Currency:            "TZS",
		SeedMoneyAmount:     decimal.RequireFromString("100000"),
		MonthlyContribution: decimal.RequireFromString("50000"),
		ServiceFeeAmount:    decimal.Zero,
		ContributionDueDay:  5,
		MaxLoanMonths:       3,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	env.group = group

	env.admin = env.memberRepo.AddMember(&domain.Member{
		GroupID: group.ID, UserID: env.adminUserID, Role: domain.RoleAdmin, Active: true, JoinedAt: time.Now(),
	})

	notifications := NewNotificationService(env.notifRepo, env.memberRepo, nil)
	env.svc = NewMemberService(groupRepo, env.memberRepo, env.userRepo, env.paymentRepo, notifications, nil)
	return env
}

func (env *memberEnv) registerUser(email string) *domain.User {
	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|" + email, Email: email}
	env.userRepo.AddUser(user)
	return user
}

func TestAddMember(t *testing.T) {
	env := newMemberEnv(t)
	user := env.registerUser("neema@example.com")

	member, err := env.svc.AddMember(env.group.ID, env.adminUserID, "neema@example.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if member.UserID != user.ID || !member.Active {
		t.Errorf("member = %+v, want active member for %s", member, user.ID)
	}

	// Joining creates the seed money obligation, with no due date
	records, _ := env.paymentRepo.GetByMember(member.ID)
	if len(records) != 1 {
		t.Fatalf("payment records = %d, want 1", len(records))
	}
	seed := records[0]
	if seed.Category != domain.CategorySeedMoney {
		t.Errorf("category = %s, want seed_money", seed.Category)
	}
	if got := seed.TotalAmount.String(); got != "100000" {
		t.Errorf("TotalAmount = %s, want 100000", got)
	}
	if seed.DueDate != nil {
		t.Error("seed money must not carry a due date")
	}

	if got := env.notifRepo.CountForUser(user.ID); got != 1 {
		t.Errorf("welcome notifications = %d, want 1", got)
	}
}

func TestAddMember_Errors(t *testing.T) {
	env := newMemberEnv(t)
	env.registerUser("neema@example.com")

	if _, err := env.svc.AddMember(env.group.ID, uuid.New(), "neema@example.com", domain.RoleMember); err != domain.ErrNotGroupMember {
		t.Errorf("outsider err = %v, want ErrNotGroupMember", err)
	}
	if _, err := env.svc.AddMember(env.group.ID, env.adminUserID, "nobody@example.com", domain.RoleMember); err != domain.ErrUserNotFound {
		t.Errorf("unknown email err = %v, want ErrUserNotFound", err)
	}

	if _, err := env.svc.AddMember(env.group.ID, env.adminUserID, "neema@example.com", domain.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := env.svc.AddMember(env.group.ID, env.adminUserID, "neema@example.com", domain.RoleMember); err != domain.ErrMemberAlreadyInGroup {
		t.Errorf("duplicate err = %v, want ErrMemberAlreadyInGroup", err)
	}
}

func TestChangeRole_LastAdminProtected(t *testing.T) {
	env := newMemberEnv(t)
	user := env.registerUser("neema@example.com")
	member, err := env.svc.AddMember(env.group.ID, env.adminUserID, user.Email, domain.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	// Demoting the only admin fails
	if _, err := env.svc.ChangeRole(env.group.ID, env.adminUserID, env.admin.ID, domain.RoleMember); err != domain.ErrLastAdmin {
		t.Errorf("demote last admin err = %v, want ErrLastAdmin", err)
	}

	// Promote the member, then demotion of the original admin works
	if _, err := env.svc.ChangeRole(env.group.ID, env.adminUserID, member.ID, domain.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := env.svc.ChangeRole(env.group.ID, env.adminUserID, env.admin.ID, domain.RoleMember); err != nil {
		t.Errorf("demote with second admin: %v", err)
	}
}

func TestDeactivateMember(t *testing.T) {
	env := newMemberEnv(t)
	user := env.registerUser("neema@example.com")
	member, err := env.svc.AddMember(env.group.ID, env.adminUserID, user.Email, domain.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if err := env.svc.DeactivateMember(env.group.ID, env.adminUserID, member.ID); err != nil {
		t.Fatalf("DeactivateMember: %v", err)
	}
	got, _ := env.memberRepo.GetByID(member.ID)
	if got.Active {
		t.Error("member still active after deactivation")
	}

	if err := env.svc.DeactivateMember(env.group.ID, env.adminUserID, env.admin.ID); err != domain.ErrLastAdmin {
		t.Errorf("deactivate last admin err = %v, want ErrLastAdmin", err)
	}
}

func TestListMembers_RequiresMembership(t *testing.T) {
	env := newMemberEnv(t)

	members, err := env.svc.ListMembers(env.group.ID, env.adminUserID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("members = %d, want 1", len(members))
	}

	if _, err := env.svc.ListMembers(env.group.ID, uuid.New()); err != domain.ErrNotGroupMember {
		t.Errorf("outsider err = %v, want ErrNotGroupMember", err)
	}
}
