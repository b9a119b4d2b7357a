package testutil

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vikoba/vikoba-backend/internal/domain"
	"github.com/vikoba/vikoba-backend/internal/websocket"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users  map[string]*domain.User
	ByID   map[uuid.UUID]*domain.User
	NextFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(email string) (*domain.User, error) {
	for _, user := range m.Users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	user.ID = uuid.New()
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// Update updates an existing user
func (m *MockUserRepository) Update(user *domain.User) (*domain.User, error) {
	if _, ok := m.ByID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.NextFn != nil {
		return m.NextFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockGroupRepository is a mock implementation of domain.GroupRepository
type MockGroupRepository struct {
	Groups map[int32]*domain.Group
	NextID int32
}

// NewMockGroupRepository creates a new MockGroupRepository
func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		Groups: make(map[int32]*domain.Group),
		NextID: 1,
	}
}

// Create creates a new group
func (m *MockGroupRepository) Create(group *domain.Group) (*domain.Group, error) {
	group.ID = m.NextID
	m.NextID++
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	m.Groups[group.ID] = group
	return group, nil
}

// GetByID retrieves a group by ID
func (m *MockGroupRepository) GetByID(id int32) (*domain.Group, error) {
	if group, ok := m.Groups[id]; ok {
		return group, nil
	}
	return nil, domain.ErrGroupNotFound
}

// GetByMemberUserID retrieves all groups a user belongs to.
// The mock returns every stored group; membership filtering lives in the
// real repository's SQL.
func (m *MockGroupRepository) GetByMemberUserID(userID string) ([]*domain.Group, error) {
	groups := make([]*domain.Group, 0, len(m.Groups))
	for _, group := range m.Groups {
		groups = append(groups, group)
	}
	return groups, nil
}

// Update updates an existing group
func (m *MockGroupRepository) Update(group *domain.Group) (*domain.Group, error) {
	if _, ok := m.Groups[group.ID]; !ok {
		return nil, domain.ErrGroupNotFound
	}
	group.UpdatedAt = time.Now()
	m.Groups[group.ID] = group
	return group, nil
}

// Delete removes a group
func (m *MockGroupRepository) Delete(id int32) error {
	if _, ok := m.Groups[id]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(m.Groups, id)
	return nil
}

// MockMemberRepository is a mock implementation of domain.MemberRepository
type MockMemberRepository struct {
	Members map[int32]*domain.Member
	NextID  int32
}

// NewMockMemberRepository creates a new MockMemberRepository
func NewMockMemberRepository() *MockMemberRepository {
	return &MockMemberRepository{
		Members: make(map[int32]*domain.Member),
		NextID:  1,
	}
}

// Create creates a new member
func (m *MockMemberRepository) Create(member *domain.Member) (*domain.Member, error) {
	for _, existing := range m.Members {
		if existing.GroupID == member.GroupID && existing.UserID == member.UserID {
			return nil, domain.ErrMemberAlreadyInGroup
		}
	}
	member.ID = m.NextID
	m.NextID++
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	m.Members[member.ID] = member
	return member, nil
}

// GetByID retrieves a member by ID
func (m *MockMemberRepository) GetByID(id int32) (*domain.Member, error) {
	if member, ok := m.Members[id]; ok {
		return member, nil
	}
	return nil, domain.ErrMemberNotFound
}

// GetByGroupAndUser retrieves a member by group and user
func (m *MockMemberRepository) GetByGroupAndUser(groupID int32, userID uuid.UUID) (*domain.Member, error) {
	for _, member := range m.Members {
		if member.GroupID == groupID && member.UserID == userID {
			return member, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

// GetAllByGroup retrieves all members of a group
func (m *MockMemberRepository) GetAllByGroup(groupID int32) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	for _, member := range m.Members {
		if member.GroupID == groupID {
			members = append(members, member)
		}
	}
	return members, nil
}

// CountActiveByGroup counts active members of a group
func (m *MockMemberRepository) CountActiveByGroup(groupID int32) (int, error) {
	count := 0
	for _, member := range m.Members {
		if member.GroupID == groupID && member.Active {
			count++
		}
	}
	return count, nil
}

// Update updates an existing member
func (m *MockMemberRepository) Update(member *domain.Member) (*domain.Member, error) {
	if _, ok := m.Members[member.ID]; !ok {
		return nil, domain.ErrMemberNotFound
	}
	member.UpdatedAt = time.Now()
	m.Members[member.ID] = member
	return member, nil
}

// Deactivate marks a member inactive
func (m *MockMemberRepository) Deactivate(groupID int32, id int32) error {
	member, ok := m.Members[id]
	if !ok || member.GroupID != groupID {
		return domain.ErrMemberNotFound
	}
	member.Active = false
	return nil
}

// AddMember adds a member directly (helper for tests)
func (m *MockMemberRepository) AddMember(member *domain.Member) *domain.Member {
	if member.ID == 0 {
		member.ID = m.NextID
		m.NextID++
	} else if member.ID >= m.NextID {
		m.NextID = member.ID + 1
	}
	m.Members[member.ID] = member
	return member
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[int32]*domain.PaymentRecord
	NextID   int32
	CreateErr error
	UpdateErr error
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[int32]*domain.PaymentRecord),
		NextID:   1,
	}
}

// Create creates a new payment record
func (m *MockPaymentRepository) Create(payment *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	payment.ID = m.NextID
	m.NextID++
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.Payments[payment.ID] = payment
	return payment, nil
}

// CreateBatchTx creates multiple payment records inside a transaction
func (m *MockPaymentRepository) CreateBatchTx(tx interface{}, payments []*domain.PaymentRecord) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, payment := range payments {
		payment.ID = m.NextID
		m.NextID++
		m.Payments[payment.ID] = payment
	}
	return nil
}

// GetByID retrieves a payment record by ID
func (m *MockPaymentRepository) GetByID(id int32) (*domain.PaymentRecord, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// GetAllByGroup retrieves all payment records for a group
func (m *MockPaymentRepository) GetAllByGroup(groupID int32) ([]*domain.PaymentRecord, error) {
	payments := make([]*domain.PaymentRecord, 0)
	for _, payment := range m.Payments {
		if payment.GroupID == groupID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// GetByGroupAndPeriod retrieves payment records for a group and period
func (m *MockPaymentRepository) GetByGroupAndPeriod(groupID int32, year, month int) ([]*domain.PaymentRecord, error) {
	payments := make([]*domain.PaymentRecord, 0)
	for _, payment := range m.Payments {
		if payment.GroupID == groupID && int(payment.PeriodYear) == year && int(payment.PeriodMonth) == month {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// GetByMember retrieves payment records for a member
func (m *MockPaymentRepository) GetByMember(memberID int32) ([]*domain.PaymentRecord, error) {
	payments := make([]*domain.PaymentRecord, 0)
	for _, payment := range m.Payments {
		if payment.MemberID == memberID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// GetByLoan retrieves payment records tied to a loan
func (m *MockPaymentRepository) GetByLoan(loanID int32) ([]*domain.PaymentRecord, error) {
	payments := make([]*domain.PaymentRecord, 0)
	for _, payment := range m.Payments {
		if payment.LoanID != nil && *payment.LoanID == loanID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// GetPendingByGroup retrieves pending payment records for a group
func (m *MockPaymentRepository) GetPendingByGroup(groupID int32) ([]*domain.PaymentRecord, error) {
	payments := make([]*domain.PaymentRecord, 0)
	for _, payment := range m.Payments {
		if payment.GroupID == groupID && payment.ApprovalStatus == domain.StatusPending {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// Update updates an existing payment record
func (m *MockPaymentRepository) Update(payment *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	if _, ok := m.Payments[payment.ID]; !ok {
		return nil, domain.ErrPaymentNotFound
	}
	payment.UpdatedAt = time.Now()
	m.Payments[payment.ID] = payment
	return payment, nil
}

// AddPayment adds a payment record directly (helper for tests)
func (m *MockPaymentRepository) AddPayment(payment *domain.PaymentRecord) *domain.PaymentRecord {
	if payment.ID == 0 {
		payment.ID = m.NextID
		m.NextID++
	} else if payment.ID >= m.NextID {
		m.NextID = payment.ID + 1
	}
	m.Payments[payment.ID] = payment
	return payment
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans     map[int32]*domain.Loan
	Schedules map[int32][]domain.RepaymentScheduleEntry
	NextID    int32
	CreateErr error
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:     make(map[int32]*domain.Loan),
		Schedules: make(map[int32][]domain.RepaymentScheduleEntry),
		NextID:    1,
	}
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	return m.CreateTx(nil, loan)
}

// CreateTx creates a new loan inside a transaction
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	loan.ID = m.NextID
	m.NextID++
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = loan.CreatedAt
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by group and ID
func (m *MockLoanRepository) GetByID(groupID int32, id int32) (*domain.Loan, error) {
	loan, ok := m.Loans[id]
	if !ok || loan.GroupID != groupID {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

// GetAllByGroup retrieves all loans for a group
func (m *MockLoanRepository) GetAllByGroup(groupID int32) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.GroupID == groupID {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// GetByMember retrieves all loans for a member
func (m *MockLoanRepository) GetByMember(memberID int32) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.MemberID == memberID {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// Update updates an existing loan
func (m *MockLoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	if _, ok := m.Loans[loan.ID]; !ok {
		return nil, domain.ErrLoanNotFound
	}
	loan.UpdatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// UpdateTx updates an existing loan inside a transaction
func (m *MockLoanRepository) UpdateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	return m.Update(loan)
}

// SaveScheduleTx persists a loan's repayment schedule inside a transaction
func (m *MockLoanRepository) SaveScheduleTx(tx interface{}, loanID int32, entries []domain.RepaymentScheduleEntry) error {
	m.Schedules[loanID] = entries
	return nil
}

// GetSchedule retrieves a loan's repayment schedule
func (m *MockLoanRepository) GetSchedule(loanID int32) ([]domain.RepaymentScheduleEntry, error) {
	return m.Schedules[loanID], nil
}

// AddLoan adds a loan directly (helper for tests)
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) *domain.Loan {
	if loan.ID == 0 {
		loan.ID = m.NextID
		m.NextID++
	} else if loan.ID >= m.NextID {
		m.NextID = loan.ID + 1
	}
	m.Loans[loan.ID] = loan
	return loan
}

// MockNotificationRepository is a mock implementation of domain.NotificationRepository
type MockNotificationRepository struct {
	Notifications map[int32]*domain.Notification
	NextID        int32
}

// NewMockNotificationRepository creates a new MockNotificationRepository
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		Notifications: make(map[int32]*domain.Notification),
		NextID:        1,
	}
}

// Create creates a new notification
func (m *MockNotificationRepository) Create(notification *domain.Notification) (*domain.Notification, error) {
	notification.ID = m.NextID
	m.NextID++
	notification.CreatedAt = time.Now()
	m.Notifications[notification.ID] = notification
	return notification, nil
}

// GetByUser retrieves notifications for a user
func (m *MockNotificationRepository) GetByUser(userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	notifications := make([]*domain.Notification, 0)
	for _, n := range m.Notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkRead marks one notification as read
func (m *MockNotificationRepository) MarkRead(userID uuid.UUID, id int32) error {
	n, ok := m.Notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (m *MockNotificationRepository) MarkAllRead(userID uuid.UUID) error {
	for _, n := range m.Notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

// CountForUser counts a user's notifications (helper for tests)
func (m *MockNotificationRepository) CountForUser(userID uuid.UUID) int {
	count := 0
	for _, n := range m.Notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count
}

// MockTxManager is a mock implementation of domain.TxManager that runs the
// function without a real transaction
type MockTxManager struct {
	Err error
}

// WithTx runs fn with a nil transaction handle
func (m *MockTxManager) WithTx(ctx context.Context, fn func(tx interface{}) error) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(nil)
}

// MockCache is an in-memory cache double that records invalidations
type MockCache struct {
	mu          sync.Mutex
	Data        map[string][]byte
	Invalidated []string
}

// NewMockCache creates a new MockCache
func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

// Get retrieves a cached value
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.Data[key]
	return value, ok
}

// Set stores a value
func (m *MockCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	return nil
}

// InvalidatePrefix removes all keys with the prefix and records the call
func (m *MockCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, prefix)
	for key := range m.Data {
		if strings.HasPrefix(key, prefix) {
			delete(m.Data, key)
		}
	}
	return nil
}

// MockEventPublisher records published WebSocket events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// PublishedEvent pairs an event with the group it was published to
type PublishedEvent struct {
	GroupID int32
	Event   websocket.Event
}

// Publish records the event
func (m *MockEventPublisher) Publish(groupID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{GroupID: groupID, Event: event})
}

// EventTypes returns the types of all published events in order
func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}

// MockProofRepository is a mock implementation of storage.ProofRepository
type MockProofRepository struct {
	Uploaded  map[string][]byte
	Deleted   []string
	UploadErr error
}

// NewMockProofRepository creates a new MockProofRepository
func NewMockProofRepository() *MockProofRepository {
	return &MockProofRepository{Uploaded: make(map[string][]byte)}
}

// Upload stores the object in memory
func (m *MockProofRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Uploaded[objectPath] = content
	return objectPath, nil
}

// Delete records the deletion
func (m *MockProofRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Uploaded, objectPath)
	m.Deleted = append(m.Deleted, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for the object
func (m *MockProofRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath, nil
}
