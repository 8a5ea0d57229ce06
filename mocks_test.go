package provision_test

import (
	"context"
	"database/sql"

	provision "github.com/goliatone/go-provision"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockRepositoryManager implements provision.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx records the expectation, then executes the unit of work against a
// zero bun.Tx and surfaces its error the way a real transaction would.
// Every repository touched inside is a mock anyway.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	m.Called(ctx, opts, f)
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Users() provision.Users {
	args := m.Called()
	return args.Get(0).(provision.Users)
}

func (m *MockRepositoryManager) Profiles() provision.Profiles {
	args := m.Called()
	return args.Get(0).(provision.Profiles)
}

func (m *MockRepositoryManager) Roles() provision.Roles {
	args := m.Called()
	return args.Get(0).(provision.Roles)
}

func (m *MockRepositoryManager) Groups() provision.Groups {
	args := m.Called()
	return args.Get(0).(provision.Groups)
}

func (m *MockRepositoryManager) Tenants() provision.Tenants {
	args := m.Called()
	return args.Get(0).(provision.Tenants)
}

func (m *MockRepositoryManager) PasswordHistory() provision.PasswordHistory {
	args := m.Called()
	return args.Get(0).(provision.PasswordHistory)
}

// MockUsers implements provision.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *provision.User) (*provision.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*provision.User)
	return user, args.Error(1)
}

func (m *MockUsers) CreateIgnoreConflictTx(ctx context.Context, tx bun.IDB, record *provision.User) (*provision.User, bool, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*provision.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*provision.User, error) {
	args := m.Called(ctx, tx, username)
	user, _ := args.Get(0).(*provision.User)
	return user, args.Error(1)
}

func (m *MockUsers) ExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	args := m.Called(ctx, tx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) UpdateCredentialsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, email string) (*provision.User, error) {
	args := m.Called(ctx, tx, id, passwordHash, email)
	user, _ := args.Get(0).(*provision.User)
	return user, args.Error(1)
}

func (m *MockUsers) SetAdminFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*provision.User, error) {
	args := m.Called(ctx, tx, id)
	user, _ := args.Get(0).(*provision.User)
	return user, args.Error(1)
}

// MockProfiles implements provision.Profiles
type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) ResolveTx(ctx context.Context, tx bun.IDB, user *provision.User) (*provision.Profile, error) {
	args := m.Called(ctx, tx, user)
	profile, _ := args.Get(0).(*provision.Profile)
	return profile, args.Error(1)
}

func (m *MockProfiles) AssignRoleTx(ctx context.Context, tx bun.IDB, profile *provision.Profile, roleID uuid.UUID) (*provision.Profile, error) {
	args := m.Called(ctx, tx, profile, roleID)
	out, _ := args.Get(0).(*provision.Profile)
	return out, args.Error(1)
}

func (m *MockProfiles) SetEmailLowerTx(ctx context.Context, tx bun.IDB, profile *provision.Profile, email string) (*provision.Profile, error) {
	args := m.Called(ctx, tx, profile, email)
	out, _ := args.Get(0).(*provision.Profile)
	return out, args.Error(1)
}

// MockRoles implements provision.Roles
type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) GetByNameTx(ctx context.Context, tx bun.IDB, name provision.RoleName) (*provision.Role, error) {
	args := m.Called(ctx, tx, name)
	role, _ := args.Get(0).(*provision.Role)
	return role, args.Error(1)
}

// MockGroups implements provision.Groups
type MockGroups struct {
	mock.Mock
}

func (m *MockGroups) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*provision.Group, error) {
	args := m.Called(ctx, tx, name)
	group, _ := args.Get(0).(*provision.Group)
	return group, args.Error(1)
}

func (m *MockGroups) AddMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) error {
	args := m.Called(ctx, tx, userID, groupID)
	return args.Error(0)
}

func (m *MockGroups) GroupsOfTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*provision.Group, error) {
	args := m.Called(ctx, tx, userID)
	groups, _ := args.Get(0).([]*provision.Group)
	return groups, args.Error(1)
}

func (m *MockGroups) CloneMembershipsTx(ctx context.Context, tx bun.IDB, fromUserID, toUserID uuid.UUID) error {
	args := m.Called(ctx, tx, fromUserID, toUserID)
	return args.Error(0)
}

// MockTenants implements provision.Tenants
type MockTenants struct {
	mock.Mock
}

func (m *MockTenants) GetStoreTx(ctx context.Context, tx bun.IDB, id int64) (*provision.Store, error) {
	args := m.Called(ctx, tx, id)
	store, _ := args.Get(0).(*provision.Store)
	return store, args.Error(1)
}

func (m *MockTenants) GetRetailerTx(ctx context.Context, tx bun.IDB, id int64) (*provision.Retailer, error) {
	args := m.Called(ctx, tx, id)
	retailer, _ := args.Get(0).(*provision.Retailer)
	return retailer, args.Error(1)
}

func (m *MockTenants) LinkStoreRepTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, storeID int64) (*provision.StoreRep, error) {
	args := m.Called(ctx, tx, userID, storeID)
	rep, _ := args.Get(0).(*provision.StoreRep)
	return rep, args.Error(1)
}

func (m *MockTenants) LinkRetailerAdminTx(ctx context.Context, tx bun.IDB, retailerID int64, userID uuid.UUID) error {
	args := m.Called(ctx, tx, retailerID, userID)
	return args.Error(0)
}

// MockPasswordHistory implements provision.PasswordHistory
type MockPasswordHistory struct {
	mock.Mock
}

func (m *MockPasswordHistory) AppendTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, passwordHash string) (*provision.PasswordHistoryEntry, error) {
	args := m.Called(ctx, tx, userID, passwordHash)
	entry, _ := args.Get(0).(*provision.PasswordHistoryEntry)
	return entry, args.Error(1)
}

func (m *MockPasswordHistory) CountForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockPasswordHistory) ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*provision.PasswordHistoryEntry, error) {
	args := m.Called(ctx, tx, userID)
	entries, _ := args.Get(0).([]*provision.PasswordHistoryEntry)
	return entries, args.Error(1)
}

// MockActivitySink implements provision.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event provision.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
