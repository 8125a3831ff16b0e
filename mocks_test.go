package identity_test

import (
	"context"
	"database/sql"

	identity "github.com/fleetpass/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockIdentity implements identity.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) RoleSelected() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockLogger implements identity.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockUserFinder implements identity.UserFinder
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// stubUsers overrides the handful of store methods the code under test
// touches. Anything else panics through the nil embedded interface, which
// is exactly what we want: it means the test exercised an unexpected path.
type stubUsers struct {
	identity.Users

	getByEmail      func(ctx context.Context, email string) (*identity.User, error)
	getByIdentifier func(ctx context.Context, identifier string) (*identity.User, error)
	assignRole      func(ctx context.Context, id uuid.UUID, role identity.Role) (*identity.User, error)
	registerTx      func(ctx context.Context, user *identity.User) (*identity.User, error)
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.getByEmail(ctx, email)
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, _ ...repository.SelectCriteria) (*identity.User, error) {
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) AssignRole(ctx context.Context, id uuid.UUID, role identity.Role) (*identity.User, error) {
	return s.assignRole(ctx, id, role)
}

func (s *stubUsers) RegisterTx(ctx context.Context, _ bun.IDB, user *identity.User) (*identity.User, error) {
	return s.registerTx(ctx, user)
}

// stubRepoManager satisfies identity.RepositoryManager without a database:
// RunInTx executes the callback with a zero transaction value.
type stubRepoManager struct {
	users identity.Users
}

func (s *stubRepoManager) Validate() error { return nil }

func (s *stubRepoManager) MustValidate() {}

func (s *stubRepoManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (s *stubRepoManager) Users() identity.Users {
	return s.users
}
