package account_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockRepositoryManager implements account.RepositoryManager. RunInTx
// invokes the callback with a zero transaction, the mocked stores ignore it.
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

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() account.Users {
	args := m.Called()
	return args.Get(0).(account.Users)
}

func (m *MockRepositoryManager) Profiles() account.Profiles {
	args := m.Called()
	return args.Get(0).(account.Profiles)
}

// MockUsers implements account.Users
type MockUsers struct {
	mock.Mock
}

func userResult(args mock.Arguments) (*account.User, error) {
	if u := args.Get(0); u != nil {
		return u.(*account.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	return userResult(m.Called(ctx, email))
}

func (m *MockUsers) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*account.User, error) {
	return userResult(m.Called(ctx, tx, email))
}

func (m *MockUsers) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *MockUsers) FindByConfirmToken(ctx context.Context, token string) (*account.User, error) {
	return userResult(m.Called(ctx, token))
}

func (m *MockUsers) FindByResetToken(ctx context.Context, token string) (*account.User, error) {
	return userResult(m.Called(ctx, token))
}

// echoUser returns record when the expectation has no configured user
func echoUser(args mock.Arguments, record *account.User) (*account.User, error) {
	if args.Get(0) == nil && args.Error(1) == nil {
		return record, nil
	}
	return userResult(args)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *account.User) (*account.User, error) {
	return echoUser(m.Called(ctx, tx, record), record)
}

func (m *MockUsers) Save(ctx context.Context, record *account.User, columns ...string) (*account.User, error) {
	return echoUser(m.Called(ctx, record, columns), record)
}

func (m *MockUsers) SaveTx(ctx context.Context, tx bun.IDB, record *account.User, columns ...string) (*account.User, error) {
	return echoUser(m.Called(ctx, tx, record, columns), record)
}

// MockProfiles implements account.Profiles
type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) CreateTx(ctx context.Context, tx bun.IDB, record *account.Profile) (*account.Profile, error) {
	args := m.Called(ctx, tx, record)
	if p := args.Get(0); p != nil {
		return p.(*account.Profile), args.Error(1)
	}
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return record, nil
}

// MockNotifier implements account.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n account.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockSessions implements account.SessionIssuer
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Generate(user *account.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

// capturingSink records every activity event
type capturingSink struct {
	mu     sync.Mutex
	events []account.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt account.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []account.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]account.ActivityEventType, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType)
	}
	return out
}

// capturingNotifier keeps every notification, failing with err when set
type capturingNotifier struct {
	mu   sync.Mutex
	sent []account.Notification
	err  error
}

func (c *capturingNotifier) Notify(ctx context.Context, n account.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *capturingNotifier) last() (account.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return account.Notification{}, false
	}
	return c.sent[len(c.sent)-1], true
}

func (c *capturingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}
