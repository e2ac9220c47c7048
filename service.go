package account

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultConfirmTokenTTL  = 24 * time.Hour
	DefaultResetTokenTTL    = time.Hour
	DefaultOperationTimeout = 10 * time.Second
)

// SessionIssuer signs session tokens for a user
type SessionIssuer interface {
	Generate(user *User) (string, error)
}

// Service implements the account lifecycle: registration, credential
// checks, confirmation and password reset.
type Service struct {
	repo     RepositoryManager
	notifier Notifier
	sessions SessionIssuer
	hasher   PasswordHasher
	activity ActivitySink
	logger   Logger
	now      func() time.Time

	confirmTTL time.Duration
	resetTTL   time.Duration
	timeout    time.Duration
	useHashid  bool

	// dummyHash is compared against when the email is unknown
	dummyHash string

	dispatches sync.WaitGroup
}

var _ Lifecycle = (*Service)(nil)

// Option configures a Service
type Option func(*Service)

// NewService creates a lifecycle service with sane defaults.
func NewService(repo RepositoryManager, notifier Notifier, sessions SessionIssuer, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		notifier:   notifier,
		sessions:   sessions,
		hasher:     NewBcryptHasher(passwordHashCost()),
		activity:   noopActivitySink{},
		logger:     defLogger{},
		now:        func() time.Time { return time.Now().UTC() },
		confirmTTL: DefaultConfirmTokenTTL,
		resetTTL:   DefaultResetTokenTTL,
		timeout:    DefaultOperationTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.logger, "")
	}

	s.dummyHash = s.newDummyHash()

	return s
}

// newDummyHash hashes a random secret with the configured hasher
func (s *Service) newDummyHash() string {
	token, err := GenerateToken()
	if err != nil {
		token = uuid.NewString()
	}

	hash, err := s.hasher.HashPassword(token)
	if err != nil {
		s.logger.Warn("unable to prepare dummy password hash", "error", err)
		return ""
	}
	return hash
}

// WithConfig applies token TTLs, hash cost and id strategy from cfg
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		if ttl := cfg.GetConfirmTokenTTL(); ttl > 0 {
			s.confirmTTL = ttl
		}
		if ttl := cfg.GetResetTokenTTL(); ttl > 0 {
			s.resetTTL = ttl
		}
		if cost := cfg.GetPasswordHashCost(); cost > 0 {
			s.hasher = NewBcryptHasher(cost)
		}
		s.useHashid = cfg.GetUseHashid()
	}
}

func WithHasher(h PasswordHasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithActivitySink sets the sink used to emit lifecycle events.
func WithActivitySink(sink ActivitySink) Option {
	return func(s *Service) {
		s.activity = normalizeActivitySink(sink)
	}
}

func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source, results are used as is
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithConfirmTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.confirmTTL = ttl
		}
	}
}

func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithHashidUserIDs derives new user ids from the email address
func WithHashidUserIDs(enabled bool) Option {
	return func(s *Service) {
		s.useHashid = enabled
	}
}

// WithOperationTimeout bounds every store round trip of an operation
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// IssueSession signs a session token for user
func (s *Service) IssueSession(user *User) (string, error) {
	if user == nil {
		return "", ErrUserNotFound
	}
	token, err := s.sessions.Generate(user)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token").
			WithCode(goerrors.CodeInternal)
	}
	return token, nil
}

// Me resolves the user behind a session
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*User, error) {
	return run(ctx, s.timeout, "me", func(ctx context.Context) (*User, error) {
		user, err := s.repo.Users().FindByID(ctx, id)
		if err != nil {
			return nil, internalError(err, "failed to retrieve user")
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return user, nil
	})
}

// Wait blocks until in flight mail dispatches finish
func (s *Service) Wait() {
	s.dispatches.Wait()
}

// dispatch sends n without blocking the caller. Failures are logged.
func (s *Service) dispatch(ctx context.Context, n Notification) {
	ctx = context.WithoutCancel(ctx)
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Error("notification dispatch failed",
				"kind", string(n.Kind),
				"to", n.Recipient,
				"error", err,
			)
		}
	}()
}

func (s *Service) recordActivity(ctx context.Context, eventType ActivityEventType, user *User, metadata map[string]any) {
	event := newUserActivity(eventType, user, s.now())
	event.Metadata = metadata
	if err := normalizeActivitySink(s.activity).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink error", "event", string(eventType), "error", err)
	}
}

// comparePasswordUniform verifies password against hash, or against a
// throwaway hash when hash is empty so both paths cost one comparison.
func (s *Service) comparePasswordUniform(password, hash string) error {
	if hash != "" {
		return s.hasher.ComparePasswordAndHash(password, hash)
	}

	_ = s.hasher.ComparePasswordAndHash(password, s.dummyHash)
	return ErrInvalidCredentials
}

// run bounds op with timeout after checking ctx, wrapping cancellation the
// same way for every operation.
func run[T any](ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during "+op,
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(ctx)
}

func internalError(err error, message string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeInternal).
		WithCode(goerrors.CodeInternal)
}
