package account

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging contract used across the package. Args are
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds account service options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetConfirmTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetPasswordHashCost() int
	GetUseHashid() bool
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Lifecycle is the account lifecycle surface consumed by transports.
type Lifecycle interface {
	Register(ctx context.Context, msg RegisterUserMessage) (*User, error)
	ValidateCredentials(ctx context.Context, email, password string) (*User, error)
	IssueSession(user *User) (string, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ConfirmAccount(ctx context.Context, confirmToken string) (*User, error)
	ResendConfirmation(ctx context.Context, email string) (*User, error)
	ForgotPassword(ctx context.Context, email string) (*User, error)
	CheckResetLink(ctx context.Context, resetToken string) (*User, error)
	ResetPassword(ctx context.Context, resetToken, password string) (*User, error)
	Me(ctx context.Context, id uuid.UUID) (*User, error)
}

// defLogger prints "[LVL] ACCOUNT msg k=v" lines to stdout
type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }

func (d defLogger) print(level, msg string, args ...any) {
	var b strings.Builder
	b.WriteString("[" + level + "] ACCOUNT ")
	b.WriteString(strings.TrimRight(msg, "\n"))
	writeAttrs(&b, args)
	b.WriteByte('\n')
	fmt.Fprint(os.Stdout, b.String())
}

// writeAttrs renders key/value pairs. A dangling arg is written as !BADKEY.
func writeAttrs(b *strings.Builder, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(b, " !BADKEY=%v", args[i])
			return
		}
		fmt.Fprintf(b, " %v=%v", args[i], args[i+1])
	}
}

// SlogLogger adapts a *slog.Logger to Logger
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil logger falls back to slog.Default.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// With returns a logger that always includes args
func (s *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(args...)}
}
