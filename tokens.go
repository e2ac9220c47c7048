package account

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// tokenBytes yields a 96 character hex token
const tokenBytes = 48

// TokenState is the lifecycle state of a confirm or reset token.
type TokenState int

const (
	TokenAbsent TokenState = iota
	TokenActive
	TokenExpired
	// TokenConsumed is an expired token retired by a successful action. Its
	// expiry is pinned to the moment of use so it can only be told apart
	// from TokenExpired by the owning record.
	TokenConsumed
)

func (s TokenState) String() string {
	switch s {
	case TokenAbsent:
		return "absent"
	case TokenActive:
		return "active"
	case TokenExpired:
		return "expired"
	case TokenConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// GenerateToken returns a hex encoded random token
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// EvaluateToken resolves token state lazily at now. A token is expired once
// now reaches expiresAt, so an expiry pinned at the moment of use retires it.
func EvaluateToken(token string, expiresAt *time.Time, now time.Time) TokenState {
	if token == "" {
		return TokenAbsent
	}
	if expiresAt == nil || !now.Before(*expiresAt) {
		return TokenExpired
	}
	return TokenActive
}

// issuedToken is a freshly generated token and its expiry
type issuedToken struct {
	value     string
	expiresAt time.Time
}

func issueToken(now time.Time, ttl time.Duration) (issuedToken, error) {
	value, err := GenerateToken()
	if err != nil {
		return issuedToken{}, err
	}
	return issuedToken{value: value, expiresAt: now.Add(ttl)}, nil
}
