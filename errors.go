package account

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUserAlreadyExists   = "user_already_exist"
	TextCodeInvalidCredentials  = "invalid_credentials"
	TextCodeUserNotActive       = "user_not_active"
	TextCodeUserNotFound        = "user_not_found"
	TextCodeAlreadyConfirmed    = "already_confirmed"
	TextCodeConfirmTokenExpired = "confirm_token_expired"
	TextCodeResetTokenExpired   = "reset_token_expires"
	TextCodeConfirmEmailNotSent = "cannot_send_confirmation_email"
	TextCodeResetEmailNotSent   = "cannot_send_reset_token_email"
	TextCodeRegistrationFailed  = "registration_failed"
	TextCodeTokenExpired        = "token_expired"
	TextCodeTokenMalformed      = "token_malformed"
	TextCodeValidationFailed    = "validation_failed"
	TextCodeEmptyPassword       = "empty_password"
	TextCodeTooManyRequests     = "too_many_requests"
	TextCodeInternal            = "internal_error"
)

// ErrUserAlreadyExists is returned when registering an email that is taken
var ErrUserAlreadyExists = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserAlreadyExists).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials covers both an unknown email and a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(http.StatusUnprocessableEntity)

// ErrUserNotActive is returned on login before the account is confirmed
var ErrUserNotActive = errors.New("user is not active", errors.CategoryAuthz).
	WithTextCode(TextCodeUserNotActive).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned when an email, id or token does not resolve
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

var ErrAlreadyConfirmed = errors.New("account already confirmed", errors.CategoryValidation).
	WithTextCode(TextCodeAlreadyConfirmed).
	WithCode(http.StatusUnprocessableEntity)

var ErrConfirmTokenExpired = errors.New("confirm token expired", errors.CategoryAuthz).
	WithTextCode(TextCodeConfirmTokenExpired).
	WithCode(errors.CodeForbidden)

var ErrResetTokenExpired = errors.New("reset token expired", errors.CategoryValidation).
	WithTextCode(TextCodeResetTokenExpired).
	WithCode(http.StatusUnprocessableEntity)

// ErrConfirmEmailNotSent is the notifier failure for confirmation mail
var ErrConfirmEmailNotSent = errors.New("cannot send confirmation email", errors.CategoryInternal).
	WithTextCode(TextCodeConfirmEmailNotSent).
	WithCode(errors.CodeInternal)

// ErrResetEmailNotSent is the notifier failure for password reset mail
var ErrResetEmailNotSent = errors.New("cannot send reset password email", errors.CategoryInternal).
	WithTextCode(TextCodeResetEmailNotSent).
	WithCode(errors.CodeInternal)

var ErrRegistrationFailed = errors.New("user registration failed", errors.CategoryInternal).
	WithTextCode(TextCodeRegistrationFailed).
	WithCode(errors.CodeInternal)

var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

var ErrTokenMalformed = errors.New("session token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can not be empty", errors.CategoryBadInput).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the hasher level mismatch error
var ErrMismatchedHashAndPassword = errors.New("password does not match hash", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(http.StatusUnprocessableEntity)

// NotificationError returns the typed send failure for kind with err as
// its source.
func NotificationError(kind NotificationKind, err error) error {
	base := ErrConfirmEmailNotSent
	if kind == NotificationReset {
		base = ErrResetEmailNotSent
	}

	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = err
	return clone
}

// IsTokenExpiredError will check for expired session tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}
