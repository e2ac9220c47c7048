package account

import (
	"context"
)

// ForgotPassword issues a reset token for email and mails it. Inactive
// accounts may reset too. The mail is sent in the background and a send
// failure never undoes the stored token.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*User, error) {
	return run(ctx, s.timeout, "password reset initialization", func(ctx context.Context) (*User, error) {
		user, err := s.repo.Users().FindByEmail(ctx, email)
		if err != nil {
			return nil, internalError(err, "failed to retrieve user for password reset")
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		token, err := issueToken(s.now(), s.resetTTL)
		if err != nil {
			return nil, internalError(err, "failed to generate reset token")
		}

		user.ResetToken = token.value
		user.ResetExpiresAt = &token.expiresAt

		updated, err := s.repo.Users().Save(ctx, user, "reset_token", "reset_expires_at")
		if err != nil {
			return nil, internalError(err, "failed to store reset token")
		}
		if updated == nil {
			return nil, ErrUserNotFound
		}

		s.dispatch(ctx, Notification{
			Kind:      NotificationReset,
			Recipient: updated.Email,
			Token:     updated.ResetToken,
		})

		s.recordActivity(ctx, ActivityEventPasswordResetRequested, updated, nil)

		return updated, nil
	})
}
