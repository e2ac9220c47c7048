package account

import (
	"context"
)

// CheckResetLink resolves an unexpired reset token. It never writes.
func (s *Service) CheckResetLink(ctx context.Context, resetToken string) (*User, error) {
	return run(ctx, s.timeout, "reset link check", func(ctx context.Context) (*User, error) {
		return s.checkResetLink(ctx, resetToken)
	})
}

func (s *Service) checkResetLink(ctx context.Context, resetToken string) (*User, error) {
	user, err := s.repo.Users().FindByResetToken(ctx, resetToken)
	if err != nil {
		return nil, internalError(err, "could not retrieve password reset request")
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.ResetTokenState(s.now()) != TokenActive {
		return nil, ErrResetTokenExpired
	}

	return user, nil
}

// ResetPassword changes the password of the user owning resetToken and
// retires the token by pinning its expiry to now. The token value itself
// stays on the record.
func (s *Service) ResetPassword(ctx context.Context, resetToken, password string) (*User, error) {
	return run(ctx, s.timeout, "password reset finalization", func(ctx context.Context) (*User, error) {
		user, err := s.checkResetLink(ctx, resetToken)
		if err != nil {
			return nil, err
		}

		hash, err := s.hasher.HashPassword(password)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}

		now := s.now()
		user.PasswordHash = hash
		user.ResetExpiresAt = &now

		updated, err := s.repo.Users().Save(ctx, user, "password_hash", "reset_expires_at")
		if err != nil {
			return nil, internalError(err, "failed to update user password")
		}
		if updated == nil {
			return nil, ErrUserNotFound
		}

		s.recordActivity(ctx, ActivityEventPasswordResetSuccess, updated, nil)

		return updated, nil
	})
}
