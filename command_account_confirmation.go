package account

import (
	"context"
)

// ConfirmAccount activates the account owning confirmToken. The token
// expiry is pinned to now so the token can not be used again.
func (s *Service) ConfirmAccount(ctx context.Context, confirmToken string) (*User, error) {
	return run(ctx, s.timeout, "account confirmation", func(ctx context.Context) (*User, error) {
		user, err := s.repo.Users().FindByConfirmToken(ctx, confirmToken)
		if err != nil {
			return nil, internalError(err, "failed to retrieve user by confirm token")
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		if user.IsActive {
			return nil, ErrAlreadyConfirmed
		}

		now := s.now()
		if user.ConfirmTokenState(now) != TokenActive {
			return nil, ErrConfirmTokenExpired
		}

		user.IsActive = true
		user.ConfirmExpiresAt = &now

		updated, err := s.repo.Users().Save(ctx, user, "is_active", "confirm_expires_at")
		if err != nil {
			return nil, internalError(err, "failed to confirm account")
		}
		if updated == nil {
			return nil, ErrUserNotFound
		}

		s.recordActivity(ctx, ActivityEventAccountConfirmed, updated, nil)

		return updated, nil
	})
}

// ResendConfirmation replaces the confirm token of an inactive account and
// mails the new one. The previous token stops resolving immediately.
func (s *Service) ResendConfirmation(ctx context.Context, email string) (*User, error) {
	return run(ctx, s.timeout, "confirmation resend", func(ctx context.Context) (*User, error) {
		user, err := s.repo.Users().FindByEmail(ctx, email)
		if err != nil {
			return nil, internalError(err, "failed to retrieve user")
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		if user.IsActive {
			return nil, ErrAlreadyConfirmed
		}

		token, err := issueToken(s.now(), s.confirmTTL)
		if err != nil {
			return nil, internalError(err, "failed to generate confirm token")
		}

		user.ConfirmToken = token.value
		user.ConfirmExpiresAt = &token.expiresAt

		updated, err := s.repo.Users().Save(ctx, user, "confirm_token", "confirm_expires_at")
		if err != nil {
			return nil, internalError(err, "failed to store confirm token")
		}
		if updated == nil {
			return nil, ErrUserNotFound
		}

		if err := s.notifier.Notify(ctx, Notification{
			Kind:      NotificationConfirm,
			Recipient: updated.Email,
			Token:     updated.ConfirmToken,
		}); err != nil {
			s.logger.Error("confirmation email not sent", "email", updated.Email, "error", err)
			return nil, NotificationError(NotificationConfirm, err)
		}

		s.recordActivity(ctx, ActivityEventConfirmationResent, updated, nil)

		return updated, nil
	})
}
