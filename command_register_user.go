package account

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Photo     string `json:"photo"`
}

func (e RegisterUserMessage) Type() string { return "account.register" }

// Register creates an inactive user with its profile and mails the
// confirmation token. Insertions and the send share one transaction, any
// failure rolls everything back.
func (s *Service) Register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	return run(ctx, s.timeout, "user registration", func(ctx context.Context) (*User, error) {
		return s.register(ctx, msg)
	})
}

func (s *Service) register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	existing, err := s.repo.Users().FindByEmail(ctx, msg.Email)
	if err != nil {
		return nil, internalError(err, "failed to check user email")
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	var user *User
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := s.hasher.HashPassword(msg.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		now := s.now()
		token, err := issueToken(now, s.confirmTTL)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate confirm token")
		}

		record := &User{
			Email:            msg.Email,
			Username:         strings.TrimSpace(msg.Username),
			PasswordHash:     hash,
			IsActive:         false,
			ConfirmToken:     token.value,
			ConfirmExpiresAt: &token.expiresAt,
			CreatedAt:        &now,
			UpdatedAt:        &now,
		}
		if s.useHashid {
			if id, err := hashid.NewUUID(msg.Email); err == nil {
				record.ID = id
			}
		}

		if user, err = s.repo.Users().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		profile := &Profile{
			UserID:    user.ID,
			FirstName: msg.FirstName,
			LastName:  msg.LastName,
			Photo:     msg.Photo,
			CreatedAt: &now,
			UpdatedAt: &now,
		}
		if user.Profile, err = s.repo.Profiles().CreateTx(ctx, tx, profile); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create profile")
		}

		return s.notifier.Notify(ctx, Notification{
			Kind:      NotificationConfirm,
			Recipient: user.Email,
			Token:     user.ConfirmToken,
		})
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryBadInput {
			return nil, richErr
		}

		s.logger.Error("user registration rolled back", "email", msg.Email, "error", err)

		clone := ErrRegistrationFailed.Clone()
		if clone == nil {
			return nil, ErrRegistrationFailed
		}
		clone.Source = err
		return nil, clone
	}

	s.recordActivity(ctx, ActivityEventUserRegistered, user, nil)

	return user, nil
}
