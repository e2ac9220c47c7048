package account

import (
	"context"
	"errors"
)

// ValidateCredentials returns the user behind email when password matches.
// A missing user and a wrong password fail with the same error and the
// same hashing cost.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*User, error) {
	return run(ctx, s.timeout, "credential validation", func(ctx context.Context) (*User, error) {
		user, err := s.repo.Users().FindByEmail(ctx, email)
		if err != nil {
			return nil, internalError(err, "failed to retrieve user")
		}

		hash := ""
		if user != nil {
			hash = user.PasswordHash
		}

		if err := s.comparePasswordUniform(password, hash); err != nil {
			if !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrMismatchedHashAndPassword) {
				s.logger.Warn("password comparison failed", "error", err)
			}
			s.recordActivity(ctx, ActivityEventLoginFailure, user, map[string]any{
				"reason": TextCodeInvalidCredentials,
			})
			return nil, ErrInvalidCredentials
		}

		if !user.IsActive {
			s.recordActivity(ctx, ActivityEventLoginFailure, user, map[string]any{
				"reason": TextCodeUserNotActive,
			})
			return nil, ErrUserNotActive
		}

		return user, nil
	})
}

// Login validates credentials and issues a session token
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueSession(user)
	if err != nil {
		return nil, err
	}

	s.recordActivity(ctx, ActivityEventLoginSuccess, user, nil)

	return &LoginResult{
		UserView: NewUserView(user),
		Token:    token,
	}, nil
}
