package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. Secret columns are never serialized, use
// NewUserView to build the outward representation.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username         string     `bun:"username,nullzero,unique" json:"username,omitempty"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	IsActive         bool       `bun:"is_active,notnull" json:"is_active"`
	ConfirmToken     string     `bun:"confirm_token,nullzero,unique" json:"-"`
	ConfirmExpiresAt *time.Time `bun:"confirm_expires_at,nullzero" json:"-"`
	ResetToken       string     `bun:"reset_token,nullzero,unique" json:"-"`
	ResetExpiresAt   *time.Time `bun:"reset_expires_at,nullzero" json:"-"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	Profile          *Profile   `bun:"rel:has-one,join:id=user_id" json:"profile,omitempty"`
}

// ConfirmTokenState reports the state of the confirmation token at now.
// An active account means the token was consumed.
func (u *User) ConfirmTokenState(now time.Time) TokenState {
	state := EvaluateToken(u.ConfirmToken, u.ConfirmExpiresAt, now)
	if u.IsActive && state != TokenAbsent {
		return TokenConsumed
	}
	return state
}

// ResetTokenState reports the state of the reset token at now
func (u *User) ResetTokenState(now time.Time) TokenState {
	return EvaluateToken(u.ResetToken, u.ResetExpiresAt, now)
}

// Profile is the 1:1 extension of User, removed with its owner
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	FirstName     string     `bun:"first_name,nullzero" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,nullzero" json:"last_name,omitempty"`
	Photo         string     `bun:"photo,nullzero" json:"photo,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProfileView is the public shape of a Profile
type ProfileView struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

// UserView is the only user representation handed out past the store.
// It carries no password hash and no tokens.
type UserView struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Username  string       `json:"username,omitempty"`
	IsActive  bool         `json:"is_active"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
	Profile   *ProfileView `json:"profile,omitempty"`
}

// NewUserView strips secrets from u
func NewUserView(u *User) *UserView {
	if u == nil {
		return nil
	}

	view := &UserView{
		ID:        u.ID.String(),
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	if u.Profile != nil && u.Profile.ID != uuid.Nil {
		view.Profile = &ProfileView{
			FirstName: u.Profile.FirstName,
			LastName:  u.Profile.LastName,
			Photo:     u.Profile.Photo,
		}
	}

	return view
}

// LoginResult is the user view augmented with a session token
type LoginResult struct {
	*UserView
	Token string `json:"token"`
}
