package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user store. Finders return a nil user and a nil error on
// a miss.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByConfirmToken(ctx context.Context, token string) (*User, error)
	FindByResetToken(ctx context.Context, token string) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Save(ctx context.Context, record *User, columns ...string) (*User, error)
	SaveTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error)
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
	now  func() time.Time
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		repo: repo,
		db:   db,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}
	return a.findOne(ctx, tx, "email", email)
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return a.findOne(ctx, a.db, "id", id)
}

func (a *users) FindByConfirmToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	return a.findOne(ctx, a.db, "confirm_token", token)
}

func (a *users) FindByResetToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	return a.findOne(ctx, a.db, "reset_token", token)
}

func (a *users) findOne(ctx context.Context, tx bun.IDB, column string, value any) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Profile").
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) || repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

// CreateTx inserts record, assigning an id and timestamps when missing
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record, a.now())
	return a.repo.CreateTx(ctx, tx, record)
}

func (a *users) Save(ctx context.Context, record *User, columns ...string) (*User, error) {
	return a.SaveTx(ctx, a.db, record, columns...)
}

// SaveTx writes the given columns of record, or every column when none are
// named, and returns the stored row.
func (a *users) SaveTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error) {
	if record == nil || record.ID == uuid.Nil {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"table": "users",
		})
	}

	now := a.now()
	record.UpdatedAt = &now

	q := tx.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(append(columns, "updated_at")...)
	} else {
		q = q.ExcludeColumn("id", "created_at")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"table": "users",
			"id":    record.ID.String(),
		})
	}

	return a.findOne(ctx, tx, "id", record.ID)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func prepareUserDefaults(user *User, now time.Time) {
	if user == nil {
		return
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	if user.UpdatedAt == nil {
		user.UpdatedAt = &now
	}
}
