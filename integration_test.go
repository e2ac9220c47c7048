package account_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/goliatone/go-account"
	"github.com/goliatone/go-account/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/mattn/go-sqlite3"
)

type lifecycleEnv struct {
	db       *bun.DB
	repo     account.RepositoryManager
	notifier *capturingNotifier
	sink     *capturingSink
	svc      *account.Service
	tokens   *account.TokenService
}

func setupLifecycle(t *testing.T, opts ...account.Option) *lifecycleEnv {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, persistence.Migrate(context.Background(), db))

	env := &lifecycleEnv{
		db:       db,
		repo:     account.NewRepositoryManager(db),
		notifier: &capturingNotifier{},
		sink:     &capturingSink{},
		tokens:   account.NewTokenService([]byte("integration-secret"), time.Hour, "go-account", testLogger{}),
	}

	base := []account.Option{
		account.WithHasher(account.NewBcryptHasher(bcrypt.MinCost)),
		account.WithActivitySink(env.sink),
		account.WithLogger(testLogger{}),
	}
	env.svc = account.NewService(env.repo, env.notifier, env.tokens, append(base, opts...)...)

	t.Cleanup(func() {
		env.svc.Wait()
		_ = db.Close()
	})

	return env
}

func (e *lifecycleEnv) register(t *testing.T, email, password string) *account.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), account.RegisterUserMessage{
		Email:     email,
		Password:  password,
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	})
	require.NoError(t, err)
	return user
}

func (e *lifecycleEnv) countUsers(t *testing.T) int {
	t.Helper()
	n, err := e.db.NewSelect().Model((*account.User)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestLifecycle_RegisterPersistsUserProfileAndSendsToken(t *testing.T) {
	env := setupLifecycle(t)
	ctx := context.Background()
	email := gofakeit.Email()

	user := env.register(t, email, "secret-password")
	assert.False(t, user.IsActive)

	stored, err := env.repo.Users().FindByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.ID)
	assert.False(t, stored.IsActive)
	assert.Equal(t, user.ConfirmToken, stored.ConfirmToken)
	require.NotNil(t, stored.Profile)
	assert.Equal(t, user.Profile.FirstName, stored.Profile.FirstName)

	assert.Equal(t, 1, env.notifier.count())
	sent, _ := env.notifier.last()
	assert.Equal(t, stored.ConfirmToken, sent.Token)

	_, err = env.svc.Register(ctx, account.RegisterUserMessage{Email: email, Password: "other-password"})
	require.ErrorIs(t, err, account.ErrUserAlreadyExists)
	assert.Equal(t, 1, env.countUsers(t))
}

func TestLifecycle_RegisterRollsBackWhenNotifierFails(t *testing.T) {
	env := setupLifecycle(t)
	env.notifier.err = errors.New("mail provider unreachable")
	email := gofakeit.Email()

	_, err := env.svc.Register(context.Background(), account.RegisterUserMessage{
		Email:     email,
		Password:  "secret-password",
		FirstName: "F",
		LastName:  "L",
	})
	requireTextCode(t, err, account.TextCodeRegistrationFailed)

	stored, err := env.repo.Users().FindByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Zero(t, env.countUsers(t))

	profiles, err := env.db.NewSelect().Model((*account.Profile)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, profiles)
}

func TestLifecycle_ConfirmScenario(t *testing.T) {
	env := setupLifecycle(t)
	ctx := context.Background()

	user := env.register(t, "a@x.com", "pw-secret")
	assert.False(t, user.IsActive)

	confirmed, err := env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.NoError(t, err)
	assert.True(t, confirmed.IsActive)

	_, err = env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.ErrorIs(t, err, account.ErrAlreadyConfirmed)

	_, err = env.svc.ResendConfirmation(ctx, "a@x.com")
	require.ErrorIs(t, err, account.ErrAlreadyConfirmed)
}

func TestLifecycle_ExpiredConfirmToken(t *testing.T) {
	clock := time.Now().UTC()
	env := setupLifecycle(t, account.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	user := env.register(t, gofakeit.Email(), "pw-secret")

	clock = clock.Add(account.DefaultConfirmTokenTTL + time.Second)
	_, err := env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.ErrorIs(t, err, account.ErrConfirmTokenExpired)

	resent, err := env.svc.ResendConfirmation(ctx, user.Email)
	require.NoError(t, err)
	assert.NotEqual(t, user.ConfirmToken, resent.ConfirmToken)

	// the replaced token no longer resolves
	_, err = env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.ErrorIs(t, err, account.ErrUserNotFound)

	confirmed, err := env.svc.ConfirmAccount(ctx, resent.ConfirmToken)
	require.NoError(t, err)
	assert.True(t, confirmed.IsActive)
}

func TestLifecycle_LoginRules(t *testing.T) {
	env := setupLifecycle(t)
	ctx := context.Background()
	email := gofakeit.Email()

	user := env.register(t, email, "correct-horse")

	_, err := env.svc.Login(ctx, email, "correct-horse")
	require.ErrorIs(t, err, account.ErrUserNotActive)

	_, err = env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.NoError(t, err)

	result, err := env.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, email, result.Email)

	claims, err := env.tokens.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, email, claims.Subject())

	_, wrongErr := env.svc.Login(ctx, email, "wrong-horse")
	_, ghostErr := env.svc.Login(ctx, "ghost@example.com", "correct-horse")
	require.ErrorIs(t, wrongErr, account.ErrInvalidCredentials)
	require.ErrorIs(t, ghostErr, account.ErrInvalidCredentials)
	assert.Equal(t, wrongErr.Error(), ghostErr.Error())
}

func TestLifecycle_PasswordResetScenario(t *testing.T) {
	env := setupLifecycle(t)
	ctx := context.Background()

	user := env.register(t, "a@x.com", "old-password")

	// inactive accounts may reset
	requested, err := env.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	t1 := requested.ResetToken
	require.NotEmpty(t, t1)

	env.svc.Wait()
	sent, ok := env.notifier.last()
	require.True(t, ok)
	assert.Equal(t, account.NotificationReset, sent.Kind)
	assert.Equal(t, t1, sent.Token)

	checked, err := env.svc.CheckResetLink(ctx, t1)
	require.NoError(t, err)
	assert.Equal(t, user.ID, checked.ID)

	_, err = env.svc.ResetPassword(ctx, t1, "newpw-secret")
	require.NoError(t, err)

	_, err = env.svc.CheckResetLink(ctx, t1)
	require.ErrorIs(t, err, account.ErrResetTokenExpired)

	_, err = env.svc.ResetPassword(ctx, t1, "another-password")
	require.ErrorIs(t, err, account.ErrResetTokenExpired)

	_, err = env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.NoError(t, err)

	_, err = env.svc.ValidateCredentials(ctx, "a@x.com", "old-password")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)
	_, err = env.svc.ValidateCredentials(ctx, "a@x.com", "newpw-secret")
	require.NoError(t, err)
}

func TestLifecycle_ForgotPasswordSurvivesNotifierFailure(t *testing.T) {
	env := setupLifecycle(t)
	ctx := context.Background()
	email := gofakeit.Email()

	env.register(t, email, "secret-password")
	env.notifier.err = errors.New("mail provider unreachable")

	requested, err := env.svc.ForgotPassword(ctx, email)
	require.NoError(t, err)
	env.svc.Wait()

	checked, err := env.svc.CheckResetLink(ctx, requested.ResetToken)
	require.NoError(t, err)
	assert.Equal(t, email, checked.Email)
}

func TestLifecycle_Me(t *testing.T) {
	env := setupLifecycle(t)
	user := env.register(t, gofakeit.Email(), "secret-password")

	me, err := env.svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)
	require.NotNil(t, me.Profile)

	view := account.NewUserView(me)
	assert.Equal(t, user.ID.String(), view.ID)
	require.NotNil(t, view.Profile)
	assert.Equal(t, user.Profile.LastName, view.Profile.LastName)
}

func TestLifecycle_ActivityTrail(t *testing.T) {
	env := setupLifecycle(t)
	ctx := context.Background()
	email := gofakeit.Email()

	user := env.register(t, email, "secret-password")
	_, err := env.svc.ConfirmAccount(ctx, user.ConfirmToken)
	require.NoError(t, err)
	_, err = env.svc.Login(ctx, email, "secret-password")
	require.NoError(t, err)

	assert.Equal(t, []account.ActivityEventType{
		account.ActivityEventUserRegistered,
		account.ActivityEventAccountConfirmed,
		account.ActivityEventLoginSuccess,
	}, env.sink.types())
}
