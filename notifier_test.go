package account_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-account"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLink(t *testing.T) {
	confirm := account.Notification{Kind: account.NotificationConfirm, Token: "abc"}
	reset := account.Notification{Kind: account.NotificationReset, Token: "xyz"}

	assert.Equal(t, "https://app.example.com/confirm-account/abc", account.NotificationLink("https://app.example.com/", confirm))
	assert.Equal(t, "https://app.example.com/reset-password/xyz", account.NotificationLink("https://app.example.com", reset))
}

func TestLogNotifier(t *testing.T) {
	logger := &MockLogger{}
	logger.On("Info", "sending email notification", []any{
		"kind", "confirm",
		"to", "jane@example.com",
		"link", "http://localhost:4200/confirm-account/abc",
	}).Once()

	n := account.NewLogNotifier(logger, "http://localhost:4200")
	err := n.Notify(context.Background(), account.Notification{
		Kind:      account.NotificationConfirm,
		Recipient: "jane@example.com",
		Token:     "abc",
	})
	require.NoError(t, err)
	logger.AssertExpectations(t)
}

func TestLogNotifier_CancelledContext(t *testing.T) {
	n := account.NewLogNotifier(testLogger{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Notify(ctx, account.Notification{Kind: account.NotificationReset})
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, account.TextCodeResetEmailNotSent, richErr.TextCode)
}

func TestNotifierFunc(t *testing.T) {
	var got account.Notification
	f := account.NotifierFunc(func(ctx context.Context, n account.Notification) error {
		got = n
		return nil
	})

	require.NoError(t, f.Notify(context.Background(), account.Notification{Token: "t"}))
	assert.Equal(t, "t", got.Token)

	var nilFunc account.NotifierFunc
	assert.NoError(t, nilFunc.Notify(context.Background(), account.Notification{}))
}
