package account

import (
	"context"
	"net/url"
	"strings"
)

// NotificationKind selects the mail template
type NotificationKind string

const (
	NotificationConfirm NotificationKind = "confirm"
	NotificationReset   NotificationKind = "reset"
)

// Notification is a single outbound message
type Notification struct {
	Kind      NotificationKind
	Recipient string
	Token     string
}

// Notifier delivers lifecycle mail. Failures should be reported with
// NotificationError so callers can tell confirm and reset sends apart.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

// NotificationLink builds the client URL embedded in the message:
// {base}/confirm-account/{token} or {base}/reset-password/{token}
func NotificationLink(baseURL string, n Notification) string {
	path := "confirm-account"
	if n.Kind == NotificationReset {
		path = "reset-password"
	}
	return strings.TrimRight(baseURL, "/") + "/" + path + "/" + url.PathEscape(n.Token)
}

// LogNotifier writes notifications to the logger instead of sending them.
// Meant for local development.
type LogNotifier struct {
	logger    Logger
	clientURL string
}

func NewLogNotifier(logger Logger, clientURL string) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger, clientURL: clientURL}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Notification) error {
	if err := ctx.Err(); err != nil {
		return NotificationError(msg.Kind, err)
	}

	n.logger.Info("sending email notification",
		"kind", string(msg.Kind),
		"to", msg.Recipient,
		"link", NotificationLink(n.clientURL, msg),
	)
	return nil
}
