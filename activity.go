package account

import (
	"context"
	"time"
)

// ActivityEventType enumerates account lifecycle events.
type ActivityEventType string

const (
	ActivityEventUserRegistered         ActivityEventType = "account.registered"
	ActivityEventAccountConfirmed       ActivityEventType = "account.confirmed"
	ActivityEventConfirmationResent     ActivityEventType = "account.confirmation.resent"
	ActivityEventPasswordResetRequested ActivityEventType = "account.password.reset_requested"
	ActivityEventPasswordResetSuccess   ActivityEventType = "account.password.reset"
	ActivityEventLoginSuccess           ActivityEventType = "account.login.success"
	ActivityEventLoginFailure           ActivityEventType = "account.login.failure"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType `json:"event_type"`
	UserID     string            `json:"user_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func newUserActivity(eventType ActivityEventType, user *User, now time.Time) ActivityEvent {
	event := ActivityEvent{
		EventType:  eventType,
		OccurredAt: now,
	}
	if user != nil {
		event.UserID = user.ID.String()
		event.Email = user.Email
	}
	return event
}
