package activitymap_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-account"
	"github.com/goliatone/go-account/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := account.ActivityEvent{
		EventType: account.ActivityEventLoginFailure,
		UserID:    "user-100",
		Email:     "jane@example.com",
		Metadata: map[string]any{
			"reason": "invalid_credentials",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "user-100" {
		t.Fatalf("expected actor_id user-100, got %q", out.ActorID)
	}
	if out.Verb != string(account.ActivityEventLoginFailure) {
		t.Fatalf("expected verb %q, got %q", account.ActivityEventLoginFailure, out.Verb)
	}
	if out.ObjectType != "user" {
		t.Fatalf("expected object_type user, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-100" {
		t.Fatalf("expected object_id user-100, got %q", out.ObjectID)
	}
	if out.Channel != "account" {
		t.Fatalf("expected channel account, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}
	if out.Metadata["reason"] != "invalid_credentials" {
		t.Fatalf("expected metadata reason, got %#v", out.Metadata["reason"])
	}
	if out.Metadata[activitymap.MetadataKeyEmail] != "jane@example.com" {
		t.Fatalf("expected metadata email, got %#v", out.Metadata[activitymap.MetadataKeyEmail])
	}

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := account.ActivityEvent{
		EventType: account.ActivityEventPasswordResetRequested,
		UserID:    "user-200",
		Metadata: map[string]any{
			"request_id":                 "req-1",
			activitymap.MetadataKeyEmail: "existing@example.com",
		},
		Email: "jane@example.com",
	}

	out := activitymap.Normalize(
		event,
		activitymap.WithDefaultChannel("security"),
		activitymap.WithDefaultObjectType("account"),
		activitymap.WithObjectIDResolver(func(e account.ActivityEvent) string {
			if v, ok := e.Metadata["request_id"].(string); ok {
				return v
			}
			return ""
		}),
	)

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "req-1" {
		t.Fatalf("expected object_id req-1, got %q", out.ObjectID)
	}
	if out.Metadata[activitymap.MetadataKeyEmail] != "existing@example.com" {
		t.Fatalf("expected existing email preserved, got %#v", out.Metadata[activitymap.MetadataKeyEmail])
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActorFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  account.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses user id when present",
			event:  account.ActivityEvent{UserID: "user-1"},
			expect: "user-1",
		},
		{
			name:   "uses default fallback for unknown users",
			event:  account.ActivityEvent{Email: "ghost@example.com"},
			expect: "anonymous",
		},
		{
			name:   "uses configured fallback",
			event:  account.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("system")},
			expect: "system",
		},
		{
			name:   "ignores blank fallback",
			event:  account.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("  ")},
			expect: "anonymous",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}
