// Package natssink publishes account activity events to NATS subjects.
package natssink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-account"
	"github.com/goliatone/go-account/activitymap"
	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "account.activity"

// Publisher is the part of *nats.Conn the sink uses
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Sink implements account.ActivitySink. Each event is normalized and goes
// to {prefix}.{event type}, e.g. account.activity.account.registered
type Sink struct {
	pub    Publisher
	prefix string
	opts   []activitymap.Option
}

var _ account.ActivitySink = (*Sink)(nil)

func New(pub Publisher, prefix string, opts ...activitymap.Option) *Sink {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Sink{pub: pub, prefix: prefix, opts: opts}
}

func (s *Sink) Record(ctx context.Context, event account.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(activitymap.Normalize(event, s.opts...))
	if err != nil {
		return fmt.Errorf("encode activity event: %w", err)
	}

	if err := s.pub.Publish(s.Subject(event.EventType), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType, err)
	}
	return nil
}

// Subject returns the subject eventType is published to
func (s *Sink) Subject(eventType account.ActivityEventType) string {
	return s.prefix + "." + string(eventType)
}

// Connect dials url with reconnect settings suited to a long lived service
func Connect(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}
