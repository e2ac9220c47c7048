// Package sendgrid delivers account notifications through SendGrid dynamic
// templates.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/goliatone/go-account"
	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	DefaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"

	// template variables holding the client link
	ConfirmLinkKey = "confirmAccountTokenUrl"
	ResetLinkKey   = "resetTokenUrl"
)

type Config struct {
	APIKey            string
	Host              string
	FromEmail         string
	FromName          string
	ConfirmTemplateID string
	ResetTemplateID   string
	// ClientURL is the public frontend base used to build links
	ClientURL string
}

// Notifier implements account.Notifier
type Notifier struct {
	cfg    Config
	logger account.Logger
	send   func(ctx context.Context, req rest.Request) (*rest.Response, error)
}

var _ account.Notifier = (*Notifier)(nil)

func New(cfg Config, logger account.Logger) *Notifier {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if logger == nil {
		logger = account.NewSlogLogger(nil)
	}
	return &Notifier{
		cfg:    cfg,
		logger: logger,
		send:   sg.MakeRequestWithContext,
	}
}

// Notify sends n using the template of its kind. Any failure, including a
// non 2xx answer, is returned as a typed notification error.
func (s *Notifier) Notify(ctx context.Context, n account.Notification) error {
	req, err := s.request(n)
	if err != nil {
		return account.NotificationError(n.Kind, err)
	}

	res, err := s.send(ctx, req)
	if err != nil {
		return account.NotificationError(n.Kind, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		s.logger.Error("sendgrid rejected message",
			"kind", string(n.Kind),
			"status", res.StatusCode,
			"body", res.Body,
		)
		return account.NotificationError(n.Kind, fmt.Errorf("sendgrid responded with status %d", res.StatusCode))
	}

	s.logger.Debug("email sent", "kind", string(n.Kind), "to", n.Recipient)
	return nil
}

func (s *Notifier) request(n account.Notification) (rest.Request, error) {
	templateID, linkKey := s.cfg.ConfirmTemplateID, ConfirmLinkKey
	if n.Kind == account.NotificationReset {
		templateID, linkKey = s.cfg.ResetTemplateID, ResetLinkKey
	}
	if templateID == "" {
		return rest.Request{}, fmt.Errorf("no sendgrid template for %s notifications", n.Kind)
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail))
	m.SetTemplateID(templateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", n.Recipient))
	p.SetDynamicTemplateData(linkKey, account.NotificationLink(s.cfg.ClientURL, n))
	m.AddPersonalizations(p)

	req := sg.GetRequest(s.cfg.APIKey, sendEndpoint, s.cfg.Host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(m)
	return req, nil
}
