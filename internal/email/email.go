package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/resend/resend-go/v2"
)

// Template identifiers understood by Send.
const (
	TemplateVerifyEmail   = "verify_email"
	TemplatePasswordReset = "password_reset"
)

type Message struct {
	TemplateID string
	To         string
	Variables  map[string]string
}

// Sender dispatches a transactional email. Callers treat failures as
// non-fatal: the owning flow logs the error and carries on.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type emailTemplate struct {
	subject string
	html    *template.Template
}

var templates = map[string]emailTemplate{
	TemplateVerifyEmail: {
		subject: "Verify your email address",
		html: template.Must(template.New(TemplateVerifyEmail).Parse(
			`<p>Welcome to Rentloop! Confirm your email address to activate your account:</p>` +
				`<p><a href="{{.Link}}">{{.Link}}</a></p>` +
				`<p>The link expires in {{.TTL}}.</p>`,
		)),
	},
	TemplatePasswordReset: {
		subject: "Reset your password",
		html: template.Must(template.New(TemplatePasswordReset).Parse(
			`<p>We received a request to reset your password:</p>` +
				`<p><a href="{{.Link}}">{{.Link}}</a></p>` +
				`<p>The link expires in {{.TTL}}. If you did not ask for this, ignore this email.</p>`,
		)),
	},
}

func render(msg Message) (subject, html string, err error) {
	tpl, ok := templates[msg.TemplateID]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", msg.TemplateID)
	}
	var buf bytes.Buffer
	if err := tpl.html.Execute(&buf, msg.Variables); err != nil {
		return "", "", fmt.Errorf("render template %q: %w", msg.TemplateID, err)
	}
	return tpl.subject, buf.String(), nil
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (local dev)", "template", msg.TemplateID, "to", msg.To, "variables", msg.Variables)
	return nil
}

// ResendSender sends emails via the Resend API in staging and production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	subject, html, err := render(msg)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}
