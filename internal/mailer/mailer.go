// Package mailer sends transactional email. Delivery is decoupled from the
// request lifecycle by the Dispatcher; callers schedule a notification and
// never wait on (or fail because of) SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/models"
	mail "github.com/wneessen/go-mail"
)

// Notifier delivers a single transactional email.
type Notifier interface {
	SendWelcome(ctx context.Context, u *models.User, activationURL string) error
	SendPasswordRecovery(ctx context.Context, u *models.User, resetURL string) error
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<html><body>
<p>Hi {{.FirstName}},</p>
<p>Welcome! Please confirm your email address by following the link below.</p>
<p><a href="{{.URL}}">Confirm email account</a></p>
</body></html>`))

var recoveryTmpl = template.Must(template.New("recovery").Parse(`<html><body>
<p>Hi {{.FirstName}},</p>
<p>We received a request to reset your password. The link below is valid for a short time.</p>
<p><a href="{{.URL}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>
</body></html>`))

type templateData struct {
	FirstName string
	URL       string
}

// SMTPNotifier delivers mail over SMTP.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, u *models.User, activationURL string) error {
	return n.send(ctx, u, "Confirm email account", welcomeTmpl, activationURL)
}

func (n *SMTPNotifier) SendPasswordRecovery(ctx context.Context, u *models.User, resetURL string) error {
	return n.send(ctx, u, "Reset your password", recoveryTmpl, resetURL)
}

func (n *SMTPNotifier) send(ctx context.Context, u *models.User, subject string, tmpl *template.Template, url string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, templateData{FirstName: u.FirstName, URL: url}); err != nil {
		return fmt.Errorf("render email template: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(u.Email); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, body.String())

	opts := []mail.Option{mail.WithPort(n.cfg.Port)}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
