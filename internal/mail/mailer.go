// Package mail sends transactional account mail over SMTP. All sends are
// best-effort: callers fire them asynchronously and only the log sees
// failures.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"

	gomail "github.com/wneessen/go-mail"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Notifier sends account mail. Each call is best-effort; the auth service
// never propagates send failures to the caller.
type Notifier interface {
	SendVerification(ctx context.Context, email, username, token string) error
	SendResetPassword(ctx context.Context, email, username, token string) error
	SendPasswordChanged(ctx context.Context, email, username string) error
}

// Config holds SMTP and link-building settings for the mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// ClientURL is the frontend base URL that verification and reset links
	// point at.
	ClientURL string
}

// Mailer implements Notifier over SMTP using embedded HTML templates.
type Mailer struct {
	client    *gomail.Client
	from      string
	clientURL string
	templates *template.Template
}

// NewMailer builds a Mailer from cfg. Returns an error on a malformed config
// or template; it does not dial the SMTP server.
func NewMailer(cfg Config) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("mail templates: %w", err)
	}
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return &Mailer{
		client:    client,
		from:      cfg.From,
		clientURL: cfg.ClientURL,
		templates: tmpl,
	}, nil
}

// SendVerification mails the email-verification link for a fresh or re-sent
// registration.
func (m *Mailer) SendVerification(ctx context.Context, email, username, token string) error {
	link := fmt.Sprintf("%s/verify?email=%s&token=%s",
		m.clientURL, url.QueryEscape(email), url.QueryEscape(token))
	return m.send(ctx, email, "Registration", "verification.html.tmpl", mailData{
		Username: username,
		Link:     link,
	}, true)
}

// SendResetPassword mails the password-reset link.
func (m *Mailer) SendResetPassword(ctx context.Context, email, username, token string) error {
	link := fmt.Sprintf("%s/reset?token=%s", m.clientURL, url.QueryEscape(token))
	return m.send(ctx, email, "Reset password", "reset_password.html.tmpl", mailData{
		Username: username,
		Link:     link,
	}, true)
}

// SendPasswordChanged notifies the user that their password was changed.
func (m *Mailer) SendPasswordChanged(ctx context.Context, email, username string) error {
	return m.send(ctx, email, "Password changed", "password_changed.html.tmpl", mailData{
		Username: username,
	}, false)
}

type mailData struct {
	Username string
	Link     string
}

func (m *Mailer) send(ctx context.Context, to, subject, templateName string, data mailData, highPriority bool) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("mail template %s: %w", templateName, err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	if highPriority {
		msg.SetImportance(gomail.ImportanceHigh)
	}
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	return m.client.DialAndSendWithContext(ctx, msg)
}
