// Package email sends account mail: password-reset links and change notices.
package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Mailer delivers account mail. resetURL already carries the token.
type Mailer interface {
	SendPasswordResetEmail(to, resetURL string, expiresIn time.Duration) error
	SendPasswordChangedEmail(to string) error
}

// NewMailer returns an SMTP mailer when a host is configured, otherwise a
// mailer that only logs.
func NewMailer(cfg config.EmailConfig, log logger.Interface) Mailer {
	if !cfg.Enabled() {
		log.Warnw("smtp host not configured, mail will only be logged")
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg, log)
}

type SMTPMailer struct {
	config config.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPMailer(cfg config.EmailConfig, log logger.Interface) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		logger: log,
	}
}

var resetHTML = template.Must(template.New("reset").Parse(`<html>
<body>
	<h2>Password Reset Request</h2>
	<p>We received a request to reset your helpdesk password. Click the link below to choose a new one:</p>
	<p><a href="{{.URL}}">Reset Password</a></p>
	<p>Or copy and paste this URL into your browser:</p>
	<p>{{.URL}}</p>
	<p>This link will expire in {{.Minutes}} minutes.</p>
	<p>If you didn't request a password reset, you can ignore this email.</p>
</body>
</html>`))

func (s *SMTPMailer) SendPasswordResetEmail(to, resetURL string, expiresIn time.Duration) error {
	m, err := s.passwordResetMessage(to, resetURL, expiresIn)
	if err != nil {
		return err
	}
	return s.send(m)
}

func (s *SMTPMailer) passwordResetMessage(to, resetURL string, expiresIn time.Duration) (*gomail.Message, error) {
	minutes := int(expiresIn.Minutes())

	var html strings.Builder
	if err := resetHTML.Execute(&html, struct {
		URL     string
		Minutes int
	}{resetURL, minutes}); err != nil {
		return nil, fmt.Errorf("failed to render reset email: %w", err)
	}

	plain := fmt.Sprintf(`Password Reset Request

We received a request to reset your helpdesk password. Visit the following URL to choose a new one:
%s

This link will expire in %d minutes.

If you didn't request a password reset, you can ignore this email.
`, resetURL, minutes)

	return s.message(to, "Reset Your Password", html.String(), plain), nil
}

func (s *SMTPMailer) SendPasswordChangedEmail(to string) error {
	html := `<html>
<body>
	<h2>Password Changed</h2>
	<p>Your helpdesk password has been changed and all sessions were signed out.</p>
	<p>If you didn't make this change, please contact support immediately.</p>
</body>
</html>`
	plain := `Password Changed

Your helpdesk password has been changed and all sessions were signed out.

If you didn't make this change, please contact support immediately.
`
	return s.send(s.message(to, "Password Changed", html, plain))
}

func (s *SMTPMailer) message(to, subject, htmlBody, plainBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)
	return m
}

func (s *SMTPMailer) send(m *gomail.Message) error {
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Errorw("failed to send email", "to", m.GetHeader("To"), "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infow("email sent", "to", m.GetHeader("To"), "subject", m.GetHeader("Subject"))
	return nil
}

// SentMail is a message captured by LogMailer.
type SentMail struct {
	To      string
	Subject string
	URL     string
}

// LogMailer logs mail instead of sending it and keeps the last messages for
// inspection.
type LogMailer struct {
	logger logger.Interface
	mu     sync.Mutex
	sent   []SentMail
}

func NewLogMailer(log logger.Interface) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) SendPasswordResetEmail(to, resetURL string, expiresIn time.Duration) error {
	m.record(SentMail{To: to, Subject: "Reset Your Password", URL: resetURL})
	m.logger.Infow("password reset email", "to", to, "url", resetURL, "expires_in", expiresIn)
	return nil
}

func (m *LogMailer) SendPasswordChangedEmail(to string) error {
	m.record(SentMail{To: to, Subject: "Password Changed"})
	m.logger.Infow("password changed email", "to", to)
	return nil
}

func (m *LogMailer) record(mail SentMail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	if len(m.sent) > 100 {
		m.sent = m.sent[len(m.sent)-100:]
	}
}

// Sent returns captured mail, oldest first.
func (m *LogMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}
