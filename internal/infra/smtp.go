package infra

import (
	"fmt"
	"net/smtp"

	"retailworks/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for outbound notifications. Sends go through
// a circuit breaker so an unreachable relay fails fast instead of stalling workers.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
	breaker  *RelayBreaker
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPUser
	if from == "" {
		from = "retailworks@localhost"
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     from,
		breaker:  NewRelayBreaker(RelayBreakerConfig{Name: "smtp"}),
	}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool { return m.host != "" }

// BreakerState exposes the relay circuit state for health checks.
func (m *Mailer) BreakerState() CircuitState { return m.breaker.State() }

// Send delivers a plain-text message with an optional attachment.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.Do(func() error {
		return e.Send(m.addr, auth)
	})
}
