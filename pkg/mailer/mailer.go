package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Message is the single shape accepted by every Mailer implementation.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Validate checks the message has a deliverable recipient and content
func (m *Message) Validate() error {
	if !strings.Contains(m.To, "@") || strings.ContainsAny(m.To, "<>") {
		return fmt.Errorf("invalid recipient email address")
	}
	if m.Subject == "" || m.HTML == "" {
		return fmt.Errorf("missing subject or html content")
	}
	return nil
}

// Mailer delivers email. Implementations are fire-and-forget collaborators:
// callers log failures and never let them affect the request outcome.
type Mailer interface {
	Send(msg *Message) error
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer creates an SMTP-backed mailer
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers the message via SMTP
func (m *SMTPMailer) Send(msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("From: GoBus <%s>\r\n", m.from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	if err := smtp.SendMail(addr, auth, m.from, []string{msg.To}, []byte(body.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// DevMailer logs mail instead of sending it. Used when SMTP is not
// configured.
type DevMailer struct {
	logger *logrus.Logger
}

// NewDevMailer creates a logging-only mailer
func NewDevMailer(logger *logrus.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

// Send logs the message and reports success
func (m *DevMailer) Send(msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Dev mailer: email suppressed")
	return nil
}
