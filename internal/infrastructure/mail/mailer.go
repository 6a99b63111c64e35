package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/moneta/backend/internal/infrastructure/config"
)

// Message is an outgoing email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSMTPMailer creates an SMTP mailer from configuration
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

// Send delivers the message through the configured relay
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{msg.To}, []byte(b.String())); err != nil {
		m.logger.Error("failed to send mail",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("mail: send failed: %w", err)
	}

	m.logger.Debug("mail sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// LogMailer writes mail to the log instead of sending it. Used in
// development and when mail is disabled.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer that only logs
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message without delivering it
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail (delivery disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}

// NewMailer returns the SMTP mailer when mail is enabled, otherwise the
// log mailer
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Enabled {
		return NewSMTPMailer(cfg, logger)
	}
	return NewLogMailer(logger)
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
