package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"
)

// Mailer delivers transactional mail over plain SMTP (Mailpit in
// development).
type Mailer struct {
	addr   string
	from   string
	logger *slog.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	return &Mailer{addr: fmt.Sprintf("%s:%d", host, port), from: from, logger: logger}
}

// Send delivers a single message.
func (m *Mailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

// Handle processes TaskTypeSendEmail tasks.
func (m *Mailer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := unmarshalPayload(t, &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := m.Send(payload.To, payload.Subject, payload.Body); err != nil {
		m.logger.Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	m.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
