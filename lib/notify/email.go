package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type EmailConfig struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Address  string `json:"address"`
	Password string `json:"password"`
	To       string `json:"to"`
}

// Email delivers notifications over SMTP, for deployments without a
// telegram bot.
type Email struct {
	config EmailConfig
}

func NewEmail(config EmailConfig) *Email {
	return &Email{config: config}
}

func (e *Email) Info(ctx context.Context, message string) {
	e.send(ctx, "report", message, "")
}

func (e *Email) Error(ctx context.Context, message string) {
	e.send(ctx, "error report", message, "")
}

func (e *Email) Document(ctx context.Context, path string) {
	e.send(ctx, "diagnostic file", "See the attached diagnostic file.", path)
}

func (e *Email) send(ctx context.Context, subject, body, attachment string) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("WeeklyPlanner Auto <%s>", e.config.Address)
	mail.To = []string{e.config.To}
	mail.Subject = "WeeklyPlanner Auto " + subject
	mail.Text = []byte(body)
	if attachment != "" {
		_, err := mail.AttachFile(attachment)
		if err != nil {
			slog.WarnContext(ctx, "failed to attach diagnostic file", "path", attachment, "err", err)
		}
	}

	err := mail.Send(
		fmt.Sprintf("%s:%d", e.config.Server, e.config.Port),
		smtp.PlainAuth("", e.config.Address, e.config.Password, e.config.Server),
	)
	if err != nil {
		slog.WarnContext(ctx, "failed to send notification email", "err", err)
	}
}
