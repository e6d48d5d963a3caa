package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"weeklyplanner-auto/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Telegram delivers notifications through the bot HTTP API: sendMessage
// for text reports, sendDocument for diagnostic files.
type Telegram struct {
	http    *resty.Client
	chatId  string
	profile string
}

func NewTelegram(botToken, chatId, profile string) *Telegram {
	client := resty.New()
	client.SetBaseURL("https://api.telegram.org/bot" + botToken)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "notify/telegram")

	return &Telegram{
		http:    client,
		chatId:  chatId,
		profile: profile,
	}
}

func (t *Telegram) Info(ctx context.Context, message string) {
	t.send(ctx, "log", message)
}

func (t *Telegram) Error(ctx context.Context, message string) {
	t.send(ctx, "errorlog", message)
}

func (t *Telegram) send(ctx context.Context, status, message string) {
	if message == "" {
		message = "Nothing"
	}
	res, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.chatId,
			"parse_mode": "MarkdownV2",
			"text": fmt.Sprintf(
				"WeeklyPlanner\\-Auto Report [`%s`] for `%s`\n\n `%s`",
				status, t.profile, message,
			),
		}).
		Post("/sendMessage")
	if err != nil {
		slog.WarnContext(ctx, "telegram sendMessage failed", "err", err)
		return
	}
	if res.StatusCode() != http.StatusOK {
		slog.WarnContext(ctx, "telegram sendMessage rejected", "status", res.StatusCode(), "body", res.String())
	}
}

func (t *Telegram) Document(ctx context.Context, path string) {
	res, err := t.http.R().
		SetContext(ctx).
		SetQueryParam("chat_id", t.chatId).
		SetFile("document", path).
		Post("/sendDocument")
	if err != nil {
		slog.WarnContext(ctx, "telegram sendDocument failed", "path", path, "err", err)
		return
	}
	if res.StatusCode() != http.StatusOK {
		slog.WarnContext(ctx, "telegram sendDocument rejected", "path", path, "status", res.StatusCode(), "body", res.String())
	}
}
