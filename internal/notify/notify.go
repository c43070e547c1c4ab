// Package notify pushes operator alerts over Telegram. The bot works fine
// without it; everything here is optional and best-effort.
package notify

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends plain-text messages to the operator's chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	slog.Info("telegram notifier authorized", "account", bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Send delivers the text to the operator chat. Failures are logged and
// swallowed; alerting must never break a sweep.
func (n *Notifier) Send(text string) {
	if n == nil {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		slog.Warn("telegram alert failed", "error", err)
	}
}
