package scheduler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"

	"nova-ai-bot/internal/messages"
)

// TelegramNotifier delivers sweep notifications through the bot,
// translating Telegram's "blocked by the user" failure into ErrBotBlocked.
type TelegramNotifier struct {
	bot *bot.Bot
}

func NewTelegramNotifier(b *bot.Bot) *TelegramNotifier {
	return &TelegramNotifier{bot: b}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	if blockedByUser(err) {
		return ErrBotBlocked
	}
	return err
}

// blockedByUser matches the 403 the API returns once a user blocks the
// bot. The description check stays as a fallback for errors that reach
// us unwrapped.
func blockedByUser(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, bot.ErrorForbidden) {
		return true
	}
	return strings.Contains(err.Error(), "bot was blocked by the user")
}
