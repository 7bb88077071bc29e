package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes order alerts to the shop operator's chat. It is
// optional; a nil notifier is safe to call and does nothing.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	dedupe *Deduper
	log    zerolog.Logger
}

// NewTelegramNotifier connects the bot. An empty token or chat id disables
// the channel without error.
func NewTelegramNotifier(token string, chatID int64, log zerolog.Logger) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		dedupe: NewDeduper(2 * time.Minute),
		log:    log,
	}, nil
}

// OrderPlaced sends the order summary, best effort. Duplicate summaries
// within the dedupe window are dropped.
func (n *TelegramNotifier) OrderPlaced(message string) {
	if n == nil {
		return
	}
	if !n.dedupe.ShouldSend("order", message) {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn().Err(err).Msg("failed to send telegram order alert")
	}
}
