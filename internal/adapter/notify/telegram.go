package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*TelegramChannel)(nil)

// TelegramChannel messages donors who linked a Telegram chat.
type TelegramChannel struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel authenticates the bot token. An empty endpoint uses
// the public Bot API; a nil client uses http.DefaultClient.
func NewTelegramChannel(token, endpoint string, client *http.Client) (*TelegramChannel, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot}, nil
}

// Send delivers the request text to the donor's chat.
func (c *TelegramChannel) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	if donor.TelegramChatID == 0 {
		return ErrNoAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(donor.TelegramChatID, Text(donor, summary))
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
