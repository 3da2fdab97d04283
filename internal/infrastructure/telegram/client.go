package telegram

import (
	"os"
	"sync"

	"remindbot/internal/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Telegram Bot API client.
type Client struct {
	*tgbotapi.BotAPI
	log logger.Logger
}

var (
	clientInstance *Client
	once           sync.Once
)

// NewClient creates a new singleton instance of the Telegram Bot client.
// It reads the bot token from the environment.
func NewClient(log logger.Logger) *Client {
	once.Do(func() {
		token := os.Getenv("TELEGRAM_BOT_TOKEN")
		if token == "" {
			log.Error("TELEGRAM_BOT_TOKEN environment variable must be set", nil)
			os.Exit(1)
		}

		bot, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			log.Error("Failed to create Telegram Bot client", err)
			os.Exit(1)
		}
		log.Info("Authorized on Telegram as @" + bot.Self.UserName)
		clientInstance = &Client{
			BotAPI: bot,
			log:    log,
		}
	})
	return clientInstance
}

// SendText sends a plain text message to a chat.
func (c *Client) SendText(chatID int64, text string) error {
	_, err := c.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return err
	}
	c.log.Debug("Successfully sent message.")
	return nil
}

// SendWithKeyboard sends a text message together with a reply markup.
func (c *Client) SendWithKeyboard(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := c.Send(msg)
	if err != nil {
		return err
	}
	c.log.Debug("Successfully sent message with keyboard.")
	return nil
}

// Updates returns the long-polling update channel for inbound commands.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	return c.GetUpdatesChan(cfg)
}
