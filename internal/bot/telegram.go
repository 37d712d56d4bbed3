package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-bot/internal/habit"
	"habit-bot/pkg/logger"
)

// userIDPrefix qualifies Telegram chat IDs into channel-qualified addresses,
// the key the store uses.
const userIDPrefix = "telegram:"

// TelegramBot is the inbound/outbound messaging adapter. Every message runs
// through the habit pipeline; it holds no conversation state of its own.
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	service *habit.Service
	logger  *logger.Logger
}

func NewTelegramBot(token string, service *habit.Service, logger *logger.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info("Authorized on Telegram", "username", bot.Self.UserName)

	return &TelegramBot{
		bot:     bot,
		service: service,
		logger:  logger,
	}, nil
}

// UserID converts a Telegram chat ID into the channel-qualified address.
func UserID(chatID int64) string {
	return userIDPrefix + strconv.FormatInt(chatID, 10)
}

// Start begins receiving updates from Telegram via polling.
func (t *TelegramBot) Start(ctx context.Context) error {
	// Remove any existing webhook so polling works.
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

// handleUpdates processes incoming updates, one goroutine per update.
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go func(update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("Recovered from panic while processing update", "error", r)
				}
			}()

			if update.Message == nil || update.Message.Text == "" {
				return
			}
			t.handleMessage(ctx, update.Message)
		}(update)
	}
}

func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := UserID(chatID)

	t.logger.Info("Received message",
		"user_id", userID,
		"from", message.From.UserName,
		"text", message.Text)

	text, err := t.service.HandleMessage(ctx, userID, message.Text)
	if err != nil {
		// Store failure: nothing was committed for this message.
		reply := tgbotapi.NewMessage(chatID, "Sorry, something went wrong on my end. Please try again in a bit!")
		if _, sendErr := t.bot.Send(reply); sendErr != nil {
			t.logger.Error("Failed to send error reply", "user_id", userID, "error", sendErr)
		}
		return
	}

	// State is committed; a delivery failure is logged and not retried.
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		t.logger.Error("Failed to send reply", "user_id", userID, "error", err)
	}
}

// Send delivers an outbound message to a channel-qualified address. It serves
// the reminder scheduler and the HTTP webhook path.
func (t *TelegramBot) Send(ctx context.Context, userID, text string) error {
	raw, ok := strings.CutPrefix(userID, userIDPrefix)
	if !ok {
		return fmt.Errorf("not a telegram address: %s", userID)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram address %s: %w", userID, err)
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send to %s: %w", userID, err)
	}
	return nil
}

// Stop gracefully shuts down the bot.
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()

	// Allow time for in-flight handlers to complete.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}
