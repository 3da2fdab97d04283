package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"remindbot/internal/application/service"
	"remindbot/internal/infrastructure/telegram"
	appErrors "remindbot/internal/pkg/errors"
	"remindbot/internal/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler dispatches inbound Telegram updates to the scheduler service and
// renders its results. It owns all user-facing text; the service owns the state.
type Handler struct {
	client       *telegram.Client
	schedulerSvc service.SchedulerService
	log          logger.Logger
}

// NewHandler creates the Telegram command handler.
func NewHandler(client *telegram.Client, schedulerSvc service.SchedulerService, log logger.Logger) *Handler {
	return &Handler{
		client:       client,
		schedulerSvc: schedulerSvc,
		log:          log,
	}
}

// Run consumes the long-polling update channel until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) {
	updates := h.client.Updates()
	for {
		select {
		case <-ctx.Done():
			h.log.Info("Update loop stopping.")
			return
		case update, ok := <-updates:
			if !ok {
				h.log.Warn("Update channel closed.")
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(ctx, update.Message.Chat.ID, update.Message.Command(), update.Message.CommandArguments())
	case update.Message != nil:
		h.handleText(ctx, update.Message.Chat.ID, update.Message.Text)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "start", "help":
		h.reply(chatID, textWelcome, mainKeyboard())
	case "remind_on":
		h.handleEnable(ctx, chatID)
	case "remind_off":
		h.handleDisable(ctx, chatID)
	case "done":
		h.handleAcknowledge(ctx, chatID)
	case "interval":
		h.handleInterval(ctx, chatID, args)
	case "status":
		h.handleStatus(ctx, chatID)
	}
}

// handleText maps keyboard button presses onto commands.
func (h *Handler) handleText(ctx context.Context, chatID int64, text string) {
	switch strings.TrimSpace(text) {
	case buttonOn:
		h.handleEnable(ctx, chatID)
	case buttonOff:
		h.handleDisable(ctx, chatID)
	case buttonDone:
		h.handleAcknowledge(ctx, chatID)
	case buttonStatus:
		h.handleStatus(ctx, chatID)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	// Dismiss the loading spinner regardless of outcome.
	if _, err := h.client.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.log.Error("Failed to answer callback query", err)
	}

	data := cb.Data
	switch {
	case data == callbackAck:
		h.handleAcknowledge(ctx, chatID)
	case strings.HasPrefix(data, callbackIntervalPrefix):
		h.handleInterval(ctx, chatID, strings.TrimPrefix(data, callbackIntervalPrefix))
	}
}

func (h *Handler) handleEnable(ctx context.Context, chatID int64) {
	result, err := h.schedulerSvc.Enable(ctx, chatID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	text := fmt.Sprintf(textEnabled, result.IntervalMinutes)
	if result.AlreadyActive {
		text = fmt.Sprintf(textReEnabled, result.IntervalMinutes)
	}
	h.reply(chatID, text, mainKeyboard())
}

func (h *Handler) handleDisable(ctx context.Context, chatID int64) {
	if err := h.schedulerSvc.Disable(ctx, chatID); err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, textDisabled, nil)
}

func (h *Handler) handleAcknowledge(ctx context.Context, chatID int64) {
	if err := h.schedulerSvc.Acknowledge(ctx, chatID); err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, textAcknowledged, nil)
}

func (h *Handler) handleInterval(ctx context.Context, chatID int64, args string) {
	args = strings.TrimSpace(args)
	if args == "" {
		h.reply(chatID, textIntervalUsage, intervalKeyboard())
		return
	}

	minutes, err := parseIntervalArg(args)
	if err != nil {
		h.reply(chatID, textInvalidMinutes, nil)
		return
	}

	result, err := h.schedulerSvc.SetInterval(ctx, chatID, minutes)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	text := fmt.Sprintf(textIntervalSet, result.IntervalMinutes)
	if result.Restarted {
		text = fmt.Sprintf(textIntervalReset, result.IntervalMinutes)
	}
	h.reply(chatID, text, nil)
}

func (h *Handler) handleStatus(ctx context.Context, chatID int64) {
	status, err := h.schedulerSvc.Status(ctx, chatID)
	if err != nil {
		if errors.Is(err, appErrors.ErrChatNotFound) {
			h.reply(chatID, textNoSettings, nil)
			return
		}
		h.replyError(chatID, err)
		return
	}

	last := ""
	if status.LastReminder != nil {
		last = status.LastReminder.Format("2006-01-02 15:04 MST")
	}
	h.reply(chatID, statusText(status.Active, status.IntervalMinutes, last), nil)
}

// DeliverReminder sends the recurring reminder message. Wired into the
// scheduler service as its delivery handler.
func (h *Handler) DeliverReminder(chatID int64, intervalMinutes int) error {
	text := fmt.Sprintf(textReminder, intervalMinutes, buttonDone)
	if err := h.client.SendWithKeyboard(chatID, text, ackKeyboard()); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrTelegramAPI, err)
	}
	return nil
}

func (h *Handler) reply(chatID int64, text string, markup interface{}) {
	var err error
	if markup != nil {
		err = h.client.SendWithKeyboard(chatID, text, markup)
	} else {
		err = h.client.SendText(chatID, text)
	}
	if err != nil {
		h.log.Error(fmt.Sprintf("Failed to send reply to chat %d", chatID), err)
	}
}

func (h *Handler) replyError(chatID int64, err error) {
	text := textTryAgain
	if errors.Is(err, appErrors.ErrInvalidInterval) {
		text = textInvalidMinutes
	}
	h.reply(chatID, text, nil)
}

// parseIntervalArg parses the minutes argument of /interval. Only whole
// numbers are accepted; range checking is the service's job.
func parseIntervalArg(s string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", appErrors.ErrInvalidInterval, s)
	}
	return minutes, nil
}
