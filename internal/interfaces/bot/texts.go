package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Keyboard button labels. Incoming plain-text messages matching these are
// treated as the corresponding command.
const (
	buttonOn     = "🔔 Remind me"
	buttonOff    = "🔕 Stop"
	buttonDone   = "✅ Done"
	buttonStatus = "📊 Status"
)

// Callback query payloads.
const (
	callbackAck            = "ack"
	callbackIntervalPrefix = "interval:"
)

const (
	textWelcome = "Hi! I can nag you on a schedule.\n\n" +
		"/remind_on — start reminding (every 60 minutes by default)\n" +
		"/remind_off — stop reminding\n" +
		"/done — mark the current reminder as handled\n" +
		"/interval <minutes> — set the cadence (5–1440)\n" +
		"/status — show current settings"

	textEnabled        = "Reminders are on. I will ping you every %d minutes."
	textReEnabled      = "Reminders were already on. Restarted the countdown: every %d minutes from now."
	textDisabled       = "Reminders are off. Use /remind_on when you need me again."
	textAcknowledged   = "Nice, marked as done. I will stay quiet until you enable reminders again."
	textIntervalSet    = "Cadence set to %d minutes."
	textIntervalReset  = "Cadence set to %d minutes, counting from right now."
	textIntervalUsage  = "Pick a cadence, or send /interval <minutes> (5–1440):"
	textInvalidMinutes = "That does not look like a valid cadence. Send a whole number of minutes between 5 and 1440."
	textNoSettings     = "No reminder settings for this chat yet. Start with /remind_on."
	textTryAgain       = "Something went wrong on my side. Please try again later."

	textReminder = "⏰ Reminder! I will repeat this every %d minutes until you press %s or /remind_off."
)

func statusText(active bool, intervalMinutes int, lastReminder string) string {
	state := "off"
	if active {
		state = "on"
	}
	text := fmt.Sprintf("Reminders: %s\nCadence: every %d minutes", state, intervalMinutes)
	if lastReminder != "" {
		text += "\nLast reminder: " + lastReminder
	}
	return text
}

// mainKeyboard is the persistent reply keyboard shown after /start.
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonOn),
			tgbotapi.NewKeyboardButton(buttonOff),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonDone),
			tgbotapi.NewKeyboardButton(buttonStatus),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// intervalKeyboard offers common cadences for /interval without an argument.
func intervalKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := func(minutes ...int) []tgbotapi.InlineKeyboardButton {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(minutes))
		for _, m := range minutes {
			label := fmt.Sprintf("%d min", m)
			if m >= 60 {
				label = fmt.Sprintf("%d h", m/60)
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
				label, fmt.Sprintf("%s%d", callbackIntervalPrefix, m)))
		}
		return buttons
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row(15, 30, 60),
		row(120, 360, 1440),
	)
}

// ackKeyboard is attached to every delivered reminder.
func ackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonDone, callbackAck),
		),
	)
}
