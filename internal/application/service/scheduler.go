package service

import (
	"context"

	"remindbot/internal/application/dto"
)

// DeliveryHandler delivers one reminder notification to a chat. The scheduler
// fires it from timer callbacks and does not inspect the result beyond logging.
type DeliveryHandler func(chatID int64, intervalMinutes int) error

// SchedulerService keeps the live per-chat reminder timers in line with the
// persisted reminder settings.
type SchedulerService interface {
	// Enable switches reminders on for a chat, creating its record with the
	// default cadence on first use, and starts (or replaces) its timer.
	Enable(ctx context.Context, chatID int64) (dto.EnableResult, error)
	// Disable switches reminders off and cancels the chat's timer. Idempotent.
	Disable(ctx context.Context, chatID int64) error
	// Acknowledge marks the pending reminder as handled. Same state transition
	// as Disable; the transport words the confirmation differently.
	Acknowledge(ctx context.Context, chatID int64) error
	// SetInterval stores a new cadence for a chat. If reminders are currently
	// running, the timer is restarted so the new cadence takes effect at once.
	SetInterval(ctx context.Context, chatID int64, minutes int) (dto.SetIntervalResult, error)
	// Status reports the chat's persisted reminder state.
	Status(ctx context.Context, chatID int64) (dto.ReminderStatus, error)
	// InitializeSchedules restores timers for all active records on startup.
	InitializeSchedules(ctx context.Context) error
	// SetDeliveryHandler sets the outbound notification function. Called during
	// dependency injection setup to break the circular dependency with the transport.
	SetDeliveryHandler(handler DeliveryHandler)
	// Stop stops the underlying scheduler.
	Stop()
}
