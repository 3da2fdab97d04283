package repository

import (
	"context"
	"time"

	"remindbot/internal/domain/entity"
)

// ReminderRepository defines the interface for reminder settings persistence.
type ReminderRepository interface {
	// FindByChatID retrieves the record for a chat. Returns a wrapped
	// gorm.ErrRecordNotFound when the chat has no record yet.
	FindByChatID(ctx context.Context, chatID int64) (*entity.ReminderRecord, error)
	// ListActive retrieves all records with active=true (used for rescheduling on startup).
	ListActive(ctx context.Context) ([]*entity.ReminderRecord, error)
	// Create inserts a new record. Fails if the chat already has one.
	Create(ctx context.Context, record *entity.ReminderRecord) error
	// UpsertInterval sets interval_minutes for a chat, creating the record
	// with active=false if it does not exist yet.
	UpsertInterval(ctx context.Context, chatID int64, minutes int) error
	// SetActive updates the active flag for an existing record.
	SetActive(ctx context.Context, chatID int64, active bool) error
	// SetLastReminder records the time of the latest delivered reminder.
	SetLastReminder(ctx context.Context, chatID int64, firedAt time.Time) error
}
