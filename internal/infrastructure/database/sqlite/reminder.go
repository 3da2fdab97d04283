package sqlite

import (
	"context"
	"fmt"
	"time"

	"remindbot/internal/domain/entity"
	"remindbot/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new instance of ReminderRepository.
func NewReminderRepository(db *gorm.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

// FindByChatID retrieves the record for a chat.
func (r *reminderRepository) FindByChatID(ctx context.Context, chatID int64) (*entity.ReminderRecord, error) {
	var record entity.ReminderRecord
	if err := r.db.WithContext(ctx).First(&record, "chat_id = ?", chatID).Error; err != nil {
		return nil, fmt.Errorf("failed to find reminder record for chat %d: %w", chatID, err)
	}
	return &record, nil
}

// ListActive retrieves all records with active=true.
func (r *reminderRepository) ListActive(ctx context.Context) ([]*entity.ReminderRecord, error) {
	var records []*entity.ReminderRecord
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list active reminder records: %w", err)
	}
	return records, nil
}

// Create inserts a new record. Fails if the chat already has one.
func (r *reminderRepository) Create(ctx context.Context, record *entity.ReminderRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create reminder record for chat %d: %w", record.ChatID, err)
	}
	return nil
}

// UpsertInterval sets interval_minutes for a chat, creating the record
// with active=false if it does not exist yet.
func (r *reminderRepository) UpsertInterval(ctx context.Context, chatID int64, minutes int) error {
	record := entity.ReminderRecord{
		ChatID:          chatID,
		Active:          false,
		IntervalMinutes: minutes,
		CreatedAt:       time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"interval_minutes"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert interval for chat %d: %w", chatID, err)
	}
	return nil
}

// SetActive updates the active flag for an existing record.
func (r *reminderRepository) SetActive(ctx context.Context, chatID int64, active bool) error {
	res := r.db.WithContext(ctx).Model(&entity.ReminderRecord{}).
		Where("chat_id = ?", chatID).
		Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update active flag for chat %d: %w", chatID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no reminder record for chat %d: %w", chatID, gorm.ErrRecordNotFound)
	}
	return nil
}

// SetLastReminder records the time of the latest delivered reminder.
func (r *reminderRepository) SetLastReminder(ctx context.Context, chatID int64, firedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.ReminderRecord{}).
		Where("chat_id = ?", chatID).
		Update("last_reminder", firedAt.UTC())
	if res.Error != nil {
		return fmt.Errorf("failed to update last_reminder for chat %d: %w", chatID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no reminder record for chat %d: %w", chatID, gorm.ErrRecordNotFound)
	}
	return nil
}
