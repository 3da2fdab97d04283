package entity

import "time"

// ReminderRecord is the persisted desired state of one chat's recurring reminder.
// The record says what should be running; the scheduler keeps the live timers
// in line with it.
type ReminderRecord struct {
	ChatID          int64      `gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	Active          bool       `gorm:"column:active;index"`
	IntervalMinutes int        `gorm:"column:interval_minutes"`
	LastReminder    *time.Time `gorm:"column:last_reminder"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

// TableName specifies the table name for the ReminderRecord entity.
func (ReminderRecord) TableName() string {
	return "reminder_settings"
}
