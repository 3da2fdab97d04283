package dto

import (
	"time"

	"remindbot/internal/domain/entity"
)

// ReminderStatus is the DTO describing one chat's reminder state, used by the
// /status command and the ops API.
type ReminderStatus struct {
	ChatID          int64      `json:"chat_id"`
	Active          bool       `json:"active"`
	IntervalMinutes int        `json:"interval_minutes"`
	LastReminder    *time.Time `json:"last_reminder,omitempty"`
}

// ToReminderStatus converts an entity.ReminderRecord to a ReminderStatus DTO.
func ToReminderStatus(r *entity.ReminderRecord) ReminderStatus {
	return ReminderStatus{
		ChatID:          r.ChatID,
		Active:          r.Active,
		IntervalMinutes: r.IntervalMinutes,
		LastReminder:    r.LastReminder,
	}
}

// ToReminderStatusList converts a slice of records to DTOs.
func ToReminderStatusList(records []*entity.ReminderRecord) []ReminderStatus {
	list := make([]ReminderStatus, len(records))
	for i, r := range records {
		list[i] = ToReminderStatus(r)
	}
	return list
}

// EnableResult is returned by Enable so the transport can word its confirmation.
type EnableResult struct {
	IntervalMinutes int  `json:"interval_minutes"`
	AlreadyActive   bool `json:"already_active"`
}

// SetIntervalResult is returned by SetInterval. Restarted reports whether a
// running timer was replaced to pick up the new cadence immediately.
type SetIntervalResult struct {
	IntervalMinutes int  `json:"interval_minutes"`
	Restarted       bool `json:"restarted"`
}
