package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"remindbot/internal/application/dto"
	"remindbot/internal/domain/constant"
	"remindbot/internal/domain/entity"
	"remindbot/internal/domain/repository"
	"remindbot/internal/infrastructure/scheduler"
	appErrors "remindbot/internal/pkg/errors"
	"remindbot/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type schedulerService struct {
	cronScheduler *scheduler.Scheduler
	reminderRepo  repository.ReminderRepository
	deliverFunc   DeliveryHandler
	log           logger.Logger

	// Live timer handles, one per chat at most.
	jobs  map[int64]cron.EntryID
	jobMu sync.Mutex

	// Per-chat locks serializing Enable/Disable/SetInterval for the same chat.
	// Operations on different chats share nothing and run in parallel.
	chatLocks map[int64]*sync.Mutex
	lockMu    sync.Mutex
}

// NewSchedulerService creates a new instance of SchedulerService implementation.
// Note: the delivery handler must be set via SetDeliveryHandler before timers fire.
func NewSchedulerService(
	cronScheduler *scheduler.Scheduler,
	reminderRepo repository.ReminderRepository,
	log logger.Logger,
) SchedulerService {
	return &schedulerService{
		cronScheduler: cronScheduler,
		reminderRepo:  reminderRepo,
		log:           log,
		jobs:          make(map[int64]cron.EntryID),
		chatLocks:     make(map[int64]*sync.Mutex),
	}
}

// SetDeliveryHandler sets the function called to deliver a fired reminder.
// This is called during dependency injection setup to break circular dependency.
func (s *schedulerService) SetDeliveryHandler(handler DeliveryHandler) {
	s.deliverFunc = handler
}

// chatLock returns the mutex serializing mutations of one chat's timer.
// Lock entries are kept for the life of the process; the set of chats a single
// bot instance ever sees is small.
func (s *schedulerService) chatLock(chatID int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.chatLocks[chatID]
	if !ok {
		mu = &sync.Mutex{}
		s.chatLocks[chatID] = mu
	}
	return mu
}

// installTimer replaces the chat's timer with a fresh one on the given cadence.
// Caller must hold the chat lock. Cancelling the old handle first is what keeps
// a re-enable from leaving two timers firing at different phases.
func (s *schedulerService) installTimer(chatID int64, minutes int) {
	s.removeTimer(chatID)

	entryID := s.cronScheduler.AddEvery(time.Duration(minutes)*time.Minute, func() {
		s.tick(chatID)
	})

	s.jobMu.Lock()
	s.jobs[chatID] = entryID
	s.jobMu.Unlock()
	s.log.Debug(fmt.Sprintf("Installed timer for chat %d every %d minutes (job ID: %d)", chatID, minutes, entryID))
}

// removeTimer cancels the chat's timer if one exists. Returns whether one did.
func (s *schedulerService) removeTimer(chatID int64) bool {
	s.jobMu.Lock()
	entryID, ok := s.jobs[chatID]
	if ok {
		delete(s.jobs, chatID)
	}
	s.jobMu.Unlock()

	if ok {
		s.cronScheduler.Remove(entryID)
		s.log.Debug(fmt.Sprintf("Removed timer for chat %d (job ID: %d)", chatID, entryID))
	}
	return ok
}

// hasTimer reports whether a live timer exists for the chat.
func (s *schedulerService) hasTimer(chatID int64) bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	_, ok := s.jobs[chatID]
	return ok
}

// Enable switches reminders on for a chat and starts its timer.
func (s *schedulerService) Enable(ctx context.Context, chatID int64) (dto.EnableResult, error) {
	mu := s.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()

	minutes := constant.DefaultIntervalMinutes
	alreadyActive := false

	record, err := s.reminderRepo.FindByChatID(ctx, chatID)
	switch {
	case err == nil:
		minutes = record.IntervalMinutes
		alreadyActive = record.Active
	case errors.Is(err, gorm.ErrRecordNotFound):
		newRecord := &entity.ReminderRecord{
			ChatID:          chatID,
			Active:          true,
			IntervalMinutes: minutes,
		}
		if createErr := s.reminderRepo.Create(ctx, newRecord); createErr != nil {
			s.log.Error(fmt.Sprintf("Failed to create reminder record for chat %d", chatID), createErr)
			return dto.EnableResult{}, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, createErr)
		}
		s.log.Info(fmt.Sprintf("Created reminder record for chat %d with default interval %d", chatID, minutes))
	default:
		s.log.Error(fmt.Sprintf("Failed to read reminder record for chat %d", chatID), err)
		return dto.EnableResult{}, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}

	s.installTimer(chatID, minutes)

	if err := s.reminderRepo.SetActive(ctx, chatID, true); err != nil {
		// Fail closed: never leave a running timer whose active flag did not persist.
		s.removeTimer(chatID)
		s.log.Error(fmt.Sprintf("Failed to persist active flag for chat %d, timer rolled back", chatID), err)
		return dto.EnableResult{}, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}

	s.log.Info(fmt.Sprintf("Reminders enabled for chat %d every %d minutes", chatID, minutes))
	return dto.EnableResult{IntervalMinutes: minutes, AlreadyActive: alreadyActive}, nil
}

// SetInterval stores a new cadence and restarts the timer if reminders are running.
func (s *schedulerService) SetInterval(ctx context.Context, chatID int64, minutes int) (dto.SetIntervalResult, error) {
	if !constant.ValidInterval(minutes) {
		return dto.SetIntervalResult{}, fmt.Errorf("%w: got %d", appErrors.ErrInvalidInterval, minutes)
	}

	mu := s.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()

	active := false
	record, err := s.reminderRepo.FindByChatID(ctx, chatID)
	if err == nil {
		active = record.Active
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error(fmt.Sprintf("Failed to read reminder record for chat %d", chatID), err)
		return dto.SetIntervalResult{}, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}

	if err := s.reminderRepo.UpsertInterval(ctx, chatID, minutes); err != nil {
		s.log.Error(fmt.Sprintf("Failed to persist interval for chat %d", chatID), err)
		return dto.SetIntervalResult{}, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}

	if active {
		// Retune while running: replace the timer so the new cadence starts
		// counting from now, not from the old schedule's next fire.
		s.installTimer(chatID, minutes)
	}

	s.log.Info(fmt.Sprintf("Interval for chat %d set to %d minutes (restarted: %t)", chatID, minutes, active))
	return dto.SetIntervalResult{IntervalMinutes: minutes, Restarted: active}, nil
}

// Disable switches reminders off and cancels the chat's timer.
func (s *schedulerService) Disable(ctx context.Context, chatID int64) error {
	return s.deactivate(ctx, chatID, "disabled")
}

// Acknowledge marks the pending reminder as handled. Persisted state does not
// distinguish this from Disable; only the transport's wording differs.
func (s *schedulerService) Acknowledge(ctx context.Context, chatID int64) error {
	return s.deactivate(ctx, chatID, "acknowledged")
}

func (s *schedulerService) deactivate(ctx context.Context, chatID int64, reason string) error {
	mu := s.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()

	s.removeTimer(chatID)

	if err := s.reminderRepo.SetActive(ctx, chatID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Chat never had a record; nothing was running, nothing to persist.
			return nil
		}
		s.log.Error(fmt.Sprintf("Failed to persist inactive flag for chat %d", chatID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}

	s.log.Info(fmt.Sprintf("Reminders %s for chat %d", reason, chatID))
	return nil
}

// Status reports the chat's persisted reminder state.
func (s *schedulerService) Status(ctx context.Context, chatID int64) (dto.ReminderStatus, error) {
	record, err := s.reminderRepo.FindByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReminderStatus{}, appErrors.ErrChatNotFound
		}
		s.log.Error(fmt.Sprintf("Failed to read reminder record for chat %d", chatID), err)
		return dto.ReminderStatus{}, fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}
	return dto.ToReminderStatus(record), nil
}

// tick is invoked by each chat's timer on its own cadence. It re-reads the
// persisted state, fires if still active, and records the fire time.
func (s *schedulerService) tick(chatID int64) {
	ctx := context.Background()

	record, err := s.reminderRepo.FindByChatID(ctx, chatID)
	if err != nil {
		// Non-fatal: the timer stays up and the next cadence retries.
		s.log.Error(fmt.Sprintf("Tick for chat %d could not read reminder record", chatID), err)
		return
	}
	if !record.Active {
		// Tolerated race: a disable ran between scheduling this tick and now.
		s.log.Debug(fmt.Sprintf("Tick for chat %d skipped, reminders no longer active", chatID))
		return
	}

	if err := s.reminderRepo.SetLastReminder(ctx, chatID, time.Now().UTC()); err != nil {
		s.log.Error(fmt.Sprintf("Tick for chat %d could not record fire time, skipping this fire", chatID), err)
		return
	}

	if s.deliverFunc == nil {
		s.log.Warn(fmt.Sprintf("No delivery handler set, dropping reminder for chat %d", chatID))
		return
	}
	// Fire-and-forget: a delivery failure neither rolls back last_reminder nor
	// cancels the timer.
	if err := s.deliverFunc(chatID, record.IntervalMinutes); err != nil {
		s.log.Error(fmt.Sprintf("Failed to deliver reminder to chat %d", chatID), err)
	}
}

// InitializeSchedules loads active records from the DB and restores their
// timers on startup. Timer handles do not survive a restart; the records do.
func (s *schedulerService) InitializeSchedules(ctx context.Context) error {
	s.log.Info("Initializing reminder timers from database...")

	records, err := s.reminderRepo.ListActive(ctx)
	if err != nil {
		s.log.Error("Failed to retrieve active reminder records for initialization", err)
		return fmt.Errorf("%w: %v", appErrors.ErrStoreUnavailable, err)
	}

	restored := 0
	for _, record := range records {
		mu := s.chatLock(record.ChatID)
		mu.Lock()
		// active is already true in the store; only the timer needs rebuilding.
		s.installTimer(record.ChatID, record.IntervalMinutes)
		mu.Unlock()
		restored++
	}

	s.log.Info(fmt.Sprintf("Timer initialization complete. Restored: %d", restored))
	return nil
}

// Stop stops the underlying scheduler.
func (s *schedulerService) Stop() {
	s.cronScheduler.Stop()
}
