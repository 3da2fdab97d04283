package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"remindbot/internal/domain/constant"
	"remindbot/internal/domain/entity"
	"remindbot/internal/infrastructure/scheduler"
	appErrors "remindbot/internal/pkg/errors"

	"gorm.io/gorm"
)

type nopLogger struct{}

func (nopLogger) Error(string, error) {}
func (nopLogger) Warn(string)         {}
func (nopLogger) Info(string)         {}
func (nopLogger) Debug(string)        {}

// fakeRepo is an in-memory ReminderRepository with injectable failures.
type fakeRepo struct {
	mu      sync.Mutex
	records map[int64]*entity.ReminderRecord

	failFind         bool
	failCreate       bool
	failUpsert       bool
	failSetActive    bool
	failLastReminder bool
}

var errStoreDown = errors.New("store down")

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[int64]*entity.ReminderRecord)}
}

func (f *fakeRepo) FindByChatID(_ context.Context, chatID int64) (*entity.ReminderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStoreDown
	}
	record, ok := f.records[chatID]
	if !ok {
		return nil, fmt.Errorf("no record for chat %d: %w", chatID, gorm.ErrRecordNotFound)
	}
	cp := *record
	return &cp, nil
}

func (f *fakeRepo) ListActive(context.Context) ([]*entity.ReminderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStoreDown
	}
	var out []*entity.ReminderRecord
	for _, record := range f.records {
		if record.Active {
			cp := *record
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, record *entity.ReminderRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errStoreDown
	}
	if _, ok := f.records[record.ChatID]; ok {
		return fmt.Errorf("chat %d already exists", record.ChatID)
	}
	cp := *record
	f.records[record.ChatID] = &cp
	return nil
}

func (f *fakeRepo) UpsertInterval(_ context.Context, chatID int64, minutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert {
		return errStoreDown
	}
	if record, ok := f.records[chatID]; ok {
		record.IntervalMinutes = minutes
		return nil
	}
	f.records[chatID] = &entity.ReminderRecord{ChatID: chatID, Active: false, IntervalMinutes: minutes}
	return nil
}

func (f *fakeRepo) SetActive(_ context.Context, chatID int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetActive {
		return errStoreDown
	}
	record, ok := f.records[chatID]
	if !ok {
		return fmt.Errorf("no record for chat %d: %w", chatID, gorm.ErrRecordNotFound)
	}
	record.Active = active
	return nil
}

func (f *fakeRepo) SetLastReminder(_ context.Context, chatID int64, firedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLastReminder {
		return errStoreDown
	}
	record, ok := f.records[chatID]
	if !ok {
		return fmt.Errorf("no record for chat %d: %w", chatID, gorm.ErrRecordNotFound)
	}
	record.LastReminder = &firedAt
	return nil
}

func (f *fakeRepo) get(chatID int64) *entity.ReminderRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[chatID]
	if !ok {
		return nil
	}
	cp := *record
	return &cp
}

func (f *fakeRepo) seed(record entity.ReminderRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ChatID] = &record
}

func newTestService(t *testing.T, repo *fakeRepo) *schedulerService {
	t.Helper()
	cronScheduler := scheduler.NewScheduler(nopLogger{})
	svc := NewSchedulerService(cronScheduler, repo, nopLogger{}).(*schedulerService)
	t.Cleanup(func() {
		svc.jobMu.Lock()
		chats := make([]int64, 0, len(svc.jobs))
		for chatID := range svc.jobs {
			chats = append(chats, chatID)
		}
		svc.jobMu.Unlock()
		for _, chatID := range chats {
			svc.removeTimer(chatID)
		}
	})
	return svc
}

func timerCount(s *schedulerService) int {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return len(s.jobs)
}

func TestEnableCreatesRecordWithDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	result, err := svc.Enable(context.Background(), 1)
	if err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if result.IntervalMinutes != constant.DefaultIntervalMinutes {
		t.Fatalf("expected default interval %d, got %d", constant.DefaultIntervalMinutes, result.IntervalMinutes)
	}
	if result.AlreadyActive {
		t.Fatalf("fresh chat reported as already active")
	}

	record := repo.get(1)
	if record == nil {
		t.Fatalf("no record persisted")
	}
	if !record.Active || record.IntervalMinutes != constant.DefaultIntervalMinutes {
		t.Fatalf("unexpected record state: %+v", record)
	}
	if !svc.hasTimer(1) || timerCount(svc) != 1 {
		t.Fatalf("expected exactly one live timer, got %d", timerCount(svc))
	}
}

func TestEnableReusesStoredInterval(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 2, Active: false, IntervalMinutes: 30})
	svc := newTestService(t, repo)

	result, err := svc.Enable(context.Background(), 2)
	if err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if result.IntervalMinutes != 30 {
		t.Fatalf("expected stored interval 30, got %d", result.IntervalMinutes)
	}
}

func TestEnableTwiceKeepsSingleTimer(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Enable(ctx, 3); err != nil {
		t.Fatalf("first Enable: %v", err)
	}
	svc.jobMu.Lock()
	firstID := svc.jobs[3]
	svc.jobMu.Unlock()

	result, err := svc.Enable(ctx, 3)
	if err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	if !result.AlreadyActive {
		t.Fatalf("second Enable did not report already active")
	}
	if timerCount(svc) != 1 {
		t.Fatalf("expected exactly one live timer after re-enable, got %d", timerCount(svc))
	}
	svc.jobMu.Lock()
	secondID := svc.jobs[3]
	svc.jobMu.Unlock()
	if firstID == secondID {
		t.Fatalf("re-enable did not replace the timer handle")
	}
}

func TestEnableFailsClosedOnPersistFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 4, Active: false, IntervalMinutes: 15})
	repo.failSetActive = true
	svc := newTestService(t, repo)

	_, err := svc.Enable(context.Background(), 4)
	if !errors.Is(err, appErrors.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if svc.hasTimer(4) {
		t.Fatalf("timer survived a failed active-flag persist")
	}
	if record := repo.get(4); record.Active {
		t.Fatalf("record unexpectedly active")
	}
}

func TestDisableIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Enable(ctx, 5); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := svc.Disable(ctx, 5); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if svc.hasTimer(5) {
		t.Fatalf("timer still live after Disable")
	}
	if record := repo.get(5); record.Active {
		t.Fatalf("record still active after Disable")
	}
	// Second disable is a no-op, not an error.
	if err := svc.Disable(ctx, 5); err != nil {
		t.Fatalf("second Disable: %v", err)
	}
}

func TestDisableUnknownChatIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	if err := svc.Disable(context.Background(), 999); err != nil {
		t.Fatalf("Disable on unknown chat: %v", err)
	}
}

func TestAcknowledgeStopsTimer(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Enable(ctx, 6); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := svc.Acknowledge(ctx, 6); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if svc.hasTimer(6) {
		t.Fatalf("timer still live after Acknowledge")
	}
	if record := repo.get(6); record.Active {
		t.Fatalf("record still active after Acknowledge")
	}
	if err := svc.Acknowledge(ctx, 6); err != nil {
		t.Fatalf("second Acknowledge: %v", err)
	}
}

func TestSetIntervalRejectsOutOfRange(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 7, Active: true, IntervalMinutes: 60})
	svc := newTestService(t, repo)
	svc.installTimer(7, 60)
	ctx := context.Background()

	for _, minutes := range []int{0, 4, -10, 1441, 100000} {
		_, err := svc.SetInterval(ctx, 7, minutes)
		if !errors.Is(err, appErrors.ErrInvalidInterval) {
			t.Fatalf("minutes=%d: expected ErrInvalidInterval, got %v", minutes, err)
		}
	}
	// Nothing changed.
	if record := repo.get(7); record.IntervalMinutes != 60 || !record.Active {
		t.Fatalf("record mutated by rejected SetInterval: %+v", record)
	}
	if !svc.hasTimer(7) {
		t.Fatalf("timer lost on rejected SetInterval")
	}
}

func TestSetIntervalWhileDisabledStoresOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	result, err := svc.SetInterval(context.Background(), 8, 45)
	if err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if result.Restarted {
		t.Fatalf("reported a restart with no running timer")
	}

	record := repo.get(8)
	if record == nil {
		t.Fatalf("record not created on first interval set")
	}
	if record.Active || record.IntervalMinutes != 45 {
		t.Fatalf("unexpected record state: %+v", record)
	}
	if svc.hasTimer(8) {
		t.Fatalf("timer started for a disabled chat")
	}
}

func TestSetIntervalWhileRunningRestartsTimer(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Enable(ctx, 9); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	svc.jobMu.Lock()
	oldID := svc.jobs[9]
	svc.jobMu.Unlock()

	result, err := svc.SetInterval(ctx, 9, 30)
	if err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if !result.Restarted {
		t.Fatalf("retune of a running chat did not restart the timer")
	}
	if timerCount(svc) != 1 {
		t.Fatalf("expected exactly one live timer after retune, got %d", timerCount(svc))
	}
	svc.jobMu.Lock()
	newID := svc.jobs[9]
	svc.jobMu.Unlock()
	if newID == oldID {
		t.Fatalf("retune kept the old timer handle")
	}
	if record := repo.get(9); record.IntervalMinutes != 30 || !record.Active {
		t.Fatalf("unexpected record state after retune: %+v", record)
	}
}

func TestInitializeSchedulesRestoresActiveChats(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 42, Active: true, IntervalMinutes: 30})
	repo.seed(entity.ReminderRecord{ChatID: 43, Active: false, IntervalMinutes: 60})
	svc := newTestService(t, repo)

	if err := svc.InitializeSchedules(context.Background()); err != nil {
		t.Fatalf("InitializeSchedules: %v", err)
	}
	if !svc.hasTimer(42) {
		t.Fatalf("active chat 42 has no restored timer")
	}
	if svc.hasTimer(43) {
		t.Fatalf("inactive chat 43 got a timer")
	}
	if timerCount(svc) != 1 {
		t.Fatalf("expected 1 restored timer, got %d", timerCount(svc))
	}
}

func TestInitializeSchedulesStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failFind = true
	svc := newTestService(t, repo)

	err := svc.InitializeSchedules(context.Background())
	if !errors.Is(err, appErrors.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestTickDeliversAndRecordsFireTime(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 10, Active: true, IntervalMinutes: 30})
	svc := newTestService(t, repo)

	var (
		mu        sync.Mutex
		delivered []int
	)
	svc.SetDeliveryHandler(func(chatID int64, intervalMinutes int) error {
		mu.Lock()
		defer mu.Unlock()
		if chatID != 10 {
			t.Errorf("delivery for wrong chat %d", chatID)
		}
		delivered = append(delivered, intervalMinutes)
		return nil
	})

	before := time.Now().UTC().Add(-time.Second)
	svc.tick(10)

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 || delivered[0] != 30 {
		t.Fatalf("expected one delivery with interval 30, got %v", delivered)
	}
	record := repo.get(10)
	if record.LastReminder == nil || record.LastReminder.Before(before) {
		t.Fatalf("last_reminder not recorded: %+v", record.LastReminder)
	}
}

func TestTickSkipsInactiveChat(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 11, Active: false, IntervalMinutes: 30})
	svc := newTestService(t, repo)

	called := false
	svc.SetDeliveryHandler(func(int64, int) error {
		called = true
		return nil
	})
	svc.tick(11)

	if called {
		t.Fatalf("inactive chat received a delivery")
	}
	if record := repo.get(11); record.LastReminder != nil {
		t.Fatalf("last_reminder written for an inactive chat")
	}
}

func TestTickStoreFailureIsNonFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 12, Active: true, IntervalMinutes: 30})
	repo.failFind = true
	svc := newTestService(t, repo)

	called := false
	svc.SetDeliveryHandler(func(int64, int) error {
		called = true
		return nil
	})
	// Must not panic; the fire is simply skipped until the next cadence.
	svc.tick(12)

	if called {
		t.Fatalf("delivery fired despite a store read failure")
	}
}

func TestTickDeliveryFailureKeepsFireTime(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(entity.ReminderRecord{ChatID: 13, Active: true, IntervalMinutes: 30})
	svc := newTestService(t, repo)

	svc.SetDeliveryHandler(func(int64, int) error {
		return errors.New("telegram down")
	})
	svc.tick(13)

	if record := repo.get(13); record.LastReminder == nil {
		t.Fatalf("delivery failure rolled back last_reminder")
	}
}

func TestLifecycleEndToEnd(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	result, err := svc.Enable(ctx, 1)
	if err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if result.IntervalMinutes != 60 {
		t.Fatalf("expected default 60, got %d", result.IntervalMinutes)
	}

	if _, err := svc.SetInterval(ctx, 1, 30); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if record := repo.get(1); record.IntervalMinutes != 30 {
		t.Fatalf("interval not updated: %+v", record)
	}

	if err := svc.Disable(ctx, 1); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if svc.hasTimer(1) {
		t.Fatalf("timer still live after Disable")
	}

	// Re-enable picks up the tuned cadence, not the default.
	result, err = svc.Enable(ctx, 1)
	if err != nil {
		t.Fatalf("re-Enable: %v", err)
	}
	if result.IntervalMinutes != 30 {
		t.Fatalf("re-Enable used interval %d, want persisted 30", result.IntervalMinutes)
	}
}

func TestConcurrentEnableDisableSingleChat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Enable(ctx, 77)
		}()
		go func() {
			defer wg.Done()
			_ = svc.Disable(ctx, 77)
		}()
	}
	wg.Wait()

	// Whatever interleaving won, the invariant holds: a live timer exists
	// exactly when the persisted record says active.
	record := repo.get(77)
	if record == nil {
		t.Fatalf("no record after concurrent operations")
	}
	if record.Active != svc.hasTimer(77) {
		t.Fatalf("active=%t but timer=%t", record.Active, svc.hasTimer(77))
	}
	if timerCount(svc) > 1 {
		t.Fatalf("more than one live timer for a single chat")
	}
}

func TestStatusReportsPersistedState(t *testing.T) {
	repo := newFakeRepo()
	fired := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo.seed(entity.ReminderRecord{ChatID: 14, Active: true, IntervalMinutes: 20, LastReminder: &fired})
	svc := newTestService(t, repo)

	status, err := svc.Status(context.Background(), 14)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Active || status.IntervalMinutes != 20 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.LastReminder == nil || !status.LastReminder.Equal(fired) {
		t.Fatalf("unexpected last reminder: %v", status.LastReminder)
	}

	if _, err := svc.Status(context.Background(), 15); !errors.Is(err, appErrors.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound for unknown chat, got %v", err)
	}
}
