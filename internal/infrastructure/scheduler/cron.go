package scheduler

import (
	"fmt"
	"sync"
	"time"

	"remindbot/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the recurring cron jobs.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
	mu   sync.Mutex // To protect access to job management
}

var (
	schedulerInstance *Scheduler
	once              sync.Once
)

// NewScheduler creates a new singleton instance of the cron scheduler.
func NewScheduler(log logger.Logger) *Scheduler {
	once.Do(func() {
		c := cron.New()
		c.Start()
		log.Info("Cron scheduler started.")
		schedulerInstance = &Scheduler{
			cron: c,
			log:  log,
		}
	})
	return schedulerInstance
}

// AddEvery registers cmd to run on a fixed cadence.
// Returns the EntryID of the added job, used later to cancel it.
func (s *Scheduler) AddEvery(every time.Duration, cmd func()) cron.EntryID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.cron.Schedule(cron.Every(every), cron.FuncJob(cmd))
	s.log.Debug(fmt.Sprintf("Added cron job %d with cadence %s", id, every))
	return id
}

// Remove cancels a job by its EntryID. Removing an unknown ID is a no-op,
// and no further invocations of the job occur after Remove returns.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(id)
	s.log.Debug(fmt.Sprintf("Removed cron job %d", id))
}

// Stop stops the cron scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info("Cron scheduler stopped.")
	}
}

// EntryCount returns the number of scheduled jobs. Useful for the ops API and debugging.
func (s *Scheduler) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cron.Entries())
}
