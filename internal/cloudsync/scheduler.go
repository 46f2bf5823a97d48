package cloudsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the part of Replicator the scheduler drives.
type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// Scheduler runs replication on a cron schedule. Runs never overlap: a tick
// that arrives while the previous run is still going is skipped.
type Scheduler struct {
	runner   Runner
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

func NewScheduler(runner Runner, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

// Start schedules replication until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	entryID, err := s.cron.AddFunc(s.schedule, func() { s.runSync(runCtx) })
	if err != nil {
		cancel()
		return fmt.Errorf("schedule replication: %w", err)
	}
	s.entryID = entryID
	s.cancel = cancel
	s.cron.Start()
	s.isRunning = true

	log.Printf("[SYNC] Replication scheduled with %q. Next run: %v", s.schedule, s.cron.Entry(entryID).Next)

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(runCtx.Done())

	return nil
}

// Stop waits for a running replication to finish and stops the schedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.cancel()
	s.isRunning = false

	log.Printf("[SYNC] Replication scheduler stopped")
}

// NextRun returns the next scheduled run, or zero when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) runSync(ctx context.Context) {
	start := time.Now()
	result, err := s.runner.RunOnce(ctx)
	if err != nil {
		log.Printf("[SYNC] Replication failed after %v: %v", time.Since(start), err)
		return
	}
	if result.Batches == 0 {
		log.Printf("[SYNC] Replication up to date (seq %d)", result.LastSeq)
	}
}
