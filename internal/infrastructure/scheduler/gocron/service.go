package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/go-co-op/gocron"
)

type service struct {
	scheduler *gocron.Scheduler
	job       *gocron.Job
	mu        *sync.Mutex
	started   bool
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc, nil, &sync.Mutex{}, false}
}

func (s *service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Nothing to do if already started
	if s.started {
		return
	}

	s.scheduler.StartAsync()
	s.started = true
}

func (s *service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.job != nil {
		s.scheduler.Remove(s.job)
		s.job = nil
	}
	s.scheduler.Stop()
	s.scheduler.Clear()
	s.started = false
}

// ScheduleEvery replaces any previously scheduled job. Runs never overlap:
// a run still in progress when the next one is due makes it skip.
func (s *service) ScheduleEvery(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval: %s", interval)
	}
	if fn == nil {
		return fmt.Errorf("missing job")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		s.scheduler.Remove(s.job)
		s.job = nil
	}

	job, err := s.scheduler.Every(interval).WaitForSchedule().SingletonMode().Do(fn)
	if err != nil {
		return err
	}

	s.job = job
	return nil
}

// WhenNextRun returns the next scheduled run, zero if nothing is scheduled.
func (s *service) WhenNextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return time.Time{}
	}

	return s.job.NextRun()
}
