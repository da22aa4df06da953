package core

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs recurring background jobs, typically repeated dispatches,
// on cron schedules or fixed intervals. It is independent of any single
// dispatch.
type Scheduler struct {
	c *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{c: cron.New()}
}

// Schedule registers job on a cron expression (standard five-field specs
// plus descriptors like "@hourly" and "@every 10m").
func (s *Scheduler) Schedule(spec string, job func()) (cron.EntryID, error) {
	id, err := s.c.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("scheduling %q: %w", spec, err)
	}
	return id, nil
}

// Repeat registers job to run every interval.
func (s *Scheduler) Repeat(every time.Duration, job func()) cron.EntryID {
	id, err := s.c.AddFunc("@every "+every.String(), job)
	if err != nil {
		// A time.Duration always stringifies to a valid @every spec.
		log.Printf("scheduler: repeat %s: %v", every, err)
	}
	return id
}

// Remove cancels a scheduled job.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.c.Remove(id)
}

// Start begins running jobs in the scheduler's own goroutine.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop stops scheduling new runs and blocks until jobs already in flight
// have finished.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
