package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Purger drops expired in-memory exams. *exam.Registry implements it.
type Purger interface {
	PurgeExpired(now time.Time) int
}

// Scheduler runs the periodic housekeeping jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	exams     Purger
	every     time.Duration
	now       func() time.Time
}

func New(exams Purger, every time.Duration) *Scheduler {
	if every <= 0 {
		every = time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		exams:     exams,
		every:     every,
		now:       time.Now,
	}
}

// Start schedules the jobs and returns without blocking.
func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.every).Do(s.PurgeExams); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeExams removes exams that are past their deadline and retention.
func (s *Scheduler) PurgeExams() int {
	n := s.exams.PurgeExpired(s.now())
	if n > 0 {
		log.Printf("scheduler: purged %d expired exams", n)
	}
	return n
}
