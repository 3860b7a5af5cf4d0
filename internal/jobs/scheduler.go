package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled background work.
type Job interface {
	Name() string
	// Schedule is a standard 5-field cron expression.
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler wires jobs onto a shared cron runner.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		jobs: make([]Job, 0),
	}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	_, err := s.cron.AddFunc(schedule, func() {
		log.Printf("[%s] starting scheduled run", job.Name())
		if err := job.Run(context.Background()); err != nil {
			log.Printf("[%s] run failed: %v", job.Name(), err)
			return
		}
		log.Printf("[%s] run completed", job.Name())
	})
	if err != nil {
		log.Printf("failed to schedule job %s: %v", job.Name(), err)
		return
	}
	log.Printf("[%s] scheduled with cron: %s", job.Name(), schedule)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("job scheduler started with %d registered jobs", len(s.jobs))
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("job scheduler stopped")
}
