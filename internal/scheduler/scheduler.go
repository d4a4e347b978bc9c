package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec ticks once per wall-clock minute.
const DefaultSpec = "* * * * *"

var ErrAlreadyRunning = errors.New("scheduler already running")

// Job is an extra periodic task run on the same cron as the matcher.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

type Scheduler struct {
	matcher  *Matcher
	spec     string
	location *time.Location
	now      func() time.Time
	jobs     []Job

	mu   sync.Mutex
	cron *cron.Cron
}

func New(matcher *Matcher, spec string, location *time.Location) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if location == nil {
		location = time.Local
	}
	return &Scheduler{
		matcher:  matcher,
		spec:     spec,
		location: location,
		now:      time.Now,
	}
}

// AddJob registers a job for the next Start.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start launches the loop and returns a handle that stops it. The handle
// waits for a running tick to finish and may be called more than once.
// Calling Start again before stopping returns ErrAlreadyRunning.
func (s *Scheduler) Start() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil, ErrAlreadyRunning
	}

	// A tick is skipped while the previous one is still running
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := c.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("add alarm check: %w", err)
	}
	for _, job := range s.jobs {
		run := job.Run
		if _, err := c.AddFunc(job.Spec, func() { run(ctx) }); err != nil {
			cancel()
			return nil, fmt.Errorf("add %s: %w", job.Name, err)
		}
	}

	c.Start()
	s.cron = c
	log.Printf("Scheduler started (TZ: %s, spec: %q, jobs: %d)", s.location, s.spec, len(s.jobs))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-c.Stop().Done()

			s.mu.Lock()
			if s.cron == c {
				s.cron = nil
			}
			s.mu.Unlock()
			log.Println("Scheduler stopped")
		})
	}
	return stop, nil
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.location)
	if n := s.matcher.Tick(ctx, now); n > 0 {
		log.Printf("Fired %d alarm(s) at %s", n, now.Format("Mon 15:04"))
	}
}
