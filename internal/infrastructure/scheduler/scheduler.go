// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the work a scheduled job performs
type JobFunc func(ctx context.Context) error

// JobStatus represents the outcome of a job's last run
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobState is a snapshot of a registered job
type JobState struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Status     JobStatus  `json:"status"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	RunCount   int        `json:"run_count"`
	FailCount  int        `json:"fail_count"`
	DurationMs int64      `json:"last_duration_ms"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	// Location used to interpret schedules; nil means time.Local
	Location *time.Location
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		JobTimeout: 10 * time.Minute,
	}
}

type job struct {
	name     string
	schedule string
	fn       JobFunc
	entry    cron.EntryID
	running  sync.Mutex
	state    JobState
}

// Scheduler wraps a cron runner. Runs of the same job never overlap.
type Scheduler struct {
	config SchedulerConfig
	cron   *cron.Cron
	logger *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	jobs      map[string]*job
	order     []string
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: config,
		cron:   cron.New(cron.WithLocation(config.Location)),
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Register adds a job under a standard five-field cron expression or a
// descriptor such as "@every 15m"
func (s *Scheduler) Register(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, schedule: schedule, fn: fn}
	j.state = JobState{Name: name, Schedule: schedule, Status: JobStatusIdle}

	id, err := s.cron.AddFunc(schedule, func() { s.run(j) })
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}
	j.entry = id
	s.jobs[name] = j
	s.order = append(s.order, name)
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow executes a registered job immediately and waits for it. It returns
// the job's error, or nil without running when a run is already in progress.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, j)
}

// Jobs returns a snapshot of every registered job in registration order
func (s *Scheduler) Jobs() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		st := j.state
		if next := s.cron.Entry(j.entry).Next; !next.IsZero() {
			st.NextRunAt = &next
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) run(j *job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	_ = s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	if !j.running.TryLock() {
		s.logger.Warn("Skipping job run, previous run still in progress", zap.String("job", j.name))
		return nil
	}
	defer j.running.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	started := time.Now()
	s.setState(j, func(st *JobState) {
		st.Status = JobStatusRunning
		st.LastRunAt = &started
	})

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.safeCall(jobCtx, j)
	elapsed := time.Since(started)

	s.setState(j, func(st *JobState) {
		st.RunCount++
		st.DurationMs = elapsed.Milliseconds()
		if err != nil {
			st.Status = JobStatusFailed
			st.LastError = err.Error()
			st.FailCount++
			return
		}
		st.Status = JobStatusSuccess
		st.LastError = ""
	})

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", j.name),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("Job completed successfully",
		zap.String("job", j.name),
		zap.Duration("duration", elapsed),
	)
	return nil
}

func (s *Scheduler) safeCall(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}

func (s *Scheduler) setState(j *job, update func(*JobState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&j.state)
}
