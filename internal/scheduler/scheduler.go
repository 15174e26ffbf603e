// Package scheduler runs the daily and weekly pipelines on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
)

// JobFunc is a scheduled unit of work.
type JobFunc func(ctx context.Context) error

// JobStatus is a snapshot of one registered job.
type JobStatus struct {
	Name      string
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

type jobEntry struct {
	name      string
	schedule  string
	handler   JobFunc
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Scheduler wraps a cron runner. Jobs never overlap: the daily and weekly runs share
// the processed snapshot directory.
type Scheduler struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	jobMu    sync.Mutex // protects jobs
	globalMu sync.Mutex // serialises job execution
	jobs     map[string]*jobEntry
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

// New creates a scheduler evaluating schedules in loc
func New(loc *time.Location, logger arbor.ILogger) *Scheduler {
	if logger == nil {
		logger = common.GetLogger()
	}
	if loc == nil {
		loc = time.Local
	}
	adapter := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.SkipIfStillRunning(adapter)),
		),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
		ctx:    context.Background(),
	}
}

// Register adds a job under a standard five-field cron expression
func (s *Scheduler) Register(name, schedule string, handler JobFunc) error {
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", name, err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{name: name, schedule: schedule, handler: handler}
	cronID, err := s.cron.AddFunc(schedule, func() {
		_ = s.execute(s.jobContext(), name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}
	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")
	return nil
}

// Start begins firing jobs. Scheduled runs receive a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.jobMu.Unlock()

	<-s.cron.Stop().Done()
	cancel()

	s.logger.Info().Msg("Scheduler stopped")
}

// RunNow executes a job synchronously, waiting for any running job first
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.jobMu.Lock()
	_, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.logger.Info().Str("job_name", name).Msg("Manually triggering job execution")
	return s.execute(ctx, name)
}

// Statuses returns all jobs sorted by name
func (s *Scheduler) Statuses() []JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	next := make(map[cron.EntryID]time.Time)
	for _, e := range s.cron.Entries() {
		next[e.ID] = e.Next
	}

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		status := JobStatus{
			Name:      entry.name,
			Schedule:  entry.schedule,
			LastRun:   entry.lastRun,
			IsRunning: entry.isRunning,
			LastError: entry.lastError,
		}
		if t, ok := next[entry.cronID]; ok && !t.IsZero() {
			status.NextRun = &t
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func (s *Scheduler) jobContext() context.Context {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.ctx
}

// execute runs a job under the global mutex with panic recovery and status tracking
func (s *Scheduler) execute(ctx context.Context, name string) (err error) {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	start := time.Now()
	s.logger.Info().Str("job_name", name).Msg("Job execution started")

	defer func() {
		completed := time.Now()
		s.jobMu.Lock()
		entry.isRunning = false
		entry.lastRun = &completed
		if err != nil {
			entry.lastError = err.Error()
		} else {
			entry.lastError = ""
		}
		s.jobMu.Unlock()

		if err != nil {
			s.logger.Error().
				Str("job_name", name).
				Err(err).
				Str("duration", time.Since(start).String()).
				Msg("Job execution failed")
			return
		}
		s.logger.Info().
			Str("job_name", name).
			Str("duration", time.Since(start).String()).
			Msg("Job execution completed")
	}()
	defer common.RecoverAsError(s.logger, name, &err)

	return handler(ctx)
}

// cronLogger routes cron's internal logging to arbor
type cronLogger struct {
	logger arbor.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Str("fields", formatKeysAndValues(keysAndValues)).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Str("fields", formatKeysAndValues(keysAndValues)).Msg("cron: " + msg)
}

func formatKeysAndValues(keysAndValues []interface{}) string {
	out := ""
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return out
}
