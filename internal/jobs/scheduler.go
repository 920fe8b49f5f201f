package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"dispatch/internal/pkg/errs"

	"github.com/WatchBeam/clock"
	"github.com/robfig/cron/v3"
)

// Names of the built-in jobs as they appear in the registry and over HTTP.
const (
	JobOverdueDeliveries      = "overdueDeliveries"
	JobDataCleanup            = "dataCleanup"
	JobPerformanceMetrics     = "performanceMetrics"
	JobNotificationProcessing = "notificationProcessing"
	JobHealthCheck            = "healthCheck"
)

// Default cron schedules for the built-in jobs.
const (
	ScheduleOverdueDeliveries      = "*/30 * * * *"
	ScheduleDataCleanup            = "0 2 * * *"
	SchedulePerformanceMetrics     = "*/15 * * * *"
	ScheduleNotificationProcessing = "*/5 * * * *"
	ScheduleHealthCheck            = "* * * * *"
)

// defaultRunTimeout bounds a single job execution so a hung store call
// cannot stall a trigger indefinitely.
const defaultRunTimeout = 5 * time.Minute

// JobFunc is one stateless unit of work fired by the Scheduler.
type JobFunc func(ctx context.Context) error

// JobError captures the last failed execution of a job.
type JobError struct {
	Message    string    `json:"message"`
	Stack      string    `json:"stack,omitempty"`
	DurationMs float64   `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

// JobStatus is a read-only view of one registered job's schedule and
// statistics.
type JobStatus struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastError    *JobError  `json:"lastError,omitempty"`
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
	IsRunning    bool       `json:"isRunning"`
}

// SchedulerStatus is a read-only snapshot of the whole registry.
type SchedulerStatus struct {
	IsRunning bool                 `json:"isRunning"`
	TotalJobs int                  `json:"totalJobs"`
	Jobs      map[string]JobStatus `json:"jobs"`
}

// JobSet carries the five built-in jobs the Scheduler activates on StartAll.
// Nil members are skipped, which lets tests start a partial scheduler.
type JobSet struct {
	OverdueDetector       *OverdueDetector
	DataArchiver          *DataArchiver
	PerformanceCollector  *PerformanceCollector
	NotificationProcessor *NotificationProcessor
	HealthChecker         *HealthChecker
}

// jobRecord is the Scheduler's internal descriptor of one registered job.
// Statistics updates go through its own mutex so an in-flight run can finish
// recording even after StopAll has cleared the registry.
type jobRecord struct {
	mu           sync.Mutex
	name         string
	schedule     string
	fn           JobFunc
	lastRun      *time.Time
	lastError    *JobError
	successCount int
	errorCount   int
	running      bool
}

// tryBegin marks the record running unless a previous run is still in
// progress. This is the overlap guard: a slow run causes the next firing to
// be skipped rather than stacked.
func (r *jobRecord) tryBegin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *jobRecord) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *jobRecord) complete(started time.Time, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errorCount++
		r.lastError = &JobError{
			Message:    err.Error(),
			Stack:      stackOf(err),
			DurationMs: float64(duration) / float64(time.Millisecond),
			Timestamp:  started.Add(duration),
		}
		return
	}
	r.successCount++
	finished := started.Add(duration)
	r.lastRun = &finished
}

func (r *jobRecord) status() JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := JobStatus{
		Name:         r.name,
		Schedule:     r.schedule,
		SuccessCount: r.successCount,
		ErrorCount:   r.errorCount,
		IsRunning:    r.running,
	}
	if r.lastRun != nil {
		lastRun := *r.lastRun
		st.LastRun = &lastRun
	}
	if r.lastError != nil {
		lastError := *r.lastError
		st.LastError = &lastError
	}
	return st
}

// Scheduler owns the named registry of recurring jobs. It has an explicit
// lifecycle (NewScheduler -> StartAll -> ... -> StopAll) and is injected into
// the HTTP layer rather than accessed as a singleton, so tests can run
// multiple instances side by side.
type Scheduler struct {
	mu         sync.RWMutex
	cron       *cron.Cron
	jobs       map[string]*jobRecord
	running    bool
	set        JobSet
	schedules  map[string]string
	runTimeout time.Duration
	clk        clock.Clock
	logger     *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock injects the time source used for run statistics.
func WithClock(clk clock.Clock) Option {
	return func(s *Scheduler) { s.clk = clk }
}

// WithRunTimeout bounds a single job execution.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.runTimeout = d }
}

// WithSchedule overrides the default cron expression for a built-in job.
func WithSchedule(name, scheduleExpression string) Option {
	return func(s *Scheduler) { s.schedules[name] = scheduleExpression }
}

// NewScheduler creates a stopped scheduler over the given job set.
func NewScheduler(set JobSet, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:       cron.New(),
		jobs:       make(map[string]*jobRecord),
		set:        set,
		schedules:  make(map[string]string),
		runTimeout: defaultRunTimeout,
		clk:        clock.C,
		logger:     logger.With("component", "job_scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job under a unique name and binds it to the cron
// expression. The trigger fires once the scheduler is started.
func (s *Scheduler) Register(name, scheduleExpression string, fn JobFunc) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	if fn == nil {
		return errs.NewValueIsRequiredError("runFunction")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return errs.NewValueIsInvalidErrorWithCause("name", fmt.Errorf("job %q is already registered", name))
	}

	rec := &jobRecord{name: name, schedule: scheduleExpression, fn: fn}
	if _, err := s.cron.AddFunc(scheduleExpression, func() { s.runScheduled(rec) }); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("scheduleExpression", err)
	}
	s.jobs[name] = rec
	return nil
}

type builtin struct {
	name     string
	schedule string
	fn       JobFunc
}

func (s *Scheduler) builtins() []builtin {
	var all []builtin
	if s.set.OverdueDetector != nil {
		all = append(all, builtin{JobOverdueDeliveries, ScheduleOverdueDeliveries, s.set.OverdueDetector.runJob})
	}
	if s.set.DataArchiver != nil {
		all = append(all, builtin{JobDataCleanup, ScheduleDataCleanup, s.set.DataArchiver.runJob})
	}
	if s.set.PerformanceCollector != nil {
		all = append(all, builtin{JobPerformanceMetrics, SchedulePerformanceMetrics, s.set.PerformanceCollector.runJob})
	}
	if s.set.NotificationProcessor != nil {
		all = append(all, builtin{JobNotificationProcessing, ScheduleNotificationProcessing, s.set.NotificationProcessor.runJob})
	}
	if s.set.HealthChecker != nil {
		all = append(all, builtin{JobHealthCheck, ScheduleHealthCheck, s.set.HealthChecker.runJob})
	}
	for i := range all {
		if override, ok := s.schedules[all[i].name]; ok {
			all[i].schedule = override
		}
	}
	return all
}

// StartAll registers the built-in jobs at their schedules and activates the
// triggers. Calling it on a running scheduler is a logged no-op.
func (s *Scheduler) StartAll() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Scheduler already running, ignoring start request")
		return nil
	}
	s.mu.Unlock()

	for _, b := range s.builtins() {
		if err := s.Register(b.name, b.schedule, b.fn); err != nil {
			return fmt.Errorf("failed to register job %q: %w", b.name, err)
		}
	}

	s.mu.Lock()
	s.running = true
	total := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", total)
	return nil
}

// StopAll cancels every trigger and clears the registry, statistics included:
// this is a control-plane reset, not a pause. In-flight runs finish and
// record against their own descriptor.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running && len(s.jobs) == 0 {
		s.logger.Info("Scheduler is not running, ignoring stop request")
		return
	}

	s.cron.Stop()
	s.cron = cron.New()
	s.jobs = make(map[string]*jobRecord)
	s.running = false
	s.logger.Info("Scheduler stopped, registry cleared")
}

// RunOnce fires the named job immediately, out of band from its schedule.
// Statistics update exactly as for a scheduled firing, but the error is
// propagated so manual invocations can report failure synchronously.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (time.Duration, error) {
	s.mu.RLock()
	rec, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return 0, errs.NewObjectNotFoundError("job", name)
	}

	busy, duration, err := s.run(ctx, rec)
	if busy {
		return 0, errs.NewValueIsInvalidErrorWithCause("job", fmt.Errorf("job %q is already running", name))
	}
	return duration, err
}

// Status returns a deep-copied snapshot of the registry.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		IsRunning: s.running,
		TotalJobs: len(s.jobs),
		Jobs:      make(map[string]JobStatus, len(s.jobs)),
	}
	for name, rec := range s.jobs {
		status.Jobs[name] = rec.status()
	}
	return status
}

// runScheduled is the uniform wrapper around a trigger firing. Errors are
// swallowed here so one job's failure never stops the scheduler or the other
// jobs.
func (s *Scheduler) runScheduled(rec *jobRecord) {
	busy, _, _ := s.run(context.Background(), rec)
	if busy {
		s.logger.Warn("Previous run still in progress, skipping firing", "job", rec.name)
	}
}

func (s *Scheduler) run(ctx context.Context, rec *jobRecord) (busy bool, duration time.Duration, err error) {
	if !rec.tryBegin() {
		return true, 0, nil
	}
	defer rec.end()

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	started := s.clk.Now()
	err = runGuarded(runCtx, rec.fn)
	duration = s.clk.Now().Sub(started)
	rec.complete(started, duration, err)

	if err != nil {
		s.logger.Error("Job failed", "job", rec.name, "duration", duration, "error", err)
	} else {
		s.logger.Info("Job completed", "job", rec.name, "duration", duration)
	}
	return false, duration, err
}

// panicError carries the stack captured when a job function panicked.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.value)
}

func stackOf(err error) string {
	if pe, ok := err.(*panicError); ok {
		return string(pe.stack)
	}
	return ""
}

// runGuarded invokes the job function, converting a panic into a regular
// error so a broken job cannot take the whole process down.
func runGuarded(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}
