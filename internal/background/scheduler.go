package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront-backend/pkg/logger"
)

type SchedulerConfig struct {
	WorkerCount int
	QueueSize   int
}

type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Job is a unit of background work. Run receives a context that is canceled
// when the scheduler shuts down or the job timeout elapses.
type Job struct {
	Name        string
	Run         func(ctx context.Context) error
	Delay       time.Duration
	Timeout     time.Duration
	RetryPolicy RetryPolicy
}

var (
	ErrSchedulerNotStarted   = errors.New("scheduler not started")
	ErrJobAlreadyScheduled   = errors.New("job already scheduled")
	errSchedulerShuttingDown = errors.New("scheduler is shutting down")
)

// Scheduler runs jobs on a fixed pool of workers. Unique jobs are never
// queued twice while a previous run is still pending or executing.
type Scheduler struct {
	config SchedulerConfig

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	queue chan queuedJob

	workerWG   sync.WaitGroup
	jobWG      sync.WaitGroup
	periodicWG sync.WaitGroup

	activeJobs map[string]struct{}
}

type queuedJob struct {
	job     Job
	attempt int
	unique  bool
}

var (
	metricsOnce        sync.Once
	jobRunsTotal       *prometheus.CounterVec
	jobDurationSeconds *prometheus.HistogramVec
	jobLastSuccess     *prometheus.GaugeVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "background",
			Name:      "job_runs_total",
			Help:      "Total background job executions by outcome",
		}, []string{"job", "status"})

		jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "background",
			Name:      "job_duration_seconds",
			Help:      "Duration of background job executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"})

		jobLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "background",
			Name:      "job_last_success_timestamp",
			Help:      "Unix timestamp of the last successful run of a job",
		}, []string{"job"})
	})
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	initMetrics()

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	return &Scheduler{
		config:     cfg,
		queue:      make(chan queuedJob, cfg.QueueSize),
		activeJobs: make(map[string]struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}

	logger.Debug("Background scheduler started", map[string]interface{}{
		"workers": s.config.WorkerCount,
	})
}

func (s *Scheduler) worker() {
	defer s.workerWG.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case queued := <-s.queue:
			s.execute(queued)
		}
	}
}

func (s *Scheduler) execute(queued queuedJob) {
	if queued.job.Delay > 0 {
		timer := time.NewTimer(queued.job.Delay)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			s.finish(queued, context.Canceled)
			return
		}
	}

	s.jobWG.Add(1)
	defer s.jobWG.Done()

	err := s.run(queued)
	if err != nil && s.shouldRetry(queued, err) {
		retry := queued
		retry.attempt++
		retry.job.Delay = queued.job.RetryPolicy.Backoff
		if s.enqueue(retry) {
			return
		}
	}

	s.finish(queued, err)
}

func (s *Scheduler) run(queued queuedJob) (runErr error) {
	name := queued.job.Name
	start := time.Now()
	status := "success"

	ctx := s.ctx
	if queued.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, queued.job.Timeout)
		defer cancel()
	}

	defer func() {
		jobDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
		jobRunsTotal.WithLabelValues(name, status).Inc()
		if status == "success" {
			jobLastSuccess.WithLabelValues(name).Set(float64(time.Now().Unix()))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("panic: %v", r)
			status = "failure"
			logger.Error(runErr, "Background job panicked", map[string]interface{}{"job": name, "attempt": queued.attempt})
		}
	}()

	if err := ctx.Err(); err != nil {
		status = "canceled"
		return err
	}

	if err := queued.job.Run(ctx); err != nil {
		status = "failure"
		if errors.Is(err, context.Canceled) {
			status = "canceled"
		}
		return err
	}

	return nil
}

func (s *Scheduler) shouldRetry(queued queuedJob, err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return queued.attempt <= queued.job.RetryPolicy.MaxRetries
}

func (s *Scheduler) enqueue(queued queuedJob) bool {
	select {
	case <-s.ctx.Done():
		return false
	case s.queue <- queued:
		return true
	}
}

func (s *Scheduler) finish(queued queuedJob, runErr error) {
	if queued.unique {
		s.mu.Lock()
		delete(s.activeJobs, queued.job.Name)
		s.mu.Unlock()
	}

	fields := map[string]interface{}{"job": queued.job.Name, "attempt": queued.attempt}
	switch {
	case runErr == nil:
		logger.Debug("Background job completed", fields)
	case errors.Is(runErr, context.Canceled):
		logger.Warn("Background job canceled", fields)
	default:
		logger.Error(runErr, "Background job failed", fields)
	}
}

// Schedule queues a single run of job.
func (s *Scheduler) Schedule(job Job) error {
	return s.schedule(job, false)
}

// ScheduleUnique queues job unless a job with the same name is already
// pending or running, in which case ErrJobAlreadyScheduled is returned.
func (s *Scheduler) ScheduleUnique(job Job) error {
	return s.schedule(job, true)
}

func validateJob(job Job) error {
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Run == nil {
		return errors.New("job runner is required")
	}
	return nil
}

func (s *Scheduler) schedule(job Job, unique bool) error {
	if err := validateJob(job); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrSchedulerNotStarted
	}
	if unique {
		if _, exists := s.activeJobs[job.Name]; exists {
			s.mu.Unlock()
			return ErrJobAlreadyScheduled
		}
		s.activeJobs[job.Name] = struct{}{}
	}
	s.mu.Unlock()

	if !s.enqueue(queuedJob{job: job, attempt: 1, unique: unique}) {
		if unique {
			s.mu.Lock()
			delete(s.activeJobs, job.Name)
			s.mu.Unlock()
		}
		return errSchedulerShuttingDown
	}

	return nil
}

// Every submits job as a unique job on each tick of interval until the
// scheduler shuts down. A tick is skipped while the previous run is active.
func (s *Scheduler) Every(job Job, interval time.Duration) error {
	if err := validateJob(job); err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("interval for job %q must be positive", job.Name)
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrSchedulerNotStarted
	}
	ctx := s.ctx
	s.periodicWG.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.periodicWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := s.ScheduleUnique(job)
				switch {
				case err == nil:
				case errors.Is(err, ErrJobAlreadyScheduled):
					logger.Debug("Skipping tick, previous run still active", map[string]interface{}{"job": job.Name})
				case errors.Is(err, errSchedulerShuttingDown):
					return
				default:
					logger.Error(err, "Failed to schedule periodic job", map[string]interface{}{"job": job.Name})
				}
			}
		}
	}()

	logger.Info("Periodic job registered", map[string]interface{}{
		"job":      job.Name,
		"interval": interval.String(),
	})
	return nil
}

// Shutdown stops tickers and workers and waits for running jobs to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.periodicWG.Wait()
		s.workerWG.Wait()
		s.jobWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) ActiveJobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeJobs)
}
