package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lysyi3m/minute-foot/app/cfg"
	"github.com/lysyi3m/minute-foot/app/metrics"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrTaskInFlight = errors.New("task of this type is already queued or running")

// Job fires a task type on a fixed interval, or once a day at DailyAt ("HH:MM")
// when Interval is zero.
type Job struct {
	Type         TaskType
	Interval     time.Duration
	DailyAt      string
	RunAtStartup bool
}

type SchedulerOptions struct {
	WorkerCount  int
	CycleTimeout time.Duration
}

type Scheduler struct {
	factory      TaskFactory
	jobs         []Job
	workerCount  int
	cycleTimeout time.Duration
	retryBase    time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface

	mu       sync.Mutex
	inFlight map[TaskType]string
}

// JobsFromConfig builds the job table from the loaded configuration.
func JobsFromConfig() []Job {
	c := cfg.Get()

	return []Job{
		{Type: TaskTypeLiveCheck, Interval: time.Duration(c.LiveInterval) * time.Second, RunAtStartup: true},
		{Type: TaskTypeLiveSummary, Interval: time.Duration(c.SummaryInterval) * time.Second},
		{Type: TaskTypePublishNews, Interval: time.Duration(c.NewsInterval) * time.Second, RunAtStartup: true},
		{Type: TaskTypeSweepDestinations, DailyAt: c.SweepAt},
	}
}

func NewScheduler(factory TaskFactory, jobs []Job, opts SchedulerOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	workerCount := opts.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}
	cycleTimeout := opts.CycleTimeout
	if cycleTimeout <= 0 {
		cycleTimeout = 5 * time.Minute
	}

	return &Scheduler{
		factory:      factory,
		jobs:         jobs,
		workerCount:  workerCount,
		cycleTimeout: cycleTimeout,
		retryBase:    time.Second,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
		inFlight:     make(map[TaskType]string),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// EnqueueTask refuses a task whose type already has another task queued,
// running or waiting for a retry.
func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.claim(task); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		s.release(task)
		return s.ctx.Err()
	default:
		s.release(task)
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) Trigger(taskType TaskType) (TaskInterface, error) {
	task, err := s.factory(taskType)
	if err != nil {
		return nil, err
	}
	if err := s.EnqueueTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// InFlight lists the task types currently queued or running.
func (s *Scheduler) InFlight() []TaskType {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]TaskType, 0, len(s.inFlight))
	for _, t := range taskTypes {
		if _, ok := s.inFlight[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

func (s *Scheduler) claim(task TaskInterface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.inFlight[task.GetType()]; ok && id != task.GetID() {
		return fmt.Errorf("%w: %s", ErrTaskInFlight, task.GetType())
	}
	s.inFlight[task.GetType()] = task.GetID()
	return nil
}

func (s *Scheduler) release(task TaskInterface) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[task.GetType()] == task.GetID() {
		delete(s.inFlight, task.GetType())
	}
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	if job.RunAtStartup {
		s.fire(job.Type)
	}

	if job.Interval > 0 {
		ticker := time.NewTicker(job.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.fire(job.Type)
			}
		}
	}

	for {
		next, err := nextDaily(time.Now(), job.DailyAt)
		if err != nil {
			slog.Error("Invalid daily schedule, job disabled", "type", string(job.Type), "at", job.DailyAt, "error", err)
			return
		}
		slog.Debug("Daily job scheduled", "type", string(job.Type), "next_run", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire(job.Type)
		}
	}
}

func (s *Scheduler) fire(taskType TaskType) {
	if _, err := s.Trigger(taskType); err != nil {
		if errors.Is(err, ErrTaskInFlight) {
			slog.Debug("Previous run still in flight, tick skipped", "type", string(taskType))
			return
		}
		slog.Warn("Failed to enqueue task", "type", string(taskType), "error", err)
	}
}

// nextDaily returns the first time strictly after now at the HH:MM wall clock in now's location.
func nextDaily(now time.Time, at string) (time.Time, error) {
	clock, err := time.Parse("15:04", at)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse daily time %q: %w", at, err)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.cycleTimeout)
	defer cancel()

	err := s.run(taskCtx, task)
	duration := task.GetDuration()

	if err == nil {
		metrics.RecordCycle(string(task.GetType()), "success", duration.Seconds())
		s.release(task)
		return
	}

	metrics.RecordCycle(string(task.GetType()), "error", duration.Seconds())
	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		s.release(task)
		return
	}

	task.IncrementRetryCount()
	retryDelay := s.retryBase * time.Duration(1<<uint(task.GetRetryCount()-1))
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.release(task)
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// run executes the task and turns a panic into an error.
func (s *Scheduler) run(ctx context.Context, task TaskInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "type", string(task.GetType()), "id", task.GetID(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task.Execute(ctx)
}
