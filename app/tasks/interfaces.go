package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/engine"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Trigger builds a task of the given type and enqueues it, honoring the
// one-in-flight-per-type rule like every other enqueue.
//
//	scheduler := NewScheduler(factory, JobsFromConfig(), SchedulerOptions{WorkerCount: 3})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.Trigger(TaskTypeLiveSummary)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Trigger(taskType TaskType) (TaskInterface, error)
}

type Engine interface {
	RunLiveCycle(ctx context.Context, s scrape.Session) (*engine.LiveStats, error)
	RunFinishedCycle(ctx context.Context, s scrape.Session) (*engine.FinishedStats, error)
	RunSummary(ctx context.Context) (bool, error)
	RunNews(ctx context.Context, s scrape.Session) (*engine.NewsStats, error)
}

// SessionProvider hands out the shared live session.
type SessionProvider interface {
	Acquire() (scrape.Session, error)
	Discard()
}

type DestinationLoader interface {
	Run() error
	GetConfigCount() int
	ExpiredConfigs(now time.Time) []*announce.Config
}

var (
	_ Engine            = (*engine.Engine)(nil)
	_ SessionProvider   = (*scrape.SessionManager)(nil)
	_ DestinationLoader = (*announce.DestinationCache)(nil)
)
