package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/minute-foot/app/metrics"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

// LiveCheckTask runs the live and finished cycles on the shared session.
// The next tick retries, so it is never re-enqueued.
type LiveCheckTask struct {
	Task
	engine   Engine
	sessions SessionProvider
}

func NewLiveCheckTask(engine Engine, sessions SessionProvider) *LiveCheckTask {
	return &LiveCheckTask{
		Task:     NewTask(TaskTypeLiveCheck, 0),
		engine:   engine,
		sessions: sessions,
	}
}

func (t *LiveCheckTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	session, err := t.sessions.Acquire()
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}

	liveStats, liveErr := t.engine.RunLiveCycle(ctx, session)
	if t.discardIfBroken(liveErr) {
		return liveErr
	}

	finishedStats, finishedErr := t.engine.RunFinishedCycle(ctx, session)
	t.discardIfBroken(finishedErr)

	if err := errors.Join(liveErr, finishedErr); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "LiveCheck",
		"matches", liveStats.Fetched,
		"events", liveStats.Events,
		"removed", liveStats.Deleted,
		"finished", finishedStats.Published,
		"duration", t.GetDuration())

	return nil
}

func (t *LiveCheckTask) discardIfBroken(err error) bool {
	if err == nil || !errors.Is(err, scrape.ErrSessionBroken) {
		return false
	}

	slog.Warn("Scrape session broken, discarding", "error", err)
	t.sessions.Discard()
	metrics.RecordSessionRestart()
	return true
}
