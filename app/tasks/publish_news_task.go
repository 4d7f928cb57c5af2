package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/minute-foot/app/scrape"
)

// PublishNewsTask browses with a session of its own, closed when the task ends,
// so the shared live session is never used from two workers.
type PublishNewsTask struct {
	Task
	engine     Engine
	newSession scrape.SessionFactory
}

func NewPublishNewsTask(engine Engine, newSession scrape.SessionFactory) *PublishNewsTask {
	return &PublishNewsTask{
		Task:       NewTask(TaskTypePublishNews, 1),
		engine:     engine,
		newSession: newSession,
	}
}

func (t *PublishNewsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	session, err := t.newSession()
	if err != nil {
		return fmt.Errorf("failed to start news session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close news session", "error", err)
		}
	}()

	stats, err := t.engine.RunNews(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to publish news: %w", err)
	}

	slog.Info("Task completed",
		"type", "PublishNews",
		"fetched", stats.Fetched,
		"published", stats.Published,
		"skipped", stats.Skipped,
		"duration", t.GetDuration())

	return nil
}
