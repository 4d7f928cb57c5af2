package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type LiveSummaryTask struct {
	Task
	engine Engine
}

func NewLiveSummaryTask(engine Engine) *LiveSummaryTask {
	return &LiveSummaryTask{
		Task:   NewTask(TaskTypeLiveSummary, 1),
		engine: engine,
	}
}

func (t *LiveSummaryTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sent, err := t.engine.RunSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to run summary: %w", err)
	}

	slog.Info("Task completed",
		"type", "LiveSummary",
		"sent", sent,
		"duration", t.GetDuration())

	return nil
}
