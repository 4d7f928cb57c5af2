package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SweepDestinationsTask reloads the destination files and reports paid
// destinations whose subscription lapsed. They stop receiving announcements
// on their own; the report is for whoever renews them.
type SweepDestinationsTask struct {
	Task
	destinations DestinationLoader
	clock        func() time.Time
}

func NewSweepDestinationsTask(destinations DestinationLoader) *SweepDestinationsTask {
	return &SweepDestinationsTask{
		Task:         NewTask(TaskTypeSweepDestinations, DefaultMaxRetries),
		destinations: destinations,
		clock:        time.Now,
	}
}

func (t *SweepDestinationsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.destinations.Run(); err != nil {
		return fmt.Errorf("failed to reload destinations: %w", err)
	}

	expired := t.destinations.ExpiredConfigs(t.clock())
	for _, c := range expired {
		slog.Warn("Destination subscription expired",
			"destination", c.Name,
			"plan", c.Plan,
			"expired_at", c.ExpiresAt)
	}

	slog.Info("Task completed",
		"type", "SweepDestinations",
		"destinations", t.destinations.GetConfigCount(),
		"expired", len(expired),
		"duration", t.GetDuration())

	return nil
}
