package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/metrics"
)

// Announcer records each message in the broadcast history, then delivers it to
// every destination independently.
type Announcer struct {
	history     database.BroadcastRepository
	concurrency int
}

func NewAnnouncer(history database.BroadcastRepository, concurrency int) *Announcer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Announcer{history: history, concurrency: concurrency}
}

// Announce never fails because of a destination. The returned error only reports
// a history write failure, which does not stop delivery.
func (a *Announcer) Announce(ctx context.Context, kind, message string, destinations []Destination) error {
	var historyErr error
	if _, err := a.history.RecordBroadcast(ctx, kind, message, len(destinations)); err != nil {
		slog.Error("Failed to record broadcast", "kind", kind, "error", err)
		historyErr = fmt.Errorf("failed to record broadcast: %w", err)
	}

	metrics.RecordEvent(kind)

	if len(destinations) == 0 {
		slog.Debug("No destination for announcement", "kind", kind)
		return historyErr
	}

	var failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)

	for _, d := range destinations {
		g.Go(func() error {
			if err := d.Publish(ctx, message); err != nil {
				failed.Add(1)
				metrics.RecordDelivery(d.Kind(), "error")
				slog.Warn("Delivery failed", "kind", kind, "destination", d.Name(), "error", err)
				return nil
			}
			metrics.RecordDelivery(d.Kind(), "success")
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Announcement sent",
		"kind", kind,
		"destinations", len(destinations),
		"failed", failed.Load())

	return historyErr
}
