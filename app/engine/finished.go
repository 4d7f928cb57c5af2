package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/match"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

type FinishedStats struct {
	Fetched   int
	Published int
	Skipped   int
}

// RunFinishedCycle announces each finished match once. The source id is claimed
// before announcing: a crash in between loses the announcement rather than
// repeating it.
func (e *Engine) RunFinishedCycle(ctx context.Context, s scrape.Session) (*FinishedStats, error) {
	records, err := e.live.FetchFinishedListing(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch finished listing: %w", err)
	}

	stats := &FinishedStats{Fetched: len(records)}
	destinations := e.resolver.LiveDestinations(e.clock())
	var broken sessionFailure

	for _, f := range records {
		if !match.IsFinished(f.Status) || f.SourceID == "" {
			stats.Skipped++
			continue
		}

		published, err := e.published.IsMatchPublished(ctx, f.SourceID)
		if err != nil {
			return stats, fmt.Errorf("failed to check published match %s: %w", f.SourceID, err)
		}
		if published {
			stats.Skipped++
			continue
		}

		claimed, err := e.published.ClaimMatch(ctx, f.SourceID)
		if err != nil {
			return stats, fmt.Errorf("failed to claim match %s: %w", f.SourceID, err)
		}
		if !claimed {
			stats.Skipped++
			continue
		}

		penalties, found, err := e.live.FetchPenaltyResult(ctx, s, f.URL)
		if err != nil {
			broken.observe(err)
			slog.Warn("Penalty result unavailable", "match", f.SourceID, "error", err)
		}
		if !found {
			penalties = ""
		}
		matchStats := e.matchStats(ctx, s, f.URL, &broken)

		e.announce(ctx, database.BroadcastKindFinished, match.FinishedMessage(f, penalties, matchStats), destinations)
		stats.Published++
	}

	if broken.err != nil {
		return stats, fmt.Errorf("finished cycle degraded: %w", broken.err)
	}

	return stats, nil
}
