package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/match"
)

// RunSummary announces the in-progress scores when they changed since the last
// summary. It reports whether a summary was sent. The stored hash only moves
// after an announcement.
func (e *Engine) RunSummary(ctx context.Context) (bool, error) {
	states, err := e.states.ListMatchStates(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load match states: %w", err)
	}

	var lines []match.SummaryLine
	for _, st := range states {
		if match.IsFinished(st.Status) {
			continue
		}
		lines = append(lines, match.SummaryLine{
			Key:    st.MatchKey,
			Eq1:    st.Eq1,
			Eq2:    st.Eq2,
			Score:  st.Score,
			Status: st.Status,
			Minute: st.Minute,
		})
	}

	if len(lines) == 0 {
		slog.Debug("No match in progress, summary skipped")
		return false, nil
	}

	destinations := e.resolver.LiveDestinations(e.clock())
	if len(destinations) == 0 {
		slog.Debug("No destination for summary")
		return false, nil
	}

	hash := match.SummaryHash(lines)
	last, _, err := e.global.GetValue(ctx, database.GlobalKeyLastSummaryHash)
	if err != nil {
		return false, fmt.Errorf("failed to read last summary hash: %w", err)
	}
	if hash == last {
		slog.Debug("Scores unchanged, summary skipped", "matches", len(lines))
		return false, nil
	}

	e.announce(ctx, database.BroadcastKindSummary, match.SummaryMessage(lines), destinations)

	storeCtx, cancel := persistContext(ctx)
	defer cancel()

	if err := e.global.SetValue(storeCtx, database.GlobalKeyLastSummaryHash, hash); err != nil {
		return true, fmt.Errorf("failed to store summary hash: %w", err)
	}

	return true, nil
}
