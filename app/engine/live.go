package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/match"
	"github.com/lysyi3m/minute-foot/app/metrics"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

type LiveStats struct {
	Fetched   int
	Events    int
	Malformed int
	Upserted  int
	Deleted   int
}

// RunLiveCycle diffs the live listing against the stored states, announces the
// derived events and commits the fresh states in one transaction.
//
// A listing failure aborts before any mutation. Enrichment failures only degrade
// the message. When the session broke along the way the cycle still commits, then
// returns an error wrapping scrape.ErrSessionBroken.
func (e *Engine) RunLiveCycle(ctx context.Context, s scrape.Session) (*LiveStats, error) {
	records, err := e.live.FetchLiveListing(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live listing: %w", err)
	}

	stored, err := e.states.ListMatchStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load match states: %w", err)
	}

	previous := make(map[string]match.Record, len(stored))
	for _, st := range stored {
		previous[st.MatchKey] = recordFromState(st)
	}

	fresh := dedupeRecords(records)
	stats := &LiveStats{Fetched: len(fresh)}
	destinations := e.resolver.LiveDestinations(e.clock())

	var broken sessionFailure
	upserts := make([]database.MatchState, 0, len(fresh))
	seen := make(map[string]bool, len(fresh))

	for _, r := range fresh {
		seen[r.Key] = true

		var prev *match.Record
		if p, ok := previous[r.Key]; ok {
			prev = &p
		}

		events, err := match.Derive(prev, r)
		if err != nil {
			if errors.Is(err, match.ErrMalformedScore) {
				stats.Malformed++
				slog.Debug("Score not comparable, state stored as is", "match", r.Key, "error", err)
			} else {
				slog.Warn("Failed to derive events", "match", r.Key, "error", err)
			}
		}

		for _, ev := range events {
			e.announceLiveEvent(ctx, s, r, ev, destinations, &broken)
			stats.Events++
		}

		upserts = append(upserts, stateFromRecord(r, e.clock()))
	}

	var deletes []string
	for key := range previous {
		if !seen[key] {
			deletes = append(deletes, key)
		}
	}

	commitCtx, cancel := persistContext(ctx)
	defer cancel()

	if err := e.states.CommitMatchStates(commitCtx, upserts, deletes); err != nil {
		return stats, fmt.Errorf("failed to commit match states: %w", err)
	}
	stats.Upserted = len(upserts)
	stats.Deleted = len(deletes)
	metrics.SetTrackedMatches(len(upserts))

	if broken.err != nil {
		return stats, fmt.Errorf("live cycle degraded: %w", broken.err)
	}

	return stats, nil
}

func (e *Engine) announceLiveEvent(ctx context.Context, s scrape.Session, r match.Record, ev match.Event, destinations []announce.Destination, broken *sessionFailure) {
	switch ev.Kind {
	case match.EventKickoff:
		e.announce(ctx, database.BroadcastKindLive, match.KickoffMessage(r), destinations)

	case match.EventHalfTime:
		e.announce(ctx, database.BroadcastKindHalfTime, match.HalfTimeMessage(r, e.matchStats(ctx, s, r.URL, broken)), destinations)

	case match.EventDisallowed:
		e.announce(ctx, database.BroadcastKindVAR, match.DisallowedMessage(r, ev.Team(r)), destinations)

	case match.EventGoal:
		var detail match.Detail
		if ev.Enrich {
			d, found, err := e.live.FetchMatchDetail(ctx, s, r.URL)
			if err != nil {
				broken.observe(err)
				slog.Warn("Goal detail unavailable", "match", r.Key, "error", err)
			} else if found {
				detail = d
			}
		}
		e.announce(ctx, database.BroadcastKindGoal, match.GoalMessage(r, ev.Team(r), detail), destinations)
	}
}

func (e *Engine) matchStats(ctx context.Context, s scrape.Session, url string, broken *sessionFailure) string {
	stats, found, err := e.live.FetchMatchStats(ctx, s, url)
	if err != nil {
		broken.observe(err)
		slog.Warn("Match stats unavailable", "url", url, "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return stats
}

// dedupeRecords keeps the last occurrence of each key at the position of the first.
func dedupeRecords(records []match.Record) []match.Record {
	index := make(map[string]int, len(records))
	out := make([]match.Record, 0, len(records))
	for _, r := range records {
		if r.Key == "" {
			continue
		}
		if i, ok := index[r.Key]; ok {
			out[i] = r
			continue
		}
		index[r.Key] = len(out)
		out = append(out, r)
	}
	return out
}

func recordFromState(st database.MatchState) match.Record {
	return match.Record{
		Key:    st.MatchKey,
		Eq1:    st.Eq1,
		Eq2:    st.Eq2,
		Score:  st.Score,
		Status: st.Status,
		Minute: st.Minute,
		URL:    st.URL,
	}
}

func stateFromRecord(r match.Record, now time.Time) database.MatchState {
	return database.MatchState{
		MatchKey:  r.Key,
		Score:     r.Score,
		Status:    r.Status,
		Minute:    r.Minute,
		Eq1:       r.Eq1,
		Eq2:       r.Eq2,
		URL:       r.URL,
		UpdatedAt: now,
	}
}
