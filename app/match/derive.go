package match

import "fmt"

type EventKind string

const (
	EventKickoff    EventKind = "live"
	EventHalfTime   EventKind = "halftime"
	EventGoal       EventKind = "goal"
	EventDisallowed EventKind = "var"
)

type Side int

const (
	Home Side = 1
	Away Side = 2
)

type Event struct {
	Kind EventKind
	Side Side
	// Enrich is set on a goal when it is the only side that scored this cycle,
	// so the detail page's latest goal can be attributed to it.
	Enrich bool
}

// Team returns the display name of the side the event concerns.
func (e Event) Team(r Record) string {
	if e.Side == Away {
		return r.Eq2
	}
	return r.Eq1
}

// Derive compares the previous state of a match with a fresh record and returns
// the events to announce. prev is nil for a match seen for the first time.
// Disallowed goals come before goals. A score that cannot be parsed on either side
// yields ErrMalformedScore and no events.
func Derive(prev *Record, cur Record) ([]Event, error) {
	if prev == nil {
		if _, ok := ParseScore(cur.Score); ok && IsLiveClock(cur.Minute) {
			return []Event{{Kind: EventKickoff}}, nil
		}
		return nil, nil
	}

	if cur.Status == StatusHalfTime && prev.Status != StatusHalfTime {
		return []Event{{Kind: EventHalfTime}}, nil
	}

	if cur.Score == prev.Score {
		return nil, nil
	}

	before, okBefore := ParseScore(prev.Score)
	after, okAfter := ParseScore(cur.Score)
	if !okBefore || !okAfter {
		return nil, fmt.Errorf("%w: %q -> %q", ErrMalformedScore, prev.Score, cur.Score)
	}

	var events []Event
	if after.Home < before.Home {
		events = append(events, Event{Kind: EventDisallowed, Side: Home})
	}
	if after.Away < before.Away {
		events = append(events, Event{Kind: EventDisallowed, Side: Away})
	}

	homeScored := after.Home > before.Home
	awayScored := after.Away > before.Away
	single := homeScored != awayScored

	if homeScored {
		events = append(events, Event{Kind: EventGoal, Side: Home, Enrich: single})
	}
	if awayScored {
		events = append(events, Event{Kind: EventGoal, Side: Away, Enrich: single})
	}

	return events, nil
}
