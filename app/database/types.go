package database

import (
	"time"
)

// MatchState is the last observed state of an in-progress match.
type MatchState struct {
	MatchKey  string // "{team1} vs {team2}"
	Score     string // normalized "A - B" or the raw text when unparseable
	Status    string // "", "MT" or "TER"
	Minute    string // free text clock, e.g. "67'" or "Mi-temps"
	Eq1       string
	Eq2       string
	URL       string
	UpdatedAt time.Time
}

type PublishedMatch struct {
	MatchIdentifier string
	PublishedAt     time.Time
}

type PublishedNews struct {
	ArticleURL  string
	Title       string
	Content     string
	Source      string
	PublishedAt time.Time
}

// Broadcast is one announcement as it was intended, written before any delivery.
type Broadcast struct {
	ID         int64
	Kind       string
	Content    string
	Recipients int
	CreatedAt  time.Time
}

const (
	BroadcastKindLive     = "live"
	BroadcastKindHalfTime = "halftime"
	BroadcastKindGoal     = "goal"
	BroadcastKindVAR      = "var"
	BroadcastKindFinished = "finished"
	BroadcastKindSummary  = "summary"
	BroadcastKindNews     = "news"
)

const GlobalKeyLastSummaryHash = "last_summary_hash"
