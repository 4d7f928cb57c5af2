package database

import (
	"context"
)

type MatchStateRepository interface {
	ListMatchStates(ctx context.Context) ([]MatchState, error)
	// CommitMatchStates upserts fresh states and deletes absent keys in one transaction.
	CommitMatchStates(ctx context.Context, upserts []MatchState, deletes []string) error
	GetMatchStateCount(ctx context.Context) (int, error)
}

type PublishedMatchRepository interface {
	IsMatchPublished(ctx context.Context, identifier string) (bool, error)
	// ClaimMatch records identifier and reports whether this call inserted it.
	ClaimMatch(ctx context.Context, identifier string) (bool, error)
	ListPublishedMatches(ctx context.Context, limit int) ([]PublishedMatch, error)
	GetPublishedMatchCount(ctx context.Context) (int, error)
}

type NewsRepository interface {
	IsNewsPublished(ctx context.Context, articleURL string) (bool, error)
	MarkNewsPublished(ctx context.Context, item PublishedNews) error
	ListPublishedNews(ctx context.Context, limit int) ([]PublishedNews, error)
	GetPublishedNewsCount(ctx context.Context) (int, error)
}

type GlobalStateRepository interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

type BroadcastRepository interface {
	RecordBroadcast(ctx context.Context, kind, content string, recipients int) (int64, error)
	ListBroadcasts(ctx context.Context, limit int) ([]Broadcast, error)
	GetBroadcastCount(ctx context.Context) (int, error)
}
