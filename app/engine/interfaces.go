package engine

import (
	"context"
	"time"

	"github.com/lysyi3m/minute-foot/app/announce"
	"github.com/lysyi3m/minute-foot/app/match"
	"github.com/lysyi3m/minute-foot/app/news"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

// LiveSource reads the live-score site. Enrichment methods return (value, found, err):
// found is false when the page has nothing to offer, err is set when it could not be read.
type LiveSource interface {
	FetchLiveListing(ctx context.Context, s scrape.Session) ([]match.Record, error)
	FetchFinishedListing(ctx context.Context, s scrape.Session) ([]match.FinishedRecord, error)
	FetchMatchDetail(ctx context.Context, s scrape.Session, url string) (match.Detail, bool, error)
	FetchMatchStats(ctx context.Context, s scrape.Session, url string) (string, bool, error)
	FetchPenaltyResult(ctx context.Context, s scrape.Session, url string) (string, bool, error)
}

type NewsSource interface {
	FetchNewsList(ctx context.Context, s scrape.Session) ([]news.Item, error)
	FetchArticle(ctx context.Context, s scrape.Session, url string) (string, bool, error)
}

// Resolver returns the destinations entitled at the given instant.
type Resolver interface {
	LiveDestinations(now time.Time) []announce.Destination
	NewsDestinations(now time.Time) []announce.Destination
}

type Announcer interface {
	Announce(ctx context.Context, kind, message string, destinations []announce.Destination) error
}

var (
	_ LiveSource = (*scrape.Source)(nil)
	_ NewsSource = (*news.HTMLSource)(nil)
	_ NewsSource = (*news.FeedSource)(nil)
	_ Resolver   = (*announce.DestinationCache)(nil)
	_ Announcer  = (*announce.Announcer)(nil)
)
