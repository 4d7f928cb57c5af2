package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lysyi3m/minute-foot/app/database"
	"github.com/lysyi3m/minute-foot/app/match"
	"github.com/lysyi3m/minute-foot/app/scrape"
)

type NewsStats struct {
	Fetched   int
	Published int
	Skipped   int
}

// RunNews announces unseen articles oldest first. Each article is recorded right
// after its announcement, so an interrupted cycle resumes where it stopped.
// Articles without content are left unrecorded and retried next cycle.
func (e *Engine) RunNews(ctx context.Context, s scrape.Session) (*NewsStats, error) {
	destinations := e.resolver.NewsDestinations(e.clock())
	if len(destinations) == 0 {
		slog.Debug("No destination for news, cycle skipped")
		return &NewsStats{}, nil
	}

	items, err := e.news.FetchNewsList(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news list: %w", err)
	}

	items = slices.Clone(items)
	slices.Reverse(items)

	stats := &NewsStats{Fetched: len(items)}
	var broken sessionFailure
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if item.URL == "" || seen[item.URL] {
			stats.Skipped++
			continue
		}
		seen[item.URL] = true

		published, err := e.newsStore.IsNewsPublished(ctx, item.URL)
		if err != nil {
			return stats, fmt.Errorf("failed to check published news: %w", err)
		}
		if published {
			stats.Skipped++
			continue
		}

		content, found, err := e.news.FetchArticle(ctx, s, item.URL)
		if err != nil {
			broken.observe(err)
			slog.Warn("Article unavailable", "url", item.URL, "error", err)
		}
		if err != nil || !found {
			stats.Skipped++
			continue
		}

		if stats.Published > 0 && e.newsPause > 0 {
			if err := sleep(ctx, e.newsPause); err != nil {
				return stats, err
			}
		}

		e.announce(ctx, database.BroadcastKindNews, match.NewsMessage(item.Title, content), destinations)

		markCtx, cancel := persistContext(ctx)
		err = e.newsStore.MarkNewsPublished(markCtx, database.PublishedNews{
			ArticleURL:  item.URL,
			Title:       item.Title,
			Content:     content,
			Source:      item.Source,
			PublishedAt: e.clock(),
		})
		cancel()
		if err != nil {
			return stats, fmt.Errorf("failed to mark news published: %w", err)
		}
		stats.Published++
	}

	if broken.err != nil {
		return stats, fmt.Errorf("news cycle degraded: %w", broken.err)
	}

	return stats, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
