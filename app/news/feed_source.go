package news

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/minute-foot/app/scrape"
)

type FeedSourceOptions struct {
	FeedURL        string
	FetchTimeout   time.Duration
	ArticleTimeout time.Duration
}

// FeedSource reads news from an RSS or Atom feed. Article pages are still fetched
// for their full text; the feed description is the fallback.
type FeedSource struct {
	opts         FeedSourceOptions
	gofeedParser *gofeed.Parser
	extractor    *ContentExtractor

	mu        sync.Mutex
	summaries map[string]string
}

func NewFeedSource(opts FeedSourceOptions, extractor *ContentExtractor) *FeedSource {
	return &FeedSource{
		opts:         opts,
		gofeedParser: gofeed.NewParser(),
		extractor:    extractor,
		summaries:    make(map[string]string),
	}
}

func (s *FeedSource) FetchNewsList(ctx context.Context, session scrape.Session) ([]Item, error) {
	page, err := session.Get(ctx, s.opts.FeedURL, s.opts.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}

	feed, err := s.gofeedParser.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	source := cmp.Or(strings.TrimSpace(feed.Title), "feed")
	items := make([]Item, 0, len(feed.Items))
	summaries := make(map[string]string, len(feed.Items))

	for _, entry := range feed.Items {
		link := strings.TrimSpace(cmp.Or(entry.Link, entry.GUID))
		title := normalizeWhitespace(entry.Title)
		if link == "" || title == "" {
			continue
		}

		item := Item{
			Title:   title,
			URL:     link,
			Source:  source,
			Summary: s.extractor.StripHTML(cmp.Or(entry.Content, entry.Description)),
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed
		}

		summaries[link] = item.Summary
		items = append(items, item)
	}

	// Newest first, like the HTML listing; undated entries keep feed order
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a == nil || b == nil {
			return false
		}
		return a.After(*b)
	})

	s.mu.Lock()
	s.summaries = summaries
	s.mu.Unlock()

	return items, nil
}

func (s *FeedSource) FetchArticle(ctx context.Context, session scrape.Session, articleURL string) (string, bool, error) {
	page, err := session.Get(ctx, articleURL, s.opts.ArticleTimeout)
	if err == nil {
		content, extractErr := s.extractor.Run(page)
		if extractErr == nil && content != "" {
			return content, true, nil
		}
		err = extractErr
	}

	s.mu.Lock()
	summary := s.summaries[articleURL]
	s.mu.Unlock()

	if summary != "" {
		if err != nil {
			slog.Debug("Using feed summary for article", "url", articleURL, "error", err)
		}
		return s.extractor.Truncate(summary), true, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to fetch article: %w", err)
	}
	return "", false, nil
}
