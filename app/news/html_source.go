package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/minute-foot/app/scrape"
)

const (
	listingSelector  = "div.listegen5.listeInfo3"
	previousPageText = "Voir les brèves précédentes"
)

type HTMLSourceOptions struct {
	ListURL        string
	BaseURL        string
	FetchTimeout   time.Duration
	ArticleTimeout time.Duration
}

// HTMLSource reads the news listing of the maxifoot home page.
type HTMLSource struct {
	opts      HTMLSourceOptions
	extractor *ContentExtractor
}

func NewHTMLSource(opts HTMLSourceOptions, extractor *ContentExtractor) *HTMLSource {
	return &HTMLSource{opts: opts, extractor: extractor}
}

func (s *HTMLSource) FetchNewsList(ctx context.Context, session scrape.Session) ([]Item, error) {
	doc, err := scrape.FetchDocument(ctx, session, s.opts.ListURL, s.opts.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news listing: %w", err)
	}

	container := doc.Find(listingSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("news listing container %q not found", listingSelector)
	}

	var items []Item
	container.Find("a[href]").Each(func(i int, link *goquery.Selection) {
		if strings.Contains(link.Text(), previousPageText) {
			return
		}

		// the <b> child holds the publication time, not part of the title
		link.Find("b").Remove()

		title := normalizeWhitespace(link.Text())
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return
		}

		items = append(items, Item{
			Title:  title,
			URL:    s.resolve(href),
			Source: "maxifoot",
		})
	})

	return items, nil
}

func (s *HTMLSource) FetchArticle(ctx context.Context, session scrape.Session, articleURL string) (string, bool, error) {
	page, err := session.Get(ctx, articleURL, s.opts.ArticleTimeout)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch article: %w", err)
	}

	content, err := s.extractor.Run(page)
	if err != nil {
		return "", false, err
	}
	return content, content != "", nil
}

func (s *HTMLSource) resolve(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(s.opts.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
