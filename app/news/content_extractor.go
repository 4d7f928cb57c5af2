package news

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lysyi3m/minute-foot/app/scrape"
)

// articleBodySelector matches the paragraph blocks of a maxifoot article
const articleBodySelector = "#cont12 p.par1"

type ContentExtractor struct {
	limit  int
	policy *bluemonday.Policy
}

func NewContentExtractor(limit int) *ContentExtractor {
	return &ContentExtractor{
		limit:  limit,
		policy: bluemonday.StrictPolicy(),
	}
}

// Run returns the plain text body of an article page, truncated to the configured limit.
// An empty string means nothing readable was found.
func (e *ContentExtractor) Run(page *scrape.Page) (string, error) {
	if len(page.Body) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	doc, err := scrape.Document(page)
	if err != nil {
		return "", err
	}

	var paragraphs []string
	doc.Find(articleBodySelector).Each(func(i int, p *goquery.Selection) {
		if t := normalizeWhitespace(p.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	if len(paragraphs) > 0 {
		return e.Truncate(strings.Join(paragraphs, "\n\n")), nil
	}

	text, err := e.readable(doc, page.URL)
	if err != nil {
		return "", err
	}

	slog.Debug("Content extracted with readability", "url", page.URL, "content_length", len(text))

	return e.Truncate(text), nil
}

func (e *ContentExtractor) readable(doc *goquery.Document, pageURL string) (string, error) {
	markup, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}

	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil {
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(markup), base)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return "", fmt.Errorf("failed to render article text: %w", err)
	}

	return normalizeParagraphs(buf.String()), nil
}

// StripHTML turns an HTML fragment such as a feed description into plain text.
func (e *ContentExtractor) StripHTML(fragment string) string {
	return normalizeWhitespace(html.UnescapeString(e.policy.Sanitize(fragment)))
}

// Truncate cuts s to the configured number of characters and appends "...".
func (e *ContentExtractor) Truncate(s string) string {
	s = strings.TrimSpace(s)
	if e.limit <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= e.limit {
		return s
	}
	return string(runes[:e.limit]) + "..."
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeParagraphs(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if t := normalizeWhitespace(line); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n\n")
}
