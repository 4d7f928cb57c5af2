package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/minute-foot/app/match"
)

type SourceOptions struct {
	LiveURL       string
	FinishedURL   string
	BaseURL       string
	FetchTimeout  time.Duration
	EnrichTimeout time.Duration
}

// Source reads the live-score site listings and match pages.
type Source struct {
	opts SourceOptions
}

func NewSource(opts SourceOptions) *Source {
	return &Source{opts: opts}
}

func (s *Source) FetchLiveListing(ctx context.Context, session Session) ([]match.Record, error) {
	doc, err := FetchDocument(ctx, session, s.opts.LiveURL, s.opts.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live listing: %w", err)
	}

	var records []match.Record
	skipped := 0

	doc.Find("td.lm3").Each(func(i int, cell *goquery.Selection) {
		eq1 := text(cell.Find("span.lm3_eq1"))
		eq2 := text(cell.Find("span.lm3_eq2"))
		if eq1 == "" || eq2 == "" {
			skipped++
			return
		}

		row := cell.Closest("tr")
		minute := text(row.Find("td.lm2"))
		href, _ := row.Find("a").First().Attr("href")
		sourceID, _ := row.Attr("data-matchid")

		raw := text(cell.Find("span.scored_1")) + " - " + text(cell.Find("span.scored_2"))
		records = append(records, match.NewRecord(eq1, eq2, raw, minute, s.resolve(href), sourceID))
	})

	if skipped > 0 {
		slog.Debug("Skipped incomplete live rows", "count", skipped)
	}

	return records, nil
}

func (s *Source) FetchFinishedListing(ctx context.Context, session Session) ([]match.FinishedRecord, error) {
	doc, err := FetchDocument(ctx, session, s.opts.FinishedURL, s.opts.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch finished listing: %w", err)
	}

	var records []match.FinishedRecord

	doc.Find("tr[data-matchid]").Each(func(i int, row *goquery.Selection) {
		status := text(row.Find("td.lm2"))
		if !match.IsFinished(status) {
			return
		}

		id, _ := row.Attr("data-matchid")
		eq1 := match.CleanTeamName(text(row.Find("span.lm3_eq1")))
		eq2 := match.CleanTeamName(text(row.Find("span.lm3_eq2")))
		if id == "" || eq1 == "" || eq2 == "" {
			slog.Debug("Skipped incomplete finished row", "id", id)
			return
		}

		href, _ := row.Find("a.ga4-matchdetail").Attr("href")

		records = append(records, match.FinishedRecord{
			SourceID: strings.TrimSpace(id),
			Eq1:      eq1,
			Eq2:      eq2,
			Score:    match.NormalizeScore(text(row.Find("span.lm3_score"))),
			Status:   match.StatusFinished,
			URL:      s.resolve(href),
		})
	})

	return records, nil
}

// FetchMatchDetail returns the latest goal row of a match page.
func (s *Source) FetchMatchDetail(ctx context.Context, session Session, matchURL string) (match.Detail, bool, error) {
	if matchURL == "" {
		return match.Detail{}, false, nil
	}

	doc, err := FetchDocument(ctx, session, matchURL, s.opts.EnrichTimeout)
	if err != nil {
		return match.Detail{}, false, fmt.Errorf("failed to fetch match detail: %w", err)
	}

	rows := doc.Find("tr")
	for i := rows.Length() - 1; i >= 0; i-- {
		row := rows.Eq(i)
		scorer := row.Find("span.st1.eventTypeG")
		if scorer.Length() == 0 {
			continue
		}

		detail := match.Detail{
			Scorer: text(scorer.First()),
			Minute: text(row.Find("td.c2").First()),
		}
		return detail, detail.Scorer != "" || detail.Minute != "", nil
	}

	return match.Detail{}, false, nil
}

// FetchMatchStats returns the formatted statistics block of a match.
func (s *Source) FetchMatchStats(ctx context.Context, session Session, matchURL string) (string, bool, error) {
	statsURL := StatsURL(matchURL)
	if statsURL == "" {
		return "", false, nil
	}

	doc, err := FetchDocument(ctx, session, statsURL, s.opts.EnrichTimeout)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch match stats: %w", err)
	}

	var lines []match.StatLine
	doc.Find("div.progressBar").Each(func(i int, block *goquery.Selection) {
		title := block.Find("h5.progressHeaderTitle")
		v1 := block.Find("span.progressBarValue1")
		v2 := block.Find("span.progressBarValue2")
		if title.Length() == 0 || v1.Length() == 0 || v2.Length() == 0 {
			return
		}
		lines = append(lines, match.StatLine{Title: text(title.First()), Home: text(v1.First()), Away: text(v2.First())})
	})

	block := match.FormatStats(lines)
	return block, block != "", nil
}

// FetchPenaltyResult returns the shootout score when the match went to penalties.
func (s *Source) FetchPenaltyResult(ctx context.Context, session Session, matchURL string) (string, bool, error) {
	if matchURL == "" {
		return "", false, nil
	}

	doc, err := FetchDocument(ctx, session, matchURL, s.opts.EnrichTimeout)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch penalty result: %w", err)
	}

	var result string
	doc.Find("td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		// innermost cells only, layout tables nest the whole page in a td
		if cell.Find("td").Length() > 0 || !strings.Contains(cell.Text(), "Penalties") {
			return true
		}
		if b := cell.Find("b"); b.Length() > 0 {
			result = text(b.First())
			return result == ""
		}
		return true
	})

	return result, result != "", nil
}

// StatsURL drops the query string of a match page and selects its statistics tab.
func StatsURL(matchURL string) string {
	if matchURL == "" {
		return ""
	}
	base, _, _ := strings.Cut(matchURL, "?")
	return base + "?p=stats"
}

func (s *Source) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	base, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
