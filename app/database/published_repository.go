package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var (
	_ PublishedMatchRepository = (*PublishedRepository)(nil)
	_ NewsRepository           = (*PublishedRepository)(nil)
)

// PublishedRepository keeps the append-only dedup sets for finished matches and news articles
type PublishedRepository struct {
	db *DB
}

func NewPublishedRepository(db *DB) *PublishedRepository {
	return &PublishedRepository{db: db}
}

func (r *PublishedRepository) IsMatchPublished(ctx context.Context, identifier string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM published_matches WHERE match_identifier = ?`, identifier)
}

func (r *PublishedRepository) ClaimMatch(ctx context.Context, identifier string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO published_matches (match_identifier, published_at)
		VALUES (?, ?)
		ON CONFLICT (match_identifier) DO NOTHING
	`, identifier, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to claim published match: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return affected == 1, nil
}

func (r *PublishedRepository) ListPublishedMatches(ctx context.Context, limit int) ([]PublishedMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT match_identifier, published_at
		FROM published_matches
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list published matches: %w", err)
	}
	defer rows.Close()

	var matches []PublishedMatch
	for rows.Next() {
		var m PublishedMatch
		if err := rows.Scan(&m.MatchIdentifier, &m.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan published match row: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating published match rows: %w", err)
	}

	return matches, nil
}

func (r *PublishedRepository) GetPublishedMatchCount(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM published_matches")
}

func (r *PublishedRepository) IsNewsPublished(ctx context.Context, articleURL string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM published_news WHERE article_url = ?`, articleURL)
}

// MarkNewsPublished is idempotent: a URL recorded twice keeps its first row.
func (r *PublishedRepository) MarkNewsPublished(ctx context.Context, item PublishedNews) error {
	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO published_news (article_url, title, content, source, published_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (article_url) DO NOTHING
	`, item.ArticleURL, item.Title, item.Content, item.Source, publishedAt)
	if err != nil {
		return fmt.Errorf("failed to mark news published: %w", err)
	}

	return nil
}

func (r *PublishedRepository) ListPublishedNews(ctx context.Context, limit int) ([]PublishedNews, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT article_url, title, content, source, published_at
		FROM published_news
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list published news: %w", err)
	}
	defer rows.Close()

	var items []PublishedNews
	for rows.Next() {
		var n PublishedNews
		if err := rows.Scan(&n.ArticleURL, &n.Title, &n.Content, &n.Source, &n.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan published news row: %w", err)
		}
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating published news rows: %w", err)
	}

	return items, nil
}

func (r *PublishedRepository) GetPublishedNewsCount(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM published_news")
}

func (r *PublishedRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

func (r *PublishedRepository) count(ctx context.Context, query string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}
