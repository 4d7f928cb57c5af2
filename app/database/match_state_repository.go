package database

import (
	"context"
	"fmt"
	"time"
)

var _ MatchStateRepository = (*MatchStateRepositoryImpl)(nil)

// MatchStateRepositoryImpl handles database operations for live match states
type MatchStateRepositoryImpl struct {
	db *DB
}

func NewMatchStateRepository(db *DB) *MatchStateRepositoryImpl {
	return &MatchStateRepositoryImpl{db: db}
}

func (r *MatchStateRepositoryImpl) ListMatchStates(ctx context.Context) ([]MatchState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT match_key, score, status, minute, eq1, eq2, url, updated_at
		FROM match_states
		ORDER BY match_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list match states: %w", err)
	}
	defer rows.Close()

	var states []MatchState
	for rows.Next() {
		var s MatchState
		if err := rows.Scan(&s.MatchKey, &s.Score, &s.Status, &s.Minute, &s.Eq1, &s.Eq2, &s.URL, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match state row: %w", err)
		}
		states = append(states, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match state rows: %w", err)
	}

	return states, nil
}

func (r *MatchStateRepositoryImpl) CommitMatchStates(ctx context.Context, upserts []MatchState, deletes []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, s := range upserts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_states (match_key, score, status, minute, eq1, eq2, url, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (match_key) DO UPDATE SET
				score = excluded.score,
				status = excluded.status,
				minute = excluded.minute,
				eq1 = excluded.eq1,
				eq2 = excluded.eq2,
				url = excluded.url,
				updated_at = excluded.updated_at
		`, s.MatchKey, s.Score, s.Status, s.Minute, s.Eq1, s.Eq2, s.URL, now)
		if err != nil {
			return fmt.Errorf("failed to upsert match state %q: %w", s.MatchKey, err)
		}
	}

	for _, key := range deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM match_states WHERE match_key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete match state %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match states: %w", err)
	}

	return nil
}

func (r *MatchStateRepositoryImpl) GetMatchStateCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM match_states").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get match state count: %w", err)
	}
	return count, nil
}
