package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var (
	_ GlobalStateRepository = (*StateRepository)(nil)
	_ BroadcastRepository   = (*StateRepository)(nil)
)

// StateRepository handles the global key/value state and the broadcast history
type StateRepository struct {
	db *DB
}

func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM global_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get global state %q: %w", key, err)
	}
	return value, true, nil
}

func (r *StateRepository) SetValue(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO global_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set global state %q: %w", key, err)
	}
	return nil
}

func (r *StateRepository) RecordBroadcast(ctx context.Context, kind, content string, recipients int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO broadcasts (kind, content, recipients, created_at)
		VALUES (?, ?, ?, ?)
	`, kind, content, recipients, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to record broadcast: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read broadcast id: %w", err)
	}
	return id, nil
}

func (r *StateRepository) ListBroadcasts(ctx context.Context, limit int) ([]Broadcast, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, content, recipients, created_at
		FROM broadcasts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	defer rows.Close()

	var broadcasts []Broadcast
	for rows.Next() {
		var b Broadcast
		if err := rows.Scan(&b.ID, &b.Kind, &b.Content, &b.Recipients, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan broadcast row: %w", err)
		}
		broadcasts = append(broadcasts, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating broadcast rows: %w", err)
	}

	return broadcasts, nil
}

func (r *StateRepository) GetBroadcastCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM broadcasts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get broadcast count: %w", err)
	}
	return count, nil
}
