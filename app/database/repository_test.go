package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	return db
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestCommitMatchStates(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchStateRepository(newTestDB(t))

	err := repo.CommitMatchStates(ctx, []MatchState{
		{MatchKey: "PSG vs OM", Score: "0 - 0", Minute: "12'", Eq1: "PSG", Eq2: "OM"},
		{MatchKey: "Lyon vs Nice", Score: "1 - 0", Minute: "Mi-temps", Status: "MT", Eq1: "Lyon", Eq2: "Nice"},
	}, nil)
	require.NoError(t, err)

	// Second commit updates one key and drops the other
	err = repo.CommitMatchStates(ctx, []MatchState{
		{MatchKey: "PSG vs OM", Score: "1 - 0", Minute: "30'", Eq1: "PSG", Eq2: "OM"},
	}, []string{"Lyon vs Nice"})
	require.NoError(t, err)

	states, err := repo.ListMatchStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "PSG vs OM", states[0].MatchKey)
	assert.Equal(t, "1 - 0", states[0].Score)
	assert.Equal(t, "30'", states[0].Minute)
	assert.False(t, states[0].UpdatedAt.IsZero())

	count, err := repo.GetMatchStateCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCommitMatchStatesRollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO match_states").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM match_states").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	repo := NewMatchStateRepository(&DB{DB: sqlDB})
	err = repo.CommitMatchStates(context.Background(),
		[]MatchState{{MatchKey: "PSG vs OM", Score: "1 - 0"}},
		[]string{"Lyon vs Nice"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete match state")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimMatchOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewPublishedRepository(newTestDB(t))

	published, err := repo.IsMatchPublished(ctx, "12345")
	require.NoError(t, err)
	assert.False(t, published)

	claimed, err := repo.ClaimMatch(ctx, "12345")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimMatch(ctx, "12345")
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must not insert")

	published, err = repo.IsMatchPublished(ctx, "12345")
	require.NoError(t, err)
	assert.True(t, published)

	matches, err := repo.ListPublishedMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "12345", matches[0].MatchIdentifier)

	count, err := repo.GetPublishedMatchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkNewsPublished(t *testing.T) {
	ctx := context.Background()
	repo := NewPublishedRepository(newTestDB(t))

	item := PublishedNews{ArticleURL: "https://news.example.com/a", Title: "Mercato", Content: "Texte", Source: "maxifoot"}
	require.NoError(t, repo.MarkNewsPublished(ctx, item))

	item.Title = "Mercato (bis)"
	require.NoError(t, repo.MarkNewsPublished(ctx, item), "duplicate URL is ignored")

	published, err := repo.IsNewsPublished(ctx, item.ArticleURL)
	require.NoError(t, err)
	assert.True(t, published)

	items, err := repo.ListPublishedNews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mercato", items[0].Title)

	count, err := repo.GetPublishedNewsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGlobalState(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(newTestDB(t))

	_, found, err := repo.GetValue(ctx, GlobalKeyLastSummaryHash)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetValue(ctx, GlobalKeyLastSummaryHash, "abc"))
	require.NoError(t, repo.SetValue(ctx, GlobalKeyLastSummaryHash, "def"))

	value, found, err := repo.GetValue(ctx, GlobalKeyLastSummaryHash)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "def", value)
}

func TestBroadcastHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(newTestDB(t))

	first, err := repo.RecordBroadcast(ctx, BroadcastKindGoal, "🚀 Buuuut de PSG !", 2)
	require.NoError(t, err)
	second, err := repo.RecordBroadcast(ctx, BroadcastKindSummary, "📊 Scores en direct :", 0)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	broadcasts, err := repo.ListBroadcasts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, broadcasts, 2)
	assert.Equal(t, BroadcastKindSummary, broadcasts[0].Kind)
	assert.Equal(t, 0, broadcasts[0].Recipients)
	assert.Equal(t, 2, broadcasts[1].Recipients)

	count, err := repo.GetBroadcastCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
