package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPosts(t *testing.T, db *DB, rows ...[]any) {
	t.Helper()
	for _, row := range rows {
		_, err := db.sqlDB.ExecContext(context.Background(),
			`INSERT INTO posts (id, title, author_id, views, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`, row...)
		require.NoError(t, err)
	}
}

func postRow(id, title, author string, views int64) []any {
	return []any{id, title, author, views, "draft", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"}
}

func TestScannerScanRows(t *testing.T) {
	db := openTestDB(t)
	seedPosts(t, db,
		postRow("p1", "first", "a1", 10),
		postRow("p2", "second", "a2", 20),
	)

	rows, err := db.sqlDB.QueryContext(context.Background(), "SELECT * FROM posts ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var got []post
	n, err := globalScanner.scanRows(rows, &got)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, int64(20), got[1].Views)
	assert.Equal(t, "2024-01-01T00:00:00Z", got[0].CreatedAt)
}

func TestScannerScanRowsPointerSlice(t *testing.T) {
	db := openTestDB(t)
	seedPosts(t, db, postRow("p1", "first", "a1", 1))

	rows, err := db.sqlDB.QueryContext(context.Background(), "SELECT * FROM posts")
	require.NoError(t, err)
	defer rows.Close()

	var got []*post
	_, err = globalScanner.scanRows(rows, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}

func TestScannerUnmatchedColumnsDiscarded(t *testing.T) {
	db := openTestDB(t)
	seedPosts(t, db, postRow("p1", "first", "a1", 1))

	rows, err := db.sqlDB.QueryContext(context.Background(),
		"SELECT id, title, 99 AS mystery FROM posts")
	require.NoError(t, err)
	defer rows.Close()

	var got []post
	_, err = globalScanner.scanRows(rows, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Title)
	assert.Zero(t, got[0].Views)
}

func TestScannerEmbeddedStruct(t *testing.T) {
	type timestamps struct {
		CreatedAt string `db:"created_at"`
		UpdatedAt string `db:"updated_at"`
	}
	type slimPost struct {
		ID    string `db:"id"`
		Title string `db:"title"`
		timestamps
	}

	db := openTestDB(t)
	seedPosts(t, db, postRow("p1", "first", "a1", 1))

	rows, err := db.sqlDB.QueryContext(context.Background(),
		"SELECT id, title, created_at, updated_at FROM posts")
	require.NoError(t, err)
	defer rows.Close()

	var got []slimPost
	_, err = globalScanner.scanRows(rows, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "2024-01-01T00:00:00Z", got[0].CreatedAt)
	assert.Equal(t, "2024-01-01T00:00:00Z", got[0].UpdatedAt)
}

func TestScannerUnexportedFieldsSkipped(t *testing.T) {
	type shadowed struct {
		ID     string `db:"id"`
		Title  string `db:"title"`
		views  int64
		status string
	}

	db := openTestDB(t)
	seedPosts(t, db, postRow("p1", "first", "a1", 7))

	rows, err := db.sqlDB.QueryContext(context.Background(),
		"SELECT id, title, views, status FROM posts")
	require.NoError(t, err)
	defer rows.Close()

	var got []shadowed
	_, err = globalScanner.scanRows(rows, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Title)
}

func TestScannerSkipTaggedFields(t *testing.T) {
	type partial struct {
		ID     string `db:"id"`
		Title  string `db:"title"`
		Cached string `db:"-"`
	}

	db := openTestDB(t)
	seedPosts(t, db, postRow("p1", "first", "a1", 1))

	rows, err := db.sqlDB.QueryContext(context.Background(), "SELECT id, title FROM posts")
	require.NoError(t, err)
	defer rows.Close()

	var got []partial
	_, err = globalScanner.scanRows(rows, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Cached)
}

func TestScannerRejectsNonStructTargets(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.sqlDB.QueryContext(context.Background(), "SELECT 1")
	require.NoError(t, err)
	defer rows.Close()

	var n int
	_, err = globalScanner.scanRows(rows, &n)
	require.Error(t, err)
	assert.Equal(t, KindSerialization, KindOf(err))

	_, err = globalScanner.scanRows(rows, []post{})
	require.Error(t, err)
	assert.Equal(t, KindSerialization, KindOf(err))
}
