package core

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countPosts(t *testing.T, db *DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.sqlDB.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM posts").Scan(&n))
	return n
}

func TestOpenResolvesDialect(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, "sqlite", db.DriverName())
	assert.True(t, db.dialect.SupportsReturning())
}

func TestWrapDBAdoptsExistingPool(t *testing.T) {
	raw, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	db := WrapDB("sqlite", raw, WithMaxOpenConns(1), WithConnMaxLifetime(time.Minute))
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Ping(context.Background()))
	assert.Equal(t, "sqlite", db.DriverName())
}

func TestWithContextCopiesHandle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scoped := db.WithContext(ctx)
	assert.NotSame(t, db, scoped)
	assert.Same(t, db.sqlDB, scoped.sqlDB)
}

func TestGetDialectPanicsOnUnknownDriver(t *testing.T) {
	assert.Panics(t, func() {
		WrapDB("oracle", nil)
	})
}

func TestTransactionalCommits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.Transactional(ctx, func(tx *Tx) error {
		_, err := tx.tx.ExecContext(ctx,
			"INSERT INTO posts (id, title, author_id, created_at, updated_at) VALUES ('p1', 't', 'a', '', '')")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countPosts(t, db))
}

func TestTransactionalRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := db.Transactional(ctx, func(tx *Tx) error {
		_, err := tx.tx.ExecContext(ctx,
			"INSERT INTO posts (id, title, author_id, created_at, updated_at) VALUES ('p1', 't', 'a', '', '')")
		require.NoError(t, err)
		return sentinel
	})

	// The original error comes back unchanged, and nothing persisted.
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, int64(0), countPosts(t, db))
}

func TestTransactionalRollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.PanicsWithValue(t, "mid-flight failure", func() {
		_ = db.Transactional(ctx, func(tx *Tx) error {
			_, err := tx.tx.ExecContext(ctx,
				"INSERT INTO posts (id, title, author_id, created_at, updated_at) VALUES ('p1', 't', 'a', '', '')")
			require.NoError(t, err)
			panic("mid-flight failure")
		})
	})
	assert.Equal(t, int64(0), countPosts(t, db))
}

func TestBeginTxReadOnlyOptions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, &TxOptions{Isolation: sql.LevelSerializable})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

func TestCacheStatsReflectQueryTraffic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	b := NewBuilder[post, *post](db).WhereEq("id", "p1")
	_, err := b.All(ctx)
	require.NoError(t, err)

	// Same SQL again: the second run must hit the statement cache.
	_, err = NewBuilder[post, *post](db).WhereEq("id", "p2").All(ctx)
	require.NoError(t, err)

	stats := db.CacheStats()
	assert.Equal(t, 1, stats.Size)
	assert.GreaterOrEqual(t, stats.Hits, uint64(1))
}
