package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func prepareStmt(t *testing.T, db *sql.DB, query string) *sql.Stmt {
	t.Helper()
	stmt, err := db.Prepare(query)
	require.NoError(t, err)
	return stmt
}

func TestNewStmtCacheWithCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{"positive capacity", 100, 100},
		{"zero falls back to default", 0, DefaultStmtCacheCapacity},
		{"negative falls back to default", -10, DefaultStmtCacheCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStmtCacheWithCapacity(tt.capacity)
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.capacity)
		})
	}
}

func TestStmtCacheGetSet(t *testing.T) {
	db := setupTestDB(t)
	c := NewStmtCache()

	stmt, found := c.Get("SELECT 1")
	assert.Nil(t, stmt)
	assert.False(t, found)

	prepared := prepareStmt(t, db, "SELECT 1")
	c.Set("SELECT 1", prepared)

	stmt, found = c.Get("SELECT 1")
	require.True(t, found)
	assert.Equal(t, prepared, stmt)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestStmtCacheLRUEviction(t *testing.T) {
	db := setupTestDB(t)
	c := NewStmtCacheWithCapacity(3)

	for i := 1; i <= 3; i++ {
		c.Set(fmt.Sprintf("query%d", i), prepareStmt(t, db, fmt.Sprintf("SELECT %d", i)))
	}

	// Touch query1 so query2 becomes the eviction candidate.
	_, found := c.Get("query1")
	require.True(t, found)

	c.Set("query4", prepareStmt(t, db, "SELECT 4"))

	_, found = c.Get("query2")
	assert.False(t, found, "least recently used entry should be evicted")
	_, found = c.Get("query1")
	assert.True(t, found)
	_, found = c.Get("query4")
	assert.True(t, found)

	stats := c.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, uint64(1), stats.Evictions)
}

func TestStmtCacheUpdateExisting(t *testing.T) {
	db := setupTestDB(t)
	c := NewStmtCache()

	c.Set("query", prepareStmt(t, db, "SELECT 1"))
	replacement := prepareStmt(t, db, "SELECT 2")
	c.Set("query", replacement)

	assert.Equal(t, 1, c.Stats().Size)

	got, found := c.Get("query")
	require.True(t, found)
	assert.Equal(t, replacement, got)
}

func TestStmtCacheClear(t *testing.T) {
	db := setupTestDB(t)
	c := NewStmtCache()

	for i := 1; i <= 5; i++ {
		c.Set(fmt.Sprintf("query%d", i), prepareStmt(t, db, fmt.Sprintf("SELECT %d", i)))
	}
	require.Equal(t, 5, c.Stats().Size)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)

	for i := 1; i <= 5; i++ {
		_, found := c.Get(fmt.Sprintf("query%d", i))
		assert.False(t, found)
	}
}

func TestStmtCacheConcurrent(t *testing.T) {
	db := setupTestDB(t)
	c := NewStmtCacheWithCapacity(10)

	const goroutines = 8
	const operations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < operations; i++ {
				key := fmt.Sprintf("query_%d_%d", id, i%5)
				if _, found := c.Get(key); !found {
					c.Set(key, prepareStmt(t, db, fmt.Sprintf("SELECT %d", i)))
				}
			}
		}(g)
	}
	wg.Wait()

	stats := c.Stats()
	assert.LessOrEqual(t, stats.Size, 10)
	assert.Greater(t, stats.Hits+stats.Misses, uint64(0))
}

func TestStmtCacheEmpty(t *testing.T) {
	c := NewStmtCache()

	_, found := c.Get("anything")
	assert.False(t, found)

	c.Clear()

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, 0.0, stats.HitRate)
}
