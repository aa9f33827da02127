// Package cache implements the LRU prepared statement cache used by the
// database handle.
package cache

import (
	"container/list"
	"database/sql"
	"sync"
	"sync/atomic"
)

// DefaultStmtCacheCapacity bounds the cache when no capacity is configured.
const DefaultStmtCacheCapacity = 1000

// StmtCache keeps prepared statements keyed by their SQL text with LRU
// eviction. Evicted and replaced statements are closed; statements handed
// out by Get stay owned by the cache and must not be closed by callers.
type StmtCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*list.Element
	lruList  *list.List

	// Metrics, atomic so Stats never contends with the query path.
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheEntry struct {
	key  string
	stmt *sql.Stmt
}

// NewStmtCache creates a cache with the default capacity.
func NewStmtCache() *StmtCache {
	return NewStmtCacheWithCapacity(DefaultStmtCacheCapacity)
}

// NewStmtCacheWithCapacity creates a cache holding at most capacity
// statements. Non-positive capacities fall back to the default.
func NewStmtCacheWithCapacity(capacity int) *StmtCache {
	if capacity <= 0 {
		capacity = DefaultStmtCacheCapacity
	}
	return &StmtCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Get looks up the prepared statement for the given SQL text. A hit marks
// the statement most recently used.
func (sc *StmtCache) Get(key string) (*sql.Stmt, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	elem, ok := sc.items[key]
	if !ok {
		sc.misses.Add(1)
		return nil, false
	}

	sc.lruList.MoveToFront(elem)
	sc.hits.Add(1)
	return elem.Value.(*cacheEntry).stmt, true
}

// Set stores a prepared statement under its SQL text, evicting the least
// recently used entry when at capacity. Storing under an existing key
// closes the statement it replaces.
func (sc *StmtCache) Set(key string, stmt *sql.Stmt) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if elem, ok := sc.items[key]; ok {
		sc.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		_ = entry.stmt.Close()
		entry.stmt = stmt
		return
	}

	if sc.lruList.Len() >= sc.capacity {
		sc.evictOldest()
	}

	sc.items[key] = sc.lruList.PushFront(&cacheEntry{key: key, stmt: stmt})
}

// evictOldest removes and closes the least recently used statement.
// Caller holds the lock.
func (sc *StmtCache) evictOldest() {
	elem := sc.lruList.Back()
	if elem == nil {
		return
	}

	sc.lruList.Remove(elem)
	entry := elem.Value.(*cacheEntry)
	delete(sc.items, entry.key)
	_ = entry.stmt.Close()
	sc.evictions.Add(1)
}

// Clear closes and drops every cached statement.
func (sc *StmtCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for elem := sc.lruList.Front(); elem != nil; elem = elem.Next() {
		_ = elem.Value.(*cacheEntry).stmt.Close()
	}
	sc.items = make(map[string]*list.Element, sc.capacity)
	sc.lruList.Init()
}

// Stats is a point-in-time snapshot of cache metrics.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns current cache metrics.
func (sc *StmtCache) Stats() Stats {
	sc.mu.RLock()
	size := sc.lruList.Len()
	sc.mu.RUnlock()

	hits := sc.hits.Load()
	misses := sc.misses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:      size,
		Capacity:  sc.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: sc.evictions.Load(),
		HitRate:   hitRate,
	}
}
