// Package core implements connection management, statement building and
// rendering, execution, and the typed repository layer for Tabula.
package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/coregx/tabula/internal/cache"
	"github.com/coregx/tabula/internal/dialects"
	"github.com/coregx/tabula/internal/logger"
	"github.com/coregx/tabula/internal/tracer"
)

// DB is a database handle shared by any number of repositories. It owns the
// connection pool, the prepared statement cache, and the dialect resolved
// from the driver name. Safe for concurrent use; the pool outlives every
// repository built on it.
type DB struct {
	sqlDB      *sql.DB
	driverName string
	stmtCache  *cache.StmtCache
	dialect    dialects.Dialect
	logger     logger.Logger
	sanitizer  *logger.Sanitizer
	tracer     tracer.Tracer
	ctx        context.Context
}

// Option configures a DB during Open or WrapDB.
type Option func(*DB)

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxIdleConns(n)
	}
}

// WithConnMaxLifetime bounds how long a pooled connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(db *DB) {
		db.sqlDB.SetConnMaxLifetime(d)
	}
}

// WithStmtCacheCapacity sets the prepared statement cache capacity.
func WithStmtCacheCapacity(capacity int) Option {
	return func(db *DB) {
		db.stmtCache = cache.NewStmtCacheWithCapacity(capacity)
	}
}

// WithLogger installs a query logger. Parameters are masked through the
// sanitizer before they reach the logger.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// WithTracer installs a tracer for query spans.
func WithTracer(t tracer.Tracer) Option {
	return func(db *DB) {
		db.tracer = t
	}
}

// NewDB opens a connection pool for the given driver and DSN. The dialect is
// resolved from the driver name; unknown drivers panic in GetDialect.
func NewDB(driverName, dsn string) (*DB, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, translateDriverError(err)
	}
	return WrapDB(driverName, sqlDB), nil
}

// WrapDB adopts an externally constructed pool. The caller keeps ownership
// of lifecycle decisions it already made (pool sizing etc.); Close still
// closes the underlying pool.
func WrapDB(driverName string, sqlDB *sql.DB, opts ...Option) *DB {
	db := &DB{
		sqlDB:      sqlDB,
		driverName: driverName,
		stmtCache:  cache.NewStmtCache(),
		dialect:    dialects.GetDialect(driverName),
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     &tracer.NoopTracer{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open opens a connection pool and applies options.
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := NewDB(driverName, dsn)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Close clears the statement cache and closes the pool.
func (db *DB) Close() error {
	db.stmtCache.Clear()
	return db.sqlDB.Close()
}

// Ping verifies the connection to the database is alive.
func (db *DB) Ping(ctx context.Context) error {
	return translateDriverError(db.sqlDB.PingContext(ctx))
}

// WithContext returns a shallow copy of the DB carrying ctx as the default
// context for queries that are not given one explicitly.
func (db *DB) WithContext(ctx context.Context) *DB {
	copied := *db
	copied.ctx = ctx
	return &copied
}

// ExecContext runs a raw statement outside the builder. Intended for DDL
// and migrations; application writes should go through the builder so they
// pass validation, logging, and the statement cache.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := db.sqlDB.ExecContext(ctx, query, args...)
	return res, translateDriverError(err)
}

// DriverName returns the driver this handle was opened with.
func (db *DB) DriverName() string {
	return db.driverName
}

// CacheStats returns prepared statement cache metrics.
func (db *DB) CacheStats() cache.Stats {
	return db.stmtCache.Stats()
}

// Tx is an open database transaction. Statements on a transaction run
// sequentially on its single connection.
type Tx struct {
	tx  *sql.Tx
	db  *DB
	ctx context.Context
}

// TxOptions carries transaction isolation settings.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// Begin starts a transaction with default options.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	return db.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with the given options.
func (db *DB) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	var sqlOpts *sql.TxOptions
	if opts != nil {
		sqlOpts = &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly}
	}

	tx, err := db.sqlDB.BeginTx(ctx, sqlOpts)
	if err != nil {
		return nil, translateDriverError(err)
	}
	return &Tx{tx: tx, db: db, ctx: ctx}, nil
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return translateDriverError(tx.tx.Commit())
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	return translateDriverError(tx.tx.Rollback())
}

// Transactional begins a transaction, runs fn exactly once, and commits when
// fn returns nil. On error or panic the transaction is rolled back; a
// rollback failure never hides the original error, and panics resume after
// the rollback.
func (db *DB) Transactional(ctx context.Context, fn func(*Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
