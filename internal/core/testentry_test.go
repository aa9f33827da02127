package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/coregx/tabula/internal/cache"
	"github.com/coregx/tabula/internal/dialects"
	"github.com/coregx/tabula/internal/logger"
	"github.com/coregx/tabula/internal/tracer"
)

// post is the entry type used across the core tests. Timestamps are stored
// as RFC 3339 text so every backend binds them identically.
type post struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	AuthorID  string `db:"author_id"`
	Views     int64  `db:"views"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (p *post) TableName() string { return "posts" }

func (p *post) Columns() []string {
	return []string{"id", "title", "author_id", "views", "status", "created_at", "updated_at"}
}

func (p *post) InsertableColumns() []string {
	return p.Columns()
}

func (p *post) ToBindValues() []BindValue {
	return []BindValue{
		BindString(p.ID),
		BindString(p.Title),
		BindString(p.AuthorID),
		BindInt(p.Views),
		BindString(p.Status),
		BindString(p.CreatedAt),
		BindString(p.UpdatedAt),
	}
}

func (p *post) PrimaryKey() any { return p.ID }

func (p *post) SetCreatedAt(t time.Time) { p.CreatedAt = t.UTC().Format(time.RFC3339Nano) }
func (p *post) SetUpdatedAt(t time.Time) { p.UpdatedAt = t.UTC().Format(time.RFC3339Nano) }

// dialectDB builds a DB around a dialect only, for render tests that never
// touch a connection.
func dialectDB(driver string) *DB {
	return &DB{
		driverName: driver,
		stmtCache:  cache.NewStmtCache(),
		dialect:    dialects.GetDialect(driver),
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     tracer.NoopTracer{},
	}
}

const postsSchema = `
CREATE TABLE posts (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	author_id  TEXT NOT NULL,
	views      INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'draft',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX posts_title_unique ON posts (title);
`

// openTestDB opens an in-memory SQLite database with the posts schema.
// A single connection keeps every statement on the same in-memory store.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open("sqlite", ":memory:", WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.sqlDB.ExecContext(context.Background(), postsSchema)
	require.NoError(t, err)
	return db
}

// closedTestDB returns a DB whose pool is already closed, so any statement
// that reaches the driver fails loudly. Used to prove short-circuit paths
// issue no SQL.
func closedTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return db
}

func newPost(id, title, author string) *post {
	return &post{ID: id, Title: title, AuthorID: author, Status: "draft"}
}
