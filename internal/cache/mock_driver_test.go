package cache

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync/atomic"
)

// Minimal driver whose prepared statements do nothing, so cache tests never
// touch a real database.
type mockDriver struct{}

type mockConn struct{}

type mockStmt struct{ query string }

func (mockDriver) Open(string) (driver.Conn, error) { return mockConn{}, nil }

func (mockConn) Prepare(query string) (driver.Stmt, error) { return mockStmt{query: query}, nil }
func (mockConn) Close() error                              { return nil }
func (mockConn) Begin() (driver.Tx, error)                 { return nil, driver.ErrSkip }

func (mockStmt) Close() error                                    { return nil }
func (mockStmt) NumInput() int                                   { return 0 }
func (mockStmt) Exec([]driver.Value) (driver.Result, error)      { return nil, driver.ErrSkip }
func (mockStmt) Query([]driver.Value) (driver.Rows, error)       { return nil, driver.ErrSkip }

var mockDriverSeq atomic.Uint64

// openMockDB registers a fresh mock driver instance and opens a handle on it.
func openMockDB() (*sql.DB, error) {
	name := fmt.Sprintf("stmtcache-mock-%d", mockDriverSeq.Add(1))
	sql.Register(name, mockDriver{})
	return sql.Open(name, "")
}
