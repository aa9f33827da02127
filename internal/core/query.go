package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/coregx/tabula/internal/tracer"
)

// Query is a fully rendered statement bound to its ordered parameters.
// When tx is not nil the statement executes inside that transaction and
// bypasses the prepared statement cache.
type Query struct {
	sql    string
	params []any
	db     *DB
	tx     *sql.Tx
	ctx    context.Context
}

func (q *Query) context() context.Context {
	if q.ctx != nil {
		return q.ctx
	}
	if q.db != nil && q.db.ctx != nil {
		return q.db.ctx
	}
	return context.Background()
}

// prepareStatement prepares the SQL, using the LRU statement cache for
// non-transactional queries. The bool result reports whether the caller owns
// the statement and must close it.
func (q *Query) prepareStatement(ctx context.Context) (*sql.Stmt, bool, error) {
	if q.tx != nil {
		stmt, err := q.tx.PrepareContext(ctx, q.sql)
		if err != nil {
			return nil, false, err
		}
		return stmt, true, nil
	}

	if stmt, ok := q.db.stmtCache.Get(q.sql); ok {
		return stmt, false, nil
	}

	stmt, err := q.db.sqlDB.PrepareContext(ctx, q.sql)
	if err != nil {
		return nil, false, err
	}
	q.db.stmtCache.Set(q.sql, stmt)
	return stmt, false, nil
}

// startSpan opens a tracing span for one executor entry point.
func (q *Query) startSpan(ctx context.Context, name string) (context.Context, tracer.Span) {
	if q.db.tracer == nil {
		return ctx, nil
	}
	return q.db.tracer.StartSpan(ctx, name)
}

// finish records the uniform end-of-query telemetry: a sanitized log line and
// the span attributes. Returns the error translated into the public taxonomy.
func (q *Query) finish(span tracer.Span, start time.Time, rowsAffected int64, err error) error {
	elapsed := time.Since(start)

	if q.db.logger != nil {
		masked := q.db.sanitizer.FormatParams(q.db.sanitizer.MaskParams(q.sql, q.params))
		if err != nil {
			q.db.logger.Error("query failed",
				"sql", q.sql,
				"params", masked,
				"duration_ms", elapsed.Milliseconds(),
				"database", q.db.driverName,
				"error", err,
			)
		} else {
			q.db.logger.Info("query executed",
				"sql", q.sql,
				"params", masked,
				"duration_ms", elapsed.Milliseconds(),
				"rows_affected", rowsAffected,
				"database", q.db.driverName,
			)
		}
	}

	if span != nil {
		tracer.AddQueryAttributes(span, &tracer.QueryMetadata{
			SQL:          q.sql,
			Args:         q.params,
			Duration:     elapsed,
			RowsAffected: rowsAffected,
			Error:        err,
			Database:     q.db.driverName,
			Operation:    tracer.DetectOperation(q.sql),
		})
	}

	return translateDriverError(err)
}

// Execute runs a statement that returns no rows and reports the number of
// rows affected.
func (q *Query) Execute() (int64, error) {
	ctx := q.context()
	ctx, span := q.startSpan(ctx, "tabula.query.execute")
	if span != nil {
		defer span.End()
	}
	start := time.Now()

	stmt, needsClose, err := q.prepareStatement(ctx)
	if err != nil {
		return 0, q.finish(span, start, 0, err)
	}
	if needsClose {
		defer func() { _ = stmt.Close() }()
	}

	result, err := stmt.ExecContext(ctx, q.params...)
	if err != nil {
		return 0, q.finish(span, start, 0, err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, q.finish(span, start, rowsAffected, nil)
}

// query runs the statement and hands the open row set to scan, which owns
// interpreting the rows. Rows are always closed before returning.
func (q *Query) query(name string, scan func(*sql.Rows) (int64, error)) error {
	ctx := q.context()
	ctx, span := q.startSpan(ctx, name)
	if span != nil {
		defer span.End()
	}
	start := time.Now()

	stmt, needsClose, err := q.prepareStatement(ctx)
	if err != nil {
		return q.finish(span, start, 0, err)
	}
	if needsClose {
		defer func() { _ = stmt.Close() }()
	}

	rows, err := stmt.QueryContext(ctx, q.params...)
	if err != nil {
		return q.finish(span, start, 0, err)
	}

	n, err := scan(rows)
	_ = rows.Close()
	return q.finish(span, start, n, err)
}

// All scans every result row into dest, a pointer to a slice of structs or
// struct pointers. An empty result leaves dest empty without error.
func (q *Query) All(dest any) error {
	return q.query("tabula.query.all", func(rows *sql.Rows) (int64, error) {
		return globalScanner.scanRows(rows, dest)
	})
}

// One scans exactly one row into dest. Zero rows is a NotFound error.
func (q *Query) One(dest any) error {
	return q.query("tabula.query.one", func(rows *sql.Rows) (int64, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return 0, err
			}
			return 0, sql.ErrNoRows
		}
		if err := globalScanner.scanRow(rows, dest); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// Optional scans at most one row into dest. The bool result reports whether
// a row was present; absence is not an error.
func (q *Query) Optional(dest any) (bool, error) {
	found := false
	err := q.query("tabula.query.optional", func(rows *sql.Rows) (int64, error) {
		if !rows.Next() {
			return 0, rows.Err()
		}
		if err := globalScanner.scanRow(rows, dest); err != nil {
			return 0, err
		}
		found = true
		return 1, nil
	})
	return found, err
}

// ScalarOptional scans the first column of the first row into dest. The bool
// result reports whether a row was present; absence is not an error.
func (q *Query) ScalarOptional(dest any) (bool, error) {
	found := false
	err := q.query("tabula.query.scalar", func(rows *sql.Rows) (int64, error) {
		if !rows.Next() {
			return 0, rows.Err()
		}
		if err := rows.Scan(dest); err != nil {
			return 0, &Error{Kind: KindSerialization, Message: "scalar scan failed", Err: err}
		}
		found = true
		return 1, nil
	})
	return found, err
}

// Scalar scans the first column of the first row into dest. Zero rows is a
// NotFound error.
func (q *Query) Scalar(dest any) error {
	return q.query("tabula.query.scalar", func(rows *sql.Rows) (int64, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return 0, err
			}
			return 0, sql.ErrNoRows
		}
		if err := rows.Scan(dest); err != nil {
			return 0, &Error{Kind: KindSerialization, Message: "scalar scan failed", Err: err}
		}
		return 1, nil
	})
}
