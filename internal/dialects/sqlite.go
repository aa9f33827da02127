package dialects

import "strings"

// SQLiteDialect implements SQLite-specific SQL dialect.
type SQLiteDialect struct{}

func init() {
	RegisterDialect("sqlite", &SQLiteDialect{})
	RegisterDialect("sqlite3", &SQLiteDialect{})
}

// QuoteIdentifier quotes a SQLite identifier using double quotes.
func (d *SQLiteDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Placeholder returns SQLite placeholder format (always "?").
func (d *SQLiteDialect) Placeholder(_ int) string {
	return "?"
}

// LikeOperator returns LIKE. SQLite's LIKE is already case-insensitive for
// ASCII, which covers the case-insensitive search path.
func (d *SQLiteDialect) LikeOperator(_ bool) string {
	return "LIKE"
}

// SupportsReturning reports RETURNING support (SQLite 3.35+).
func (d *SQLiteDialect) SupportsReturning() bool {
	return true
}
