package dialects

import "strings"

// MySQLDialect implements MySQL-specific SQL dialect.
type MySQLDialect struct{}

func init() {
	RegisterDialect("mysql", &MySQLDialect{})
}

// QuoteIdentifier quotes a MySQL identifier using backticks.
func (d *MySQLDialect) QuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Placeholder returns MySQL placeholder format (always "?").
func (d *MySQLDialect) Placeholder(_ int) string {
	return "?"
}

// LikeOperator returns LIKE. MySQL's default collations already compare
// case-insensitively, so there is no separate ILIKE operator.
func (d *MySQLDialect) LikeOperator(_ bool) string {
	return "LIKE"
}

// SupportsReturning reports RETURNING support (MySQL has none).
func (d *MySQLDialect) SupportsReturning() bool {
	return false
}
