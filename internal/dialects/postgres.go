package dialects

import (
	"fmt"
	"strings"
)

// PostgresDialect implements PostgreSQL-specific SQL dialect.
type PostgresDialect struct{}

func init() {
	RegisterDialect("postgres", &PostgresDialect{})
	RegisterDialect("postgresql", &PostgresDialect{})
}

// QuoteIdentifier quotes a PostgreSQL identifier using double quotes.
func (d *PostgresDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Placeholder returns PostgreSQL placeholder format ($1, $2, etc.).
func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// LikeOperator returns ILIKE for case-insensitive matching, LIKE otherwise.
func (d *PostgresDialect) LikeOperator(caseInsensitive bool) string {
	if caseInsensitive {
		return "ILIKE"
	}
	return "LIKE"
}

// SupportsReturning reports RETURNING support (always true for PostgreSQL).
func (d *PostgresDialect) SupportsReturning() bool {
	return true
}
