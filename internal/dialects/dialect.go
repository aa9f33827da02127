// Package dialects provides database-specific SQL dialect implementations for
// PostgreSQL, MySQL, and SQLite, handling identifier quoting, placeholder
// allocation, and per-engine feature differences.
package dialects

// Dialect defines database-specific behaviors.
type Dialect interface {
	// QuoteIdentifier quotes a table or column name for safe embedding in SQL.
	QuoteIdentifier(string) string
	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(int) string
	// LikeOperator returns the pattern-match operator. Engines without a
	// dedicated case-insensitive operator fall back to plain LIKE.
	LikeOperator(caseInsensitive bool) string
	// SupportsReturning reports whether the engine accepts a RETURNING clause
	// on INSERT/UPDATE/DELETE statements.
	SupportsReturning() bool
}

var dialects = make(map[string]Dialect)

// RegisterDialect registers a database dialect by driver name.
func RegisterDialect(name string, d Dialect) {
	dialects[name] = d
}

// GetDialect retrieves a registered dialect by driver name, panics if not found.
func GetDialect(name string) Dialect {
	if d, ok := dialects[name]; ok {
		return d
	}
	panic("unsupported dialect: " + name)
}
