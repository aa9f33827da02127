// Package tabula is a dialect-agnostic query builder and generic repository
// layer for Go with support for PostgreSQL, MySQL, and SQLite. Entity types
// declare their schema through a small contract; repositories compose
// validated, fully parameterized SQL on top of it, with prepared statement
// caching, sanitized logging, and OpenTelemetry tracing out of the box.
package tabula

import (
	"github.com/coregx/tabula/internal/core"
	"github.com/coregx/tabula/internal/logger"
	"github.com/coregx/tabula/internal/tracer"
)

type (
	// DB is a database handle shared by any number of repositories.
	DB = core.DB
	// Option is a functional option for configuring DB.
	Option = core.Option
	// Tx is an open database transaction.
	Tx = core.Tx
	// TxOptions carries transaction isolation settings.
	TxOptions = core.TxOptions
	// Query is a fully rendered statement bound to its parameters.
	Query = core.Query

	// Entry is the capability every queryable type must implement.
	Entry = core.Entry
	// BindValue is the closed set of typed parameter values.
	BindValue = core.BindValue
	// Filter is one ordered condition for Repository.FindAdvanced.
	Filter = core.Filter
	// Condition is a single column comparison in the query tree.
	Condition = core.Condition
	// OrderBy orders results by a single column.
	OrderBy = core.OrderBy
	// Join describes a join to another table.
	Join = core.Join

	// ComparisonOp identifies a WHERE-clause comparison operator.
	ComparisonOp = core.ComparisonOp
	// LogicalOp joins two adjacent WHERE clauses.
	LogicalOp = core.LogicalOp
	// SortDirection orders result rows.
	SortDirection = core.SortDirection
	// JoinType identifies the SQL join flavor.
	JoinType = core.JoinType

	// Error is the single error type surfaced by this package.
	Error = core.Error
	// Kind classifies an Error into a stable category.
	Kind = core.Kind

	// Logger is the structured logging interface accepted by WithLogger.
	Logger = logger.Logger
	// Tracer is the tracing interface accepted by WithTracer.
	Tracer = tracer.Tracer
)

// EntryPtr constrains a pointer type *T to implement Entry.
type EntryPtr[T any] = core.EntryPtr[T]

// Builder constructs a single query against one entry type.
type Builder[T any, PT EntryPtr[T]] = core.Builder[T, PT]

// GroupBuilder accumulates conditions for a parenthesized WHERE sub-tree.
type GroupBuilder[T any, PT EntryPtr[T]] = core.GroupBuilder[T, PT]

// Repository provides typed CRUD and query operations for one entry type.
type Repository[T any, PT EntryPtr[T]] = core.Repository[T, PT]

// Comparison operators.
const (
	OpEqual          = core.OpEqual
	OpNotEqual       = core.OpNotEqual
	OpGreaterThan    = core.OpGreaterThan
	OpGreaterOrEqual = core.OpGreaterOrEqual
	OpLessThan       = core.OpLessThan
	OpLessOrEqual    = core.OpLessOrEqual
	OpLike           = core.OpLike
	OpILike          = core.OpILike
	OpIn             = core.OpIn
	OpNotIn          = core.OpNotIn
	OpIsNull         = core.OpIsNull
	OpIsNotNull      = core.OpIsNotNull
	OpBetween        = core.OpBetween
)

// Logical operators and sort directions.
const (
	OpAnd = core.OpAnd
	OpOr  = core.OpOr
	Asc   = core.Asc
	Desc  = core.Desc
)

// Join types.
const (
	InnerJoin = core.InnerJoin
	LeftJoin  = core.LeftJoin
	RightJoin = core.RightJoin
	FullJoin  = core.FullJoin
)

// Error kinds.
const (
	KindInternal       = core.KindInternal
	KindBadRequest     = core.KindBadRequest
	KindInvalidColumn  = core.KindInvalidColumn
	KindInvalidQuery   = core.KindInvalidQuery
	KindNotFound       = core.KindNotFound
	KindConflict       = core.KindConflict
	KindAuthentication = core.KindAuthentication
	KindAuthorization  = core.KindAuthorization
	KindSerialization  = core.KindSerialization
)

// Re-export core functions.
var (
	Open                  = core.Open
	NewDB                 = core.NewDB
	WrapDB                = core.WrapDB
	WithMaxOpenConns      = core.WithMaxOpenConns
	WithMaxIdleConns      = core.WithMaxIdleConns
	WithConnMaxLifetime   = core.WithConnMaxLifetime
	WithStmtCacheCapacity = core.WithStmtCacheCapacity
	WithLogger            = core.WithLogger
	WithTracer            = core.WithTracer

	// Bind value constructors.
	BindNull   = core.BindNull
	BindBool   = core.BindBool
	BindInt    = core.BindInt
	BindFloat  = core.BindFloat
	BindString = core.BindString
	BindJSON   = core.BindJSON
	BindTime   = core.BindTime
	BindAny    = core.BindAny

	// Error helpers.
	NewError        = core.NewError
	KindOf          = core.KindOf
	IsNotFound      = core.IsNotFound
	IsConflict      = core.IsConflict
	IsInvalidColumn = core.IsInvalidColumn

	// Observability adapters.
	NewSlogAdapter = logger.NewSlogAdapter
	NewOtelTracer  = tracer.NewOtelTracer
)

// NewRepository creates a repository for the entry type T on db.
func NewRepository[T any, PT EntryPtr[T]](db *DB) *Repository[T, PT] {
	return core.NewRepository[T, PT](db)
}

// NewBuilder creates a query builder for the entry type T against db.
func NewBuilder[T any, PT EntryPtr[T]](db *DB) *Builder[T, PT] {
	return core.NewBuilder[T, PT](db)
}
