package core

import (
	"database/sql"
	"sort"
)

// ComparisonOp identifies a WHERE-clause comparison operator.
type ComparisonOp int

// Supported comparison operators.
const (
	OpEqual ComparisonOp = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpLike
	OpILike
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
	OpBetween
)

// LogicalOp joins two adjacent WHERE clauses.
type LogicalOp int

// Supported logical operators.
const (
	OpAnd LogicalOp = iota
	OpOr
)

func (op LogicalOp) sqlKeyword() string {
	if op == OpOr {
		return "OR"
	}
	return "AND"
}

// SortDirection orders result rows.
type SortDirection int

// Sort directions.
const (
	Asc SortDirection = iota
	Desc
)

func (d SortDirection) sqlKeyword() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// JoinType identifies the SQL join flavor.
type JoinType int

// Supported join types.
const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

func (j JoinType) sqlKeyword() string {
	switch j {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}

// Condition is a single column comparison. Values is populated only for
// IN/NOT IN/BETWEEN; Value and Values are both empty for IS [NOT] NULL.
type Condition struct {
	Column string
	Op     ComparisonOp
	Value  *BindValue
	Values []BindValue
}

// Clause is either a single condition or a parenthesized group of clauses.
type Clause struct {
	cond  *Condition
	group *whereGroup
}

// clauseLink attaches the logical operator that connects a clause to the NEXT
// clause in its list. A nil join defaults to AND at render time; the last
// clause's join is ignored.
type clauseLink struct {
	clause Clause
	join   *LogicalOp
}

type whereGroup struct {
	clauses []clauseLink
}

// OrderBy orders results by a single column.
type OrderBy struct {
	Column    string
	Direction SortDirection
}

// Join describes a join to another table. The ON condition is a trusted raw
// SQL fragment supplied by the caller, never user data.
type Join struct {
	Type  JoinType
	Table string
	On    string
}

// whereList accumulates validated WHERE clauses. It is shared between the
// top-level builder and nested group builders.
type whereList struct {
	meta    *entryMeta
	clauses []clauseLink
	err     error
}

func (w *whereList) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *whereList) validateColumn(column string) bool {
	if !w.meta.hasColumn(column) {
		w.fail(invalidColumnError(column))
		return false
	}
	return true
}

func (w *whereList) push(c Clause) {
	w.clauses = append(w.clauses, clauseLink{clause: c})
}

func (w *whereList) compare(column string, op ComparisonOp, value any) {
	if !w.validateColumn(column) {
		return
	}
	bv := BindAny(value)
	w.push(Clause{cond: &Condition{Column: column, Op: op, Value: &bv}})
}

func (w *whereList) valueList(column string, op ComparisonOp, values []any) {
	if !w.validateColumn(column) {
		return
	}
	bvs := make([]BindValue, len(values))
	for i, v := range values {
		bvs[i] = BindAny(v)
	}
	w.push(Clause{cond: &Condition{Column: column, Op: op, Values: bvs}})
}

func (w *whereList) nullCheck(column string, op ComparisonOp) {
	if !w.validateColumn(column) {
		return
	}
	w.push(Clause{cond: &Condition{Column: column, Op: op}})
}

// setJoin sets the connective on the previously pushed clause.
// With no prior clause this is a no-op.
func (w *whereList) setJoin(op LogicalOp) {
	if len(w.clauses) == 0 {
		return
	}
	w.clauses[len(w.clauses)-1].join = &op
}

// Builder constructs a single query against one entry type. A builder is
// consumed by the terminal method that executes it and must not be shared
// across goroutines; build a fresh one per call.
type Builder[T any, PT EntryPtr[T]] struct {
	db   *DB
	tx   *sql.Tx // nil for non-transactional queries
	meta entryMeta

	where      whereList
	joins      []Join
	orderBy    []OrderBy
	groupBy    []string
	having     []Condition
	limit      int
	offset     int
	hasLimit   bool
	hasOffset  bool
	distinct   bool
	selectCols []string

	setCols    []string
	setVals    map[string]BindValue
	insertCols []string
	insertVals map[string]BindValue
}

// NewBuilder creates a query builder for the entry type T against db.
func NewBuilder[T any, PT EntryPtr[T]](db *DB) *Builder[T, PT] {
	b := &Builder[T, PT]{db: db, meta: metaOf[T, PT]()}
	b.where.meta = &b.meta
	return b
}

// newTxBuilder creates a builder whose queries execute inside tx.
func newTxBuilder[T any, PT EntryPtr[T]](db *DB, tx *sql.Tx) *Builder[T, PT] {
	b := NewBuilder[T, PT](db)
	b.tx = tx
	return b
}

// Err returns the first validation error recorded on the builder, if any.
// Terminal methods surface the same error, so checking Err is optional.
func (b *Builder[T, PT]) Err() error {
	return b.where.err
}

func (b *Builder[T, PT]) fail(err error) *Builder[T, PT] {
	b.where.fail(err)
	return b
}

// WhereEq adds `column = value`.
func (b *Builder[T, PT]) WhereEq(column string, value any) *Builder[T, PT] {
	b.where.compare(column, OpEqual, value)
	return b
}

// WhereNe adds `column != value`.
func (b *Builder[T, PT]) WhereNe(column string, value any) *Builder[T, PT] {
	b.where.compare(column, OpNotEqual, value)
	return b
}

// WhereGt adds `column > value`.
func (b *Builder[T, PT]) WhereGt(column string, value any) *Builder[T, PT] {
	b.where.compare(column, OpGreaterThan, value)
	return b
}

// WhereGte adds `column >= value`.
func (b *Builder[T, PT]) WhereGte(column string, value any) *Builder[T, PT] {
	b.where.compare(column, OpGreaterOrEqual, value)
	return b
}

// WhereLt adds `column < value`.
func (b *Builder[T, PT]) WhereLt(column string, value any) *Builder[T, PT] {
	b.where.compare(column, OpLessThan, value)
	return b
}

// WhereLte adds `column <= value`.
func (b *Builder[T, PT]) WhereLte(column string, value any) *Builder[T, PT] {
	b.where.compare(column, OpLessOrEqual, value)
	return b
}

// WhereLike adds a case-sensitive pattern match.
func (b *Builder[T, PT]) WhereLike(column string, pattern string) *Builder[T, PT] {
	b.where.compare(column, OpLike, pattern)
	return b
}

// WhereILike adds a case-insensitive pattern match. On engines without a
// dedicated operator this renders as plain LIKE.
func (b *Builder[T, PT]) WhereILike(column string, pattern string) *Builder[T, PT] {
	b.where.compare(column, OpILike, pattern)
	return b
}

// WhereIn adds `column IN (values...)`. An empty list is rendered as-is and
// rejected by the database; callers needing short-circuit behavior must check
// before calling.
func (b *Builder[T, PT]) WhereIn(column string, values ...any) *Builder[T, PT] {
	b.where.valueList(column, OpIn, values)
	return b
}

// WhereNotIn adds `column NOT IN (values...)`.
func (b *Builder[T, PT]) WhereNotIn(column string, values ...any) *Builder[T, PT] {
	b.where.valueList(column, OpNotIn, values)
	return b
}

// WhereNull adds `column IS NULL`.
func (b *Builder[T, PT]) WhereNull(column string) *Builder[T, PT] {
	b.where.nullCheck(column, OpIsNull)
	return b
}

// WhereNotNull adds `column IS NOT NULL`.
func (b *Builder[T, PT]) WhereNotNull(column string) *Builder[T, PT] {
	b.where.nullCheck(column, OpIsNotNull)
	return b
}

// WhereBetween adds `column BETWEEN lo AND hi` (inclusive).
func (b *Builder[T, PT]) WhereBetween(column string, lo, hi any) *Builder[T, PT] {
	b.where.valueList(column, OpBetween, []any{lo, hi})
	return b
}

// And sets AND as the connective between the previously pushed clause and the
// next one. With no prior clause this is a no-op.
func (b *Builder[T, PT]) And() *Builder[T, PT] {
	b.where.setJoin(OpAnd)
	return b
}

// Or sets OR as the connective between the previously pushed clause and the
// next one. With no prior clause this is a no-op.
func (b *Builder[T, PT]) Or() *Builder[T, PT] {
	b.where.setJoin(OpOr)
	return b
}

// WhereGroupAnd builds a parenthesized sub-tree joined to the preceding
// sibling clause with AND.
func (b *Builder[T, PT]) WhereGroupAnd(fn func(*GroupBuilder[T, PT])) *Builder[T, PT] {
	return b.whereGroup(OpAnd, fn)
}

// WhereGroupOr builds a parenthesized sub-tree joined to the preceding
// sibling clause with OR.
func (b *Builder[T, PT]) WhereGroupOr(fn func(*GroupBuilder[T, PT])) *Builder[T, PT] {
	return b.whereGroup(OpOr, fn)
}

func (b *Builder[T, PT]) whereGroup(op LogicalOp, fn func(*GroupBuilder[T, PT])) *Builder[T, PT] {
	g := &GroupBuilder[T, PT]{}
	g.list.meta = &b.meta
	fn(g)
	if g.list.err != nil {
		return b.fail(g.list.err)
	}
	if len(g.list.clauses) == 0 {
		return b
	}

	// Join the group to its preceding sibling with the named connective,
	// unless the caller already set one explicitly.
	if n := len(b.where.clauses); n > 0 && b.where.clauses[n-1].join == nil {
		b.where.clauses[n-1].join = &op
	}
	b.where.push(Clause{group: &whereGroup{clauses: g.list.clauses}})
	return b
}

// OrderByAsc sorts results by column ascending.
func (b *Builder[T, PT]) OrderByAsc(column string) *Builder[T, PT] {
	return b.orderByDir(column, Asc)
}

// OrderByDesc sorts results by column descending.
func (b *Builder[T, PT]) OrderByDesc(column string) *Builder[T, PT] {
	return b.orderByDir(column, Desc)
}

func (b *Builder[T, PT]) orderByDir(column string, dir SortDirection) *Builder[T, PT] {
	if !b.where.validateColumn(column) {
		return b
	}
	b.orderBy = append(b.orderBy, OrderBy{Column: column, Direction: dir})
	return b
}

// GroupBy groups results by the given columns.
func (b *Builder[T, PT]) GroupBy(columns ...string) *Builder[T, PT] {
	for _, c := range columns {
		if !b.where.validateColumn(c) {
			return b
		}
		b.groupBy = append(b.groupBy, c)
	}
	return b
}

// Having adds a HAVING condition. Multiple conditions are combined with AND.
func (b *Builder[T, PT]) Having(column string, op ComparisonOp, value any) *Builder[T, PT] {
	if !b.where.validateColumn(column) {
		return b
	}
	bv := BindAny(value)
	b.having = append(b.having, Condition{Column: column, Op: op, Value: &bv})
	return b
}

// Limit caps the number of returned rows.
func (b *Builder[T, PT]) Limit(n int) *Builder[T, PT] {
	b.limit = n
	b.hasLimit = true
	return b
}

// Offset skips the first n rows.
func (b *Builder[T, PT]) Offset(n int) *Builder[T, PT] {
	b.offset = n
	b.hasOffset = true
	return b
}

// Paginate sets LIMIT/OFFSET from a 1-indexed page number.
// Pages below 1 clamp to the first page so the offset is never negative.
func (b *Builder[T, PT]) Paginate(page, pageSize int) *Builder[T, PT] {
	if page < 1 {
		page = 1
	}
	return b.Limit(pageSize).Offset((page - 1) * pageSize)
}

// Distinct adds the DISTINCT qualifier to the projection.
func (b *Builder[T, PT]) Distinct() *Builder[T, PT] {
	b.distinct = true
	return b
}

// Select restricts the projection to the given columns.
// Without it, all declared entry columns are selected.
func (b *Builder[T, PT]) Select(columns ...string) *Builder[T, PT] {
	for _, c := range columns {
		if !b.where.validateColumn(c) {
			return b
		}
	}
	b.selectCols = columns
	return b
}

// InnerJoin adds an INNER JOIN. The ON condition is trusted raw SQL.
func (b *Builder[T, PT]) InnerJoin(table, on string) *Builder[T, PT] {
	return b.join(InnerJoin, table, on)
}

// LeftJoin adds a LEFT JOIN. The ON condition is trusted raw SQL.
func (b *Builder[T, PT]) LeftJoin(table, on string) *Builder[T, PT] {
	return b.join(LeftJoin, table, on)
}

// RightJoin adds a RIGHT JOIN. The ON condition is trusted raw SQL.
func (b *Builder[T, PT]) RightJoin(table, on string) *Builder[T, PT] {
	return b.join(RightJoin, table, on)
}

// FullJoin adds a FULL OUTER JOIN. The ON condition is trusted raw SQL.
func (b *Builder[T, PT]) FullJoin(table, on string) *Builder[T, PT] {
	return b.join(FullJoin, table, on)
}

func (b *Builder[T, PT]) join(jt JoinType, table, on string) *Builder[T, PT] {
	b.joins = append(b.joins, Join{Type: jt, Table: table, On: on})
	return b
}

// Set records a column assignment for UPDATE. Assignment order follows the
// first Set call per column; setting a column twice overwrites its value.
func (b *Builder[T, PT]) Set(column string, value any) *Builder[T, PT] {
	if !b.where.validateColumn(column) {
		return b
	}
	return b.setBind(column, BindAny(value))
}

func (b *Builder[T, PT]) setBind(column string, value BindValue) *Builder[T, PT] {
	if b.setVals == nil {
		b.setVals = make(map[string]BindValue)
	}
	if _, dup := b.setVals[column]; !dup {
		b.setCols = append(b.setCols, column)
	}
	b.setVals[column] = value
	return b
}

// SetMap records multiple column assignments for UPDATE. Keys are applied in
// sorted order for deterministic SQL generation.
func (b *Builder[T, PT]) SetMap(values map[string]any) *Builder[T, PT] {
	for _, col := range sortedKeys(values) {
		b.Set(col, values[col])
	}
	return b
}

// Value records a column value for INSERT.
func (b *Builder[T, PT]) Value(column string, value any) *Builder[T, PT] {
	if !b.where.validateColumn(column) {
		return b
	}
	return b.valueBind(column, BindAny(value))
}

func (b *Builder[T, PT]) valueBind(column string, value BindValue) *Builder[T, PT] {
	if b.insertVals == nil {
		b.insertVals = make(map[string]BindValue)
	}
	if _, dup := b.insertVals[column]; !dup {
		b.insertCols = append(b.insertCols, column)
	}
	b.insertVals[column] = value
	return b
}

// Values records multiple column values for INSERT. Keys are applied in
// sorted order for deterministic SQL generation.
func (b *Builder[T, PT]) Values(values map[string]any) *Builder[T, PT] {
	for _, col := range sortedKeys(values) {
		b.Value(col, values[col])
	}
	return b
}

// sortedKeys returns sorted map keys for deterministic SQL generation.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupBuilder accumulates conditions for a parenthesized WHERE sub-tree.
type GroupBuilder[T any, PT EntryPtr[T]] struct {
	list whereList
}

// WhereEq adds `column = value` to the group.
func (g *GroupBuilder[T, PT]) WhereEq(column string, value any) *GroupBuilder[T, PT] {
	g.list.compare(column, OpEqual, value)
	return g
}

// WhereNe adds `column != value` to the group.
func (g *GroupBuilder[T, PT]) WhereNe(column string, value any) *GroupBuilder[T, PT] {
	g.list.compare(column, OpNotEqual, value)
	return g
}

// WhereGt adds `column > value` to the group.
func (g *GroupBuilder[T, PT]) WhereGt(column string, value any) *GroupBuilder[T, PT] {
	g.list.compare(column, OpGreaterThan, value)
	return g
}

// WhereGte adds `column >= value` to the group.
func (g *GroupBuilder[T, PT]) WhereGte(column string, value any) *GroupBuilder[T, PT] {
	g.list.compare(column, OpGreaterOrEqual, value)
	return g
}

// WhereLt adds `column < value` to the group.
func (g *GroupBuilder[T, PT]) WhereLt(column string, value any) *GroupBuilder[T, PT] {
	g.list.compare(column, OpLessThan, value)
	return g
}

// WhereLte adds `column <= value` to the group.
func (g *GroupBuilder[T, PT]) WhereLte(column string, value any) *GroupBuilder[T, PT] {
	g.list.compare(column, OpLessOrEqual, value)
	return g
}

// WhereLike adds a case-sensitive pattern match to the group.
func (g *GroupBuilder[T, PT]) WhereLike(column string, pattern string) *GroupBuilder[T, PT] {
	g.list.compare(column, OpLike, pattern)
	return g
}

// WhereILike adds a case-insensitive pattern match to the group.
func (g *GroupBuilder[T, PT]) WhereILike(column string, pattern string) *GroupBuilder[T, PT] {
	g.list.compare(column, OpILike, pattern)
	return g
}

// WhereIn adds `column IN (values...)` to the group.
func (g *GroupBuilder[T, PT]) WhereIn(column string, values ...any) *GroupBuilder[T, PT] {
	g.list.valueList(column, OpIn, values)
	return g
}

// WhereNotIn adds `column NOT IN (values...)` to the group.
func (g *GroupBuilder[T, PT]) WhereNotIn(column string, values ...any) *GroupBuilder[T, PT] {
	g.list.valueList(column, OpNotIn, values)
	return g
}

// WhereNull adds `column IS NULL` to the group.
func (g *GroupBuilder[T, PT]) WhereNull(column string) *GroupBuilder[T, PT] {
	g.list.nullCheck(column, OpIsNull)
	return g
}

// WhereNotNull adds `column IS NOT NULL` to the group.
func (g *GroupBuilder[T, PT]) WhereNotNull(column string) *GroupBuilder[T, PT] {
	g.list.nullCheck(column, OpIsNotNull)
	return g
}

// WhereBetween adds `column BETWEEN lo AND hi` to the group.
func (g *GroupBuilder[T, PT]) WhereBetween(column string, lo, hi any) *GroupBuilder[T, PT] {
	g.list.valueList(column, OpBetween, []any{lo, hi})
	return g
}

// And sets AND as the connective after the previously pushed clause.
func (g *GroupBuilder[T, PT]) And() *GroupBuilder[T, PT] {
	g.list.setJoin(OpAnd)
	return g
}

// Or sets OR as the connective after the previously pushed clause.
func (g *GroupBuilder[T, PT]) Or() *GroupBuilder[T, PT] {
	g.list.setJoin(OpOr)
	return g
}
