package core

import (
	"strconv"
	"strings"

	"github.com/coregx/tabula/internal/dialects"
)

// sqlWriter accumulates SQL text and its ordered parameter list in a single
// pass, so the binding order can never diverge from the placeholder order.
type sqlWriter struct {
	dialect dialects.Dialect
	sb      strings.Builder
	args    []any
	n       int
	err     error
}

func newSQLWriter(d dialects.Dialect) *sqlWriter {
	return &sqlWriter{dialect: d}
}

func (w *sqlWriter) raw(s string) {
	w.sb.WriteString(s)
}

func (w *sqlWriter) ident(name string) {
	w.sb.WriteString(w.dialect.QuoteIdentifier(name))
}

// bind allocates the next placeholder and appends the driver value in the
// same step. Placeholder allocation is monotonic.
func (w *sqlWriter) bind(v BindValue) {
	if w.err != nil {
		return
	}
	dv, err := v.driverValue()
	if err != nil {
		w.err = err
		return
	}
	w.n++
	w.args = append(w.args, dv)
	w.sb.WriteString(w.dialect.Placeholder(w.n))
}

func (w *sqlWriter) result() (string, []any, error) {
	if w.err != nil {
		return "", nil, w.err
	}
	return w.sb.String(), w.args, nil
}

// operatorSQL resolves a comparison operator to its SQL keyword for the
// target dialect.
func operatorSQL(op ComparisonOp, d dialects.Dialect) string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpLike:
		return d.LikeOperator(false)
	case OpILike:
		return d.LikeOperator(true)
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpBetween:
		return "BETWEEN"
	default:
		return "="
	}
}

// writeCondition renders a single comparison. IN/NOT IN emit one placeholder
// per element, BETWEEN emits exactly two, IS [NOT] NULL emits none.
func (w *sqlWriter) writeCondition(c *Condition) {
	w.ident(c.Column)
	w.raw(" ")
	w.raw(operatorSQL(c.Op, w.dialect))

	switch c.Op {
	case OpIsNull, OpIsNotNull:
		// No value for these operators.

	case OpIn, OpNotIn:
		w.raw(" (")
		for i, v := range c.Values {
			if i > 0 {
				w.raw(", ")
			}
			w.bind(v)
		}
		w.raw(")")

	case OpBetween:
		if len(c.Values) != 2 {
			w.err = NewError(KindInvalidQuery, "BETWEEN on %s requires exactly two bounds", c.Column)
			return
		}
		w.raw(" ")
		w.bind(c.Values[0])
		w.raw(" AND ")
		w.bind(c.Values[1])

	default:
		if c.Value == nil {
			w.err = NewError(KindInvalidQuery, "missing comparison value for column %s", c.Column)
			return
		}
		w.raw(" ")
		w.bind(*c.Value)
	}
}

// writeClauses renders a clause list. The connective attached to clause i
// joins it to clause i+1; an unset connective defaults to AND.
func (w *sqlWriter) writeClauses(links []clauseLink) {
	for i, link := range links {
		if i > 0 {
			join := OpAnd
			if prev := links[i-1].join; prev != nil {
				join = *prev
			}
			w.raw(" " + join.sqlKeyword() + " ")
		}

		switch {
		case link.clause.cond != nil:
			w.writeCondition(link.clause.cond)
		case link.clause.group != nil:
			w.raw("(")
			w.writeClauses(link.clause.group.clauses)
			w.raw(")")
		}
	}
}

func (w *sqlWriter) writeWhere(links []clauseLink) {
	if len(links) == 0 {
		return
	}
	w.raw(" WHERE ")
	w.writeClauses(links)
}

func (w *sqlWriter) writeJoins(joins []Join) {
	for _, j := range joins {
		// Join target and ON condition are trusted fragments from the caller.
		w.raw(" " + j.Type.sqlKeyword() + " " + j.Table + " ON " + j.On)
	}
}

// buildSelect renders the full SELECT statement for this builder.
func (b *Builder[T, PT]) buildSelect() (string, []any, error) {
	if err := b.where.err; err != nil {
		return "", nil, err
	}

	w := newSQLWriter(b.db.dialect)
	w.raw("SELECT ")
	if b.distinct {
		w.raw("DISTINCT ")
	}

	cols := b.selectCols
	if len(cols) == 0 {
		cols = b.meta.columns
	}
	for i, c := range cols {
		if i > 0 {
			w.raw(", ")
		}
		w.ident(c)
	}

	w.raw(" FROM ")
	w.ident(b.meta.table)
	w.writeJoins(b.joins)
	w.writeWhere(b.where.clauses)

	if len(b.groupBy) > 0 {
		w.raw(" GROUP BY ")
		for i, c := range b.groupBy {
			if i > 0 {
				w.raw(", ")
			}
			w.ident(c)
		}
	}

	if len(b.having) > 0 {
		w.raw(" HAVING ")
		for i := range b.having {
			if i > 0 {
				w.raw(" AND ")
			}
			w.writeCondition(&b.having[i])
		}
	}

	if len(b.orderBy) > 0 {
		w.raw(" ORDER BY ")
		for i, o := range b.orderBy {
			if i > 0 {
				w.raw(", ")
			}
			w.ident(o.Column)
			w.raw(" " + o.Direction.sqlKeyword())
		}
	}

	if b.hasLimit {
		w.raw(" LIMIT " + strconv.Itoa(b.limit))
	}
	if b.hasOffset {
		w.raw(" OFFSET " + strconv.Itoa(b.offset))
	}

	return w.result()
}

// buildCount renders SELECT COUNT(*) with the same WHERE/JOIN composition.
func (b *Builder[T, PT]) buildCount() (string, []any, error) {
	if err := b.where.err; err != nil {
		return "", nil, err
	}

	w := newSQLWriter(b.db.dialect)
	w.raw("SELECT COUNT(*) FROM ")
	w.ident(b.meta.table)
	w.writeJoins(b.joins)
	w.writeWhere(b.where.clauses)
	return w.result()
}

// buildExists renders SELECT 1 ... LIMIT 1 without materializing a row.
func (b *Builder[T, PT]) buildExists() (string, []any, error) {
	if err := b.where.err; err != nil {
		return "", nil, err
	}

	w := newSQLWriter(b.db.dialect)
	w.raw("SELECT 1 FROM ")
	w.ident(b.meta.table)
	w.writeJoins(b.joins)
	w.writeWhere(b.where.clauses)
	w.raw(" LIMIT 1")
	return w.result()
}

// buildUpdate renders the UPDATE statement. A structurally empty assignment
// set fails before any SQL exists.
func (b *Builder[T, PT]) buildUpdate(returning bool) (string, []any, error) {
	if err := b.where.err; err != nil {
		return "", nil, err
	}
	if len(b.setCols) == 0 {
		return "", nil, NewError(KindInvalidQuery, "no data provided for update")
	}

	w := newSQLWriter(b.db.dialect)
	w.raw("UPDATE ")
	w.ident(b.meta.table)
	w.raw(" SET ")
	for i, col := range b.setCols {
		if i > 0 {
			w.raw(", ")
		}
		w.ident(col)
		w.raw(" = ")
		w.bind(b.setVals[col])
	}
	w.writeWhere(b.where.clauses)
	if returning {
		w.raw(" RETURNING *")
	}
	return w.result()
}

// buildInsert renders the INSERT statement. A structurally empty value set
// fails before any SQL exists.
func (b *Builder[T, PT]) buildInsert(returning bool) (string, []any, error) {
	if err := b.where.err; err != nil {
		return "", nil, err
	}
	if len(b.insertCols) == 0 {
		return "", nil, NewError(KindInvalidQuery, "no data provided for insert")
	}

	w := newSQLWriter(b.db.dialect)
	w.raw("INSERT INTO ")
	w.ident(b.meta.table)
	w.raw(" (")
	for i, col := range b.insertCols {
		if i > 0 {
			w.raw(", ")
		}
		w.ident(col)
	}
	w.raw(") VALUES (")
	for i, col := range b.insertCols {
		if i > 0 {
			w.raw(", ")
		}
		w.bind(b.insertVals[col])
	}
	w.raw(")")
	if returning {
		w.raw(" RETURNING *")
	}
	return w.result()
}

// buildDelete renders the DELETE statement.
func (b *Builder[T, PT]) buildDelete() (string, []any, error) {
	if err := b.where.err; err != nil {
		return "", nil, err
	}

	w := newSQLWriter(b.db.dialect)
	w.raw("DELETE FROM ")
	w.ident(b.meta.table)
	w.writeWhere(b.where.clauses)
	return w.result()
}
