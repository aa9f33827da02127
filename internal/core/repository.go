package core

import (
	"context"
	"time"
)

// Columns the repository manages on the caller's behalf. They are never
// written by UpdatePartial payloads and timestamps are stamped server-side
// in application time.
const (
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Repository provides typed CRUD and query operations for one entry type.
// Repositories are cheap stateless handles over a shared *DB; create as many
// as needed, the pool outlives them all. The first declared column of the
// entry is treated as its primary key.
type Repository[T any, PT EntryPtr[T]] struct {
	db   *DB
	meta entryMeta
	pk   string
}

// NewRepository creates a repository for the entry type T on db.
func NewRepository[T any, PT EntryPtr[T]](db *DB) *Repository[T, PT] {
	meta := metaOf[T, PT]()
	return &Repository[T, PT]{db: db, meta: meta, pk: meta.columns[0]}
}

// Query returns a fresh builder for ad-hoc queries against this entry type.
func (r *Repository[T, PT]) Query() *Builder[T, PT] {
	return NewBuilder[T, PT](r.db)
}

func (r *Repository[T, PT]) txQuery(tx *Tx) *Builder[T, PT] {
	return newTxBuilder[T, PT](r.db, tx.tx)
}

// FindAll returns every row in natural order. Zero rows is an empty slice,
// never an error.
func (r *Repository[T, PT]) FindAll(ctx context.Context) ([]T, error) {
	return r.Query().All(ctx)
}

// FindByID fetches the row with the given primary key.
// An absent row is a NotFound error.
func (r *Repository[T, PT]) FindByID(ctx context.Context, id any) (*T, error) {
	return r.Query().WhereEq(r.pk, id).One(ctx)
}

// FindByColumn returns all rows where column equals value.
func (r *Repository[T, PT]) FindByColumn(ctx context.Context, column string, value any) ([]T, error) {
	return r.Query().WhereEq(column, value).All(ctx)
}

// FindByColumns returns all rows matching every column/value pair. A length
// mismatch between columns and values is a caller contract violation and
// reports an Internal error, not a user-input error.
func (r *Repository[T, PT]) FindByColumns(ctx context.Context, columns []string, values []any) ([]T, error) {
	if len(columns) != len(values) {
		return nil, NewError(KindInternal, "column/value arity mismatch: %d columns, %d values", len(columns), len(values))
	}
	b := r.Query()
	for i, col := range columns {
		b.WhereEq(col, values[i])
	}
	return b.All(ctx)
}

// Count returns the total number of rows.
func (r *Repository[T, PT]) Count(ctx context.Context) (int64, error) {
	return r.Query().Count(ctx)
}

// Paginate returns the given 1-indexed page ordered by primary key
// ascending. Pages below 1 clamp to the first page.
func (r *Repository[T, PT]) Paginate(ctx context.Context, page, pageSize int) ([]T, error) {
	return r.Query().OrderByAsc(r.pk).Paginate(page, pageSize).All(ctx)
}

// PaginateSorted returns the given 1-indexed page ordered by an explicit
// column and direction.
func (r *Repository[T, PT]) PaginateSorted(ctx context.Context, column string, dir SortDirection, page, pageSize int) ([]T, error) {
	b := r.Query()
	if dir == Desc {
		b.OrderByDesc(column)
	} else {
		b.OrderByAsc(column)
	}
	return b.Paginate(page, pageSize).All(ctx)
}

// Exists reports whether a row with the given primary key exists, without
// materializing it.
func (r *Repository[T, PT]) Exists(ctx context.Context, id any) (bool, error) {
	return r.Query().WhereEq(r.pk, id).Exists(ctx)
}

// bindInsertable loads the entity's insertable columns and values into b.
func (r *Repository[T, PT]) bindInsertable(b *Builder[T, PT], entity PT, skip map[string]bool) error {
	cols := entity.InsertableColumns()
	vals := entity.ToBindValues()
	if len(cols) != len(vals) {
		return NewError(KindInternal, "entry %s: %d insertable columns but %d bind values", r.meta.table, len(cols), len(vals))
	}
	for i, col := range cols {
		if skip[col] {
			continue
		}
		b.valueBind(col, vals[i])
	}
	return nil
}

// Create stamps both timestamps, inserts the entity, and returns the
// persisted row including server-assigned defaults. On dialects without
// RETURNING the row is re-fetched by primary key.
func (r *Repository[T, PT]) Create(ctx context.Context, entity PT) (*T, error) {
	return r.createOn(ctx, entity, r.Query, nil)
}

// createOn runs the insert on builders produced by newB, so the same path
// serves both standalone creates and batch creates inside a transaction.
func (r *Repository[T, PT]) createOn(ctx context.Context, entity PT, newB func() *Builder[T, PT], refetch func() *Builder[T, PT]) (*T, error) {
	now := time.Now().UTC()
	entity.SetCreatedAt(now)
	entity.SetUpdatedAt(now)

	b := newB()
	if err := r.bindInsertable(b, entity, nil); err != nil {
		return nil, err
	}

	if r.db.dialect.SupportsReturning() {
		return b.InsertReturning(ctx)
	}

	if _, err := b.Insert(ctx); err != nil {
		return nil, err
	}
	if refetch == nil {
		refetch = newB
	}
	return refetch().WhereEq(r.pk, entity.PrimaryKey()).One(ctx)
}

// CreateMany inserts all entities in one transaction. Any single failure
// rolls back the whole batch and returns the triggering error; on success
// the full list of persisted rows is returned in input order.
func (r *Repository[T, PT]) CreateMany(ctx context.Context, entities []PT) ([]T, error) {
	if len(entities) == 0 {
		return []T{}, nil
	}

	out := make([]T, 0, len(entities))
	err := r.db.Transactional(ctx, func(tx *Tx) error {
		for _, entity := range entities {
			newB := func() *Builder[T, PT] { return r.txQuery(tx) }
			row, err := r.createOn(ctx, entity, newB, newB)
			if err != nil {
				return err
			}
			out = append(out, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateSkip lists columns an update never rewrites.
var updateSkip = map[string]bool{createdAtColumn: true}

// Update stamps the updated timestamp and writes all insertable columns of
// the supplied entity to the row with the given id. The primary key and
// creation timestamp are never rewritten. An absent row is a NotFound error.
func (r *Repository[T, PT]) Update(ctx context.Context, id any, entity PT) (*T, error) {
	entity.SetUpdatedAt(time.Now().UTC())

	skip := map[string]bool{r.pk: true, createdAtColumn: true}
	cols := entity.InsertableColumns()
	vals := entity.ToBindValues()
	if len(cols) != len(vals) {
		return nil, NewError(KindInternal, "entry %s: %d insertable columns but %d bind values", r.meta.table, len(cols), len(vals))
	}

	b := r.Query()
	for i, col := range cols {
		if skip[col] {
			continue
		}
		b.setBind(col, vals[i])
	}
	b.WhereEq(r.pk, id)
	return r.finishUpdate(ctx, b, id)
}

// UpdatePartial writes only the supplied column/value pairs plus a forced
// updated_at bump. An empty set is a BadRequest error, not a silent no-op.
// Primary key and created_at entries in the payload are silently dropped.
func (r *Repository[T, PT]) UpdatePartial(ctx context.Context, id any, values map[string]any) (*T, error) {
	payload := make(map[string]any, len(values))
	for col, v := range values {
		if col == r.pk || updateSkip[col] {
			continue
		}
		payload[col] = v
	}
	if len(payload) == 0 {
		return nil, NewError(KindBadRequest, "no columns provided for partial update")
	}

	b := r.Query().SetMap(payload)
	b.Set(updatedAtColumn, BindTime(time.Now().UTC()))
	b.WhereEq(r.pk, id)
	return r.finishUpdate(ctx, b, id)
}

// finishUpdate executes a prepared UPDATE builder and returns the updated
// row, via RETURNING where the dialect allows and a re-fetch otherwise.
func (r *Repository[T, PT]) finishUpdate(ctx context.Context, b *Builder[T, PT], id any) (*T, error) {
	if r.db.dialect.SupportsReturning() {
		rows, err := b.UpdateReturning(ctx)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, NewError(KindNotFound, "no record found")
		}
		return &rows[0], nil
	}

	affected, err := b.Update(ctx)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, NewError(KindNotFound, "no record found")
	}
	return r.FindByID(ctx, id)
}

// Delete removes the row with the given primary key and reports whether a
// row was removed. Deleting a non-existent id is not an error.
func (r *Repository[T, PT]) Delete(ctx context.Context, id any) (bool, error) {
	affected, err := r.Query().WhereEq(r.pk, id).Delete(ctx)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteMany removes all rows whose primary key is in ids and returns the
// affected count. An empty id list short-circuits to 0 without issuing SQL.
func (r *Repository[T, PT]) DeleteMany(ctx context.Context, ids []any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.Query().WhereIn(r.pk, ids...).Delete(ctx)
}

// Filter is one ordered condition for FindAdvanced. Value carries the
// operand for scalar comparisons; Values carries the operand list for
// In/NotIn/Between. Null checks use neither.
type Filter struct {
	Column string
	Op     ComparisonOp
	Value  any
	Values []any
}

// applyFilter routes one filter onto the builder through the same validated
// paths the fluent methods use.
func applyFilter[T any, PT EntryPtr[T]](b *Builder[T, PT], f Filter) {
	switch f.Op {
	case OpIn:
		b.WhereIn(f.Column, f.Values...)
	case OpNotIn:
		b.WhereNotIn(f.Column, f.Values...)
	case OpBetween:
		b.where.valueList(f.Column, OpBetween, f.Values)
	case OpIsNull:
		b.WhereNull(f.Column)
	case OpIsNotNull:
		b.WhereNotNull(f.Column)
	default:
		b.where.compare(f.Column, f.Op, f.Value)
	}
}

// FindAdvanced composes ordered filters with optional ordering and paging.
// With no constraints it degrades to FindAll. Filters combine with AND.
func (r *Repository[T, PT]) FindAdvanced(ctx context.Context, filters []Filter, orderBy string, dir SortDirection, limit, offset int) ([]T, error) {
	b := r.Query()
	for _, f := range filters {
		applyFilter(b, f)
	}
	if orderBy != "" {
		b.orderByDir(orderBy, dir)
	}
	if limit > 0 {
		b.Limit(limit)
	}
	if offset > 0 {
		b.Offset(offset)
	}
	return b.All(ctx)
}

// SearchByPattern returns rows whose column matches the LIKE pattern,
// case-insensitively when requested. A non-positive limit means no limit.
func (r *Repository[T, PT]) SearchByPattern(ctx context.Context, column, pattern string, caseInsensitive bool, limit int) ([]T, error) {
	b := r.Query()
	if caseInsensitive {
		b.WhereILike(column, pattern)
	} else {
		b.WhereLike(column, pattern)
	}
	if limit > 0 {
		b.Limit(limit)
	}
	return b.All(ctx)
}

// FindByRange returns rows whose column lies in [lo, hi], inclusive.
func (r *Repository[T, PT]) FindByRange(ctx context.Context, column string, lo, hi any) ([]T, error) {
	return r.Query().WhereBetween(column, lo, hi).All(ctx)
}

// FindByValues returns rows whose column is any of values. An empty value
// list returns an empty slice without issuing SQL.
func (r *Repository[T, PT]) FindByValues(ctx context.Context, column string, values []any) ([]T, error) {
	if len(values) == 0 {
		return []T{}, nil
	}
	return r.Query().WhereIn(column, values...).All(ctx)
}
