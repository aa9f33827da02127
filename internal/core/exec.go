package core

import "context"

// newQuery wraps rendered SQL in an executable Query bound to the builder's
// connection (or transaction) and the caller's context.
func (b *Builder[T, PT]) newQuery(ctx context.Context, sqlText string, params []any) *Query {
	return &Query{sql: sqlText, params: params, db: b.db, tx: b.tx, ctx: ctx}
}

// All executes the SELECT and returns every matching row.
// No matches yields an empty slice, not an error.
func (b *Builder[T, PT]) All(ctx context.Context) ([]T, error) {
	sqlText, params, err := b.buildSelect()
	if err != nil {
		return nil, err
	}
	var out []T
	if err := b.newQuery(ctx, sqlText, params).All(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// One executes the SELECT and returns exactly one row.
// Zero rows is a NotFound error; extra rows are ignored.
func (b *Builder[T, PT]) One(ctx context.Context) (*T, error) {
	sqlText, params, err := b.buildSelect()
	if err != nil {
		return nil, err
	}
	var out T
	if err := b.newQuery(ctx, sqlText, params).One(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Optional executes the SELECT and returns the first row, or nil without
// error when no row matches.
func (b *Builder[T, PT]) Optional(ctx context.Context) (*T, error) {
	sqlText, params, err := b.buildSelect()
	if err != nil {
		return nil, err
	}
	var out T
	found, err := b.newQuery(ctx, sqlText, params).Optional(&out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

// Count executes SELECT COUNT(*) with the builder's WHERE/JOIN composition.
func (b *Builder[T, PT]) Count(ctx context.Context) (int64, error) {
	sqlText, params, err := b.buildCount()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := b.newQuery(ctx, sqlText, params).Scalar(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether any row matches, without materializing one.
func (b *Builder[T, PT]) Exists(ctx context.Context) (bool, error) {
	sqlText, params, err := b.buildExists()
	if err != nil {
		return false, err
	}
	var one int
	found, err := b.newQuery(ctx, sqlText, params).ScalarOptional(&one)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Update executes the UPDATE and returns the number of rows affected.
func (b *Builder[T, PT]) Update(ctx context.Context) (int64, error) {
	sqlText, params, err := b.buildUpdate(false)
	if err != nil {
		return 0, err
	}
	return b.newQuery(ctx, sqlText, params).Execute()
}

// UpdateReturning executes UPDATE ... RETURNING * and returns the updated
// rows. Only usable on dialects that support RETURNING.
func (b *Builder[T, PT]) UpdateReturning(ctx context.Context) ([]T, error) {
	if !b.db.dialect.SupportsReturning() {
		return nil, NewError(KindInvalidQuery, "dialect %s does not support RETURNING", b.db.driverName)
	}
	sqlText, params, err := b.buildUpdate(true)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := b.newQuery(ctx, sqlText, params).All(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert executes the INSERT and returns the number of rows affected.
func (b *Builder[T, PT]) Insert(ctx context.Context) (int64, error) {
	sqlText, params, err := b.buildInsert(false)
	if err != nil {
		return 0, err
	}
	return b.newQuery(ctx, sqlText, params).Execute()
}

// InsertReturning executes INSERT ... RETURNING * and returns the inserted
// row as the database sees it, defaults applied. Only usable on dialects
// that support RETURNING.
func (b *Builder[T, PT]) InsertReturning(ctx context.Context) (*T, error) {
	if !b.db.dialect.SupportsReturning() {
		return nil, NewError(KindInvalidQuery, "dialect %s does not support RETURNING", b.db.driverName)
	}
	sqlText, params, err := b.buildInsert(true)
	if err != nil {
		return nil, err
	}
	var out T
	if err := b.newQuery(ctx, sqlText, params).One(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete executes the DELETE and returns the number of rows affected.
// Deleting nothing is not an error.
func (b *Builder[T, PT]) Delete(ctx context.Context) (int64, error) {
	sqlText, params, err := b.buildDelete()
	if err != nil {
		return 0, err
	}
	return b.newQuery(ctx, sqlText, params).Execute()
}
