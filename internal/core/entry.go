package core

import "time"

// Entry is the capability every queryable type must implement. It is the only
// schema definition Tabula requires: no schema files, no code generation.
//
// Columns must list every persisted column in schema order, primary key
// first, and must be a superset of InsertableColumns. ToBindValues must
// yield one value per insertable column, in the same order.
type Entry interface {
	// TableName returns the SQL table backing this type.
	TableName() string
	// Columns returns all persisted columns in schema order.
	Columns() []string
	// InsertableColumns returns the columns written on INSERT/UPDATE.
	InsertableColumns() []string
	// ToBindValues returns bind values aligned 1:1 with InsertableColumns.
	ToBindValues() []BindValue
	// PrimaryKey returns the current value of the id column.
	PrimaryKey() any
	// SetCreatedAt stamps the creation timestamp.
	SetCreatedAt(t time.Time)
	// SetUpdatedAt stamps the modification timestamp.
	SetUpdatedAt(t time.Time)
}

// EntryPtr constrains a pointer type *T to implement Entry, so repositories
// can both allocate value structs for scanning and mutate timestamps through
// the pointer method set.
type EntryPtr[T any] interface {
	*T
	Entry
}

// entryMeta captures the static portion of an Entry contract without needing
// a live instance.
type entryMeta struct {
	table      string
	columns    []string
	insertable []string
	columnSet  map[string]bool
}

// metaOf extracts table and column metadata from the entry type.
func metaOf[T any, PT EntryPtr[T]]() entryMeta {
	var zero T
	e := PT(&zero)

	cols := e.Columns()
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}

	return entryMeta{
		table:      e.TableName(),
		columns:    cols,
		insertable: e.InsertableColumns(),
		columnSet:  set,
	}
}

// hasColumn reports whether the entry declares the given column.
func (m entryMeta) hasColumn(column string) bool {
	return m.columnSet[column]
}
