package core

import (
	"database/sql"
	"reflect"
	"strings"
	"sync"
)

// scanner maps SQL rows onto structs via `db` tags, caching the per-type
// field analysis.
type scanner struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*structInfo
}

type structInfo struct {
	fields []*fieldInfo
}

// fieldInfo describes one scannable struct field.
type fieldInfo struct {
	index  []int // index path, supports embedded structs
	dbName string
}

var globalScanner = &scanner{cache: make(map[reflect.Type]*structInfo)}

func (s *scanner) structInfoFor(typ reflect.Type) (*structInfo, error) {
	s.mu.RLock()
	info, ok := s.cache[typ]
	s.mu.RUnlock()
	if ok {
		return info, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if info, ok := s.cache[typ]; ok {
		return info, nil
	}

	info, err := buildStructInfo(typ, nil)
	if err != nil {
		return nil, err
	}
	s.cache[typ] = info
	return info, nil
}

func buildStructInfo(typ reflect.Type, index []int) (*structInfo, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, NewError(KindSerialization, "scan target must be a struct, got %s", typ.Kind())
	}

	info := &structInfo{}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldIndex := append(append([]int{}, index...), i)

		// Embedded structs are flattened even when the embedded type is
		// unexported; their promoted exported fields stay addressable.
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			nested, err := buildStructInfo(field.Type, fieldIndex)
			if err != nil {
				return nil, err
			}
			info.fields = append(info.fields, nested.fields...)
			continue
		}

		if !field.IsExported() {
			continue
		}

		dbName := field.Name
		if tag, ok := field.Tag.Lookup("db"); ok {
			if tag == "-" {
				continue
			}
			dbName = tag
		}

		info.fields = append(info.fields, &fieldInfo{
			index:  fieldIndex,
			dbName: strings.ToLower(dbName),
		})
	}
	return info, nil
}

// scanTargets builds the Scan argument list for one row, matching result
// columns to struct fields by name. Unmapped columns scan into a throwaway.
func scanTargets(columns []string, fieldMap map[string]*fieldInfo, structValue reflect.Value) []any {
	dests := make([]any, len(columns))
	for i, col := range columns {
		if f, ok := fieldMap[strings.ToLower(col)]; ok {
			fv := structValue
			for _, idx := range f.index {
				fv = fv.Field(idx)
			}
			dests[i] = fv.Addr().Interface()
		} else {
			var dummy any
			dests[i] = &dummy
		}
	}
	return dests
}

func fieldMapOf(info *structInfo) map[string]*fieldInfo {
	m := make(map[string]*fieldInfo, len(info.fields))
	for _, f := range info.fields {
		m[f.dbName] = f
	}
	return m
}

// scanRow scans the current row of rows into dest, which must be a pointer
// to a struct. The caller has already positioned the cursor with rows.Next.
func (s *scanner) scanRow(rows *sql.Rows, dest any) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return NewError(KindSerialization, "scan target must be a struct pointer, got %T", dest)
	}
	destValue = destValue.Elem()
	if destValue.Kind() != reflect.Struct {
		return NewError(KindSerialization, "scan target must be a struct pointer, got pointer to %s", destValue.Kind())
	}

	info, err := s.structInfoFor(destValue.Type())
	if err != nil {
		return err
	}
	columns, err := rows.Columns()
	if err != nil {
		return &Error{Kind: KindSerialization, Message: "cannot read result columns", Err: err}
	}

	dests := scanTargets(columns, fieldMapOf(info), destValue)
	if err := rows.Scan(dests...); err != nil {
		return &Error{Kind: KindSerialization, Message: "row scan failed", Err: err}
	}
	return nil
}

// scanRows scans every remaining row into dest, a pointer to a slice of
// structs or struct pointers, and reports how many rows were scanned.
func (s *scanner) scanRows(rows *sql.Rows, dest any) (int64, error) {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return 0, NewError(KindSerialization, "scan target must be a slice pointer, got %T", dest)
	}
	sliceValue := destValue.Elem()
	if sliceValue.Kind() != reflect.Slice {
		return 0, NewError(KindSerialization, "scan target must be a slice pointer, got pointer to %s", sliceValue.Kind())
	}

	elemType := sliceValue.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return 0, NewError(KindSerialization, "slice element must be struct or *struct, got %s", elemType.Kind())
	}

	info, err := s.structInfoFor(elemType)
	if err != nil {
		return 0, err
	}
	columns, err := rows.Columns()
	if err != nil {
		return 0, &Error{Kind: KindSerialization, Message: "cannot read result columns", Err: err}
	}
	fieldMap := fieldMapOf(info)

	var scanned int64
	for rows.Next() {
		elemValue := reflect.New(elemType).Elem()
		dests := scanTargets(columns, fieldMap, elemValue)
		if err := rows.Scan(dests...); err != nil {
			return scanned, &Error{Kind: KindSerialization, Message: "row scan failed", Err: err}
		}
		if isPtr {
			sliceValue.Set(reflect.Append(sliceValue, elemValue.Addr()))
		} else {
			sliceValue.Set(reflect.Append(sliceValue, elemValue))
		}
		scanned++
	}
	if err := rows.Err(); err != nil {
		return scanned, translateDriverError(err)
	}
	return scanned, nil
}
