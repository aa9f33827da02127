package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// bindKind discriminates the active variant of a BindValue.
type bindKind int

const (
	bindNull bindKind = iota
	bindBool
	bindInt
	bindFloat
	bindString
	bindJSON
)

// BindValue is the closed set of scalar wire values used to carry typed
// parameters across the dialect boundary. Exactly one variant is active.
type BindValue struct {
	kind bindKind
	b    bool
	i    int64
	f    float64
	s    string
	j    any
}

// BindNull returns the NULL bind value.
func BindNull() BindValue {
	return BindValue{kind: bindNull}
}

// BindBool returns a boolean bind value.
func BindBool(v bool) BindValue {
	return BindValue{kind: bindBool, b: v}
}

// BindInt returns an integer bind value.
func BindInt(v int64) BindValue {
	return BindValue{kind: bindInt, i: v}
}

// BindFloat returns a floating-point bind value.
func BindFloat(v float64) BindValue {
	return BindValue{kind: bindFloat, f: v}
}

// BindString returns a string bind value.
func BindString(v string) BindValue {
	return BindValue{kind: bindString, s: v}
}

// BindJSON returns a bind value carrying an arbitrary structure, serialized
// as JSON at bind time.
func BindJSON(v any) BindValue {
	return BindValue{kind: bindJSON, j: v}
}

// BindTime returns a string bind value in RFC 3339 format. Timestamps travel
// as text so that both placeholder styles bind them identically.
func BindTime(v time.Time) BindValue {
	return BindString(v.UTC().Format(time.RFC3339Nano))
}

// BindAny converts an arbitrary Go value into a BindValue. The conversion is
// lossless for nil, booleans, all integer widths, floats, and strings;
// anything else becomes a JSON value.
func BindAny(v any) BindValue {
	switch x := v.(type) {
	case nil:
		return BindNull()
	case BindValue:
		return x
	case bool:
		return BindBool(x)
	case int:
		return BindInt(int64(x))
	case int8:
		return BindInt(int64(x))
	case int16:
		return BindInt(int64(x))
	case int32:
		return BindInt(int64(x))
	case int64:
		return BindInt(x)
	case uint:
		return BindInt(int64(x))
	case uint8:
		return BindInt(int64(x))
	case uint16:
		return BindInt(int64(x))
	case uint32:
		return BindInt(int64(x))
	case uint64:
		return BindInt(int64(x))
	case float32:
		return BindFloat(float64(x))
	case float64:
		return BindFloat(x)
	case string:
		return BindString(x)
	case time.Time:
		return BindTime(x)
	case fmt.Stringer:
		return BindString(x.String())
	default:
		return BindJSON(x)
	}
}

// IsNull reports whether the NULL variant is active.
func (v BindValue) IsNull() bool {
	return v.kind == bindNull
}

// driverValue converts the bind value into a database/sql argument.
// JSON variants are marshaled; a marshal failure is a Serialization error.
func (v BindValue) driverValue() (any, error) {
	switch v.kind {
	case bindNull:
		return nil, nil
	case bindBool:
		return v.b, nil
	case bindInt:
		return v.i, nil
	case bindFloat:
		return v.f, nil
	case bindString:
		return v.s, nil
	case bindJSON:
		raw, err := json.Marshal(v.j)
		if err != nil {
			return nil, &Error{Kind: KindSerialization, Message: "cannot encode bind value", Err: err}
		}
		return string(raw), nil
	default:
		return nil, NewError(KindInternal, "unknown bind value kind %d", v.kind)
	}
}
