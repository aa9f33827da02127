package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Kind classifies an Error into a stable, machine-checkable category.
type Kind int

// Error kinds returned by Tabula operations.
const (
	KindInternal Kind = iota
	KindBadRequest
	KindInvalidColumn
	KindInvalidQuery
	KindNotFound
	KindConflict
	KindAuthentication
	KindAuthorization
	KindSerialization
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindInvalidColumn:
		return "invalid column"
	case KindInvalidQuery:
		return "invalid query"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindSerialization:
		return "serialization"
	default:
		return "internal"
	}
}

// Error is the single error type surfaced by Tabula. Every error carries a
// stable Kind plus a human-readable message; the wrapped driver error, when
// present, is reachable through Unwrap but never the sole diagnostic.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap returns the wrapped driver error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given kind and formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err represents a missing required row.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err represents a constraint violation.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsInvalidColumn reports whether err was caused by an unknown column name.
func IsInvalidColumn(err error) bool {
	return KindOf(err) == KindInvalidColumn
}

func invalidColumnError(column string) *Error {
	return NewError(KindInvalidColumn, "invalid column name: %s", column)
}

// mysqlConflictNumbers are the MySQL server error numbers that map to
// KindConflict: duplicate entry plus the foreign-key violation family.
var mysqlConflictNumbers = map[uint16]bool{
	1062: true, // ER_DUP_ENTRY
	1216: true, // ER_NO_REFERENCED_ROW
	1217: true, // ER_ROW_IS_REFERENCED
	1451: true, // ER_ROW_IS_REFERENCED_2
	1452: true, // ER_NO_REFERENCED_ROW_2
}

// translateDriverError converts a raw driver error into the Tabula taxonomy.
// Already-translated errors pass through unchanged so classification happens
// exactly once, at the executor boundary.
func translateDriverError(err error) error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: KindNotFound, Message: "no record found", Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 23 covers all integrity constraint violations.
		if strings.HasPrefix(string(pqErr.Code), "23") {
			return &Error{Kind: KindConflict, Message: "constraint violation", Err: err}
		}
		return &Error{Kind: KindInternal, Message: "database error", Err: err}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if mysqlConflictNumbers[myErr.Number] {
			return &Error{Kind: KindConflict, Message: "constraint violation", Err: err}
		}
		return &Error{Kind: KindInternal, Message: "database error", Err: err}
	}

	// SQLite drivers expose no structured error type shared across the cgo and
	// pure-Go implementations; fall back to message matching.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "constraint") &&
		(strings.Contains(msg, "unique") || strings.Contains(msg, "foreign key") || strings.Contains(msg, "failed")) {
		return &Error{Kind: KindConflict, Message: "constraint violation", Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindInternal, Message: "operation canceled", Err: err}
	}

	return &Error{Kind: KindInternal, Message: "database error", Err: err}
}
