package signup

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ConstraintKind identifies which store constraint rejected a write
type ConstraintKind string

const (
	ConstraintNone       ConstraintKind = ""
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
)

const textCodeConstraintViolation = "CONSTRAINT_VIOLATION"

// newConstraintViolation marks a store write rejected by a constraint.
func newConstraintViolation(err error, kind ConstraintKind) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryConflict, "constraint violation").
		WithTextCode(textCodeConstraintViolation).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{
			"constraint": string(kind),
			"detail":     err.Error(),
		})
}

// ConstraintOf reports the constraint kind behind err, ConstraintNone when
// err is not a constraint violation
func ConstraintOf(err error) ConstraintKind {
	if err == nil {
		return ConstraintNone
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeConstraintViolation {
		if kind, ok := richErr.Metadata["constraint"].(string); ok {
			return ConstraintKind(kind)
		}
	}

	return classifyDriverError(err)
}

// ConstraintDetail returns the driver message behind a constraint violation
func ConstraintDetail(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeConstraintViolation {
		if detail, ok := richErr.Metadata["detail"].(string); ok {
			return detail
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// classifyConstraint wraps driver constraint errors, other errors pass
// through untouched
func classifyConstraint(err error) error {
	if err == nil {
		return nil
	}
	if kind := classifyDriverError(err); kind != ConstraintNone {
		return newConstraintViolation(err, kind)
	}
	return err
}

func classifyDriverError(err error) ConstraintKind {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return ConstraintUnique
		case sqlite3lib.SQLITE_CONSTRAINT_CHECK:
			return ConstraintCheck
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ConstraintForeignKey
		case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return ConstraintNotNull
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ConstraintUnique
		case "23514":
			return ConstraintCheck
		case "23503":
			return ConstraintForeignKey
		case "23502":
			return ConstraintNotNull
		}
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "unique constraint failed"),
		strings.Contains(message, "duplicate key value"):
		return ConstraintUnique
	case strings.Contains(message, "check constraint failed"),
		strings.Contains(message, "violates check constraint"):
		return ConstraintCheck
	case strings.Contains(message, "foreign key constraint failed"),
		strings.Contains(message, "violates foreign key constraint"):
		return ConstraintForeignKey
	case strings.Contains(message, "not null constraint failed"),
		strings.Contains(message, "violates not-null constraint"):
		return ConstraintNotNull
	}

	return ConstraintNone
}
