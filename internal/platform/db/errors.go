package db

import (
	"errors"

	"modernc.org/sqlite"
)

// SQLite extended result codes for constraint failures.
const (
	codeConstraint           = 19
	codeConstraintForeignKey = 787
	codeConstraintUnique     = 2067
)

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == codeConstraintUnique
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint
// failure, e.g. inserting a child row for a parent that does not exist.
func IsForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == codeConstraintForeignKey || se.Code() == codeConstraint
}
