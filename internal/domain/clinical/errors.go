package clinical

import "errors"

var (
	// ErrNotFound is returned when no exam, intervention or attachment
	// exists for the given id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalid wraps validation failures caught before the store is
	// touched.
	ErrInvalid = errors.New("invalid record")
)
