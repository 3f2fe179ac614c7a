package patient

import "errors"

var (
	// ErrNotFound is returned when no patient exists for the given id.
	ErrNotFound = errors.New("patient not found")

	// ErrDuplicatePatientCode is returned when a create or update would
	// reuse a patient code that already belongs to another patient. Callers
	// recover by prompting for a different code.
	ErrDuplicatePatientCode = errors.New("patient code already in use")

	// ErrInvalid wraps validation failures caught before the store is
	// touched.
	ErrInvalid = errors.New("invalid patient")
)
