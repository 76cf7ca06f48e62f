package patients

import "errors"

var (
	// ErrMissingIdentifier is returned for a source record with no
	// patient identifier after normalization and defaulting.
	ErrMissingIdentifier = errors.New("patient record has no identifier")

	// ErrPatientNotFound is returned by lookups that miss.
	ErrPatientNotFound = errors.New("patient not found")
)
