package port

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrStorage wraps every blob store failure
	ErrStorage = errors.New("storage error")

	// ErrStatusConflict is returned when a compare-and-set status update
	// finds the record in a different status than expected
	ErrStatusConflict = errors.New("status conflict")

	// ErrInvalidInput is returned for rejected uploads and requests
	ErrInvalidInput = errors.New("invalid input")

	// ErrAIUnavailable is returned by AI backends that are not configured
	ErrAIUnavailable = errors.New("ai reviewer unavailable")
)
