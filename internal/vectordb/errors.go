package vectordb

import "errors"

var (
	// ErrEmptyInput is returned when an index is built from no records.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidInput covers malformed names, records and vectors.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResourceUnavailable covers missing artifacts and embedding failures.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrInvariantViolation is returned when an index and its metadata
	// sidecar disagree.
	ErrInvariantViolation = errors.New("invariant violation")
)
