package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that are recoverable at well-defined
// boundaries. Data loading returns empty results on ErrDataUnavailable,
// statistics omit computations on ErrInsufficientHistory, and query
// filters drop bounds on ErrMalformedDate instead of aborting.
var (
	// ErrDataUnavailable indicates a missing or corrupt source file.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientHistory indicates a window shorter than the minimum
	// required for a statistic.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrMalformedDate indicates a date string that could not be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrInvalidWindow indicates chunking parameters where the overlap
	// is not smaller than the window size.
	ErrInvalidWindow = errors.New("invalid chunk window: overlap must be smaller than chunk size")
)

// ExternalServiceError wraps a failure of an external collaborator
// (embedding service, index backend). Unlike the recoverable sentinels
// above it must surface to the caller: silently returning empty results
// for this class would hide a real outage.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError wraps err as a failure of the named service.
func NewExternalServiceError(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}
