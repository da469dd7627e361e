// Package apperr defines the error kinds surfaced by the extraction and
// synchronization pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// InputError indicates missing or malformed caller input. No external call
// has been made when it is returned.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// ErrInput creates an InputError with a formatted message.
func ErrInput(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// SchemaExtractionError indicates the model response is not a usable schema.
type SchemaExtractionError struct {
	Message string
	Raw     string
	Err     error
}

func (e *SchemaExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema extraction: %s: %v", e.Message, e.Err)
	}
	return "schema extraction: " + e.Message
}

func (e *SchemaExtractionError) Unwrap() error { return e.Err }

// RowExtractionKind separates a malformed response from one with no rows.
type RowExtractionKind string

const (
	RowsMalformed RowExtractionKind = "malformed"
	RowsEmpty     RowExtractionKind = "empty"
)

var (
	ErrRowsMalformed = errors.New("model did not return a list of rows")
	ErrNoRows        = errors.New("no rows found in the image")
)

// RowExtractionError indicates the model response is not a non-empty list of
// row objects.
type RowExtractionError struct {
	Kind    RowExtractionKind
	Message string
	Raw     string
	Err     error
}

func (e *RowExtractionError) Error() string {
	msg := "row extraction (" + string(e.Kind) + "): " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RowExtractionError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *RowExtractionError) Is(target error) bool {
	switch target {
	case ErrRowsMalformed:
		return e.Kind == RowsMalformed
	case ErrNoRows:
		return e.Kind == RowsEmpty
	}
	return false
}

// ExternalStoreError wraps any failure reported by the tabular store.
type ExternalStoreError struct {
	Op         string
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *ExternalStoreError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("store %s: HTTP %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("store %s: %s", e.Op, msg)
}

func (e *ExternalStoreError) Unwrap() error { return e.Err }

// TransportError indicates the inference service could not be reached or
// answered with a non-success status.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference transport: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
