package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports input that cannot be clamped to a safe default.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for one field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DataShapeError reports row data that cannot be bound to a template.
type DataShapeError struct {
	Reason string
}

func (e *DataShapeError) Error() string {
	return "invalid row data: " + e.Reason
}

// MissingBindingError lists template data keys left without a column.
type MissingBindingError struct {
	Fields []string
}

func (e *MissingBindingError) Error() string {
	return "unmapped template fields: " + strings.Join(e.Fields, ", ")
}

// CaptureError aborts an export. Page is -1 when the failure is not tied to a page.
type CaptureError struct {
	Stage string
	Page  int
	Err   error
}

func (e *CaptureError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("export failed during %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("export failed during %s of page %d: %v", e.Stage, e.Page+1, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
