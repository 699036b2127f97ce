package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrDocumentNotFound is returned by Store implementations when a document
// does not exist in the requested project partition.
var ErrDocumentNotFound = errors.New("document not found")

// EventTemplateNotFoundError is returned when an event template id does not resolve.
type EventTemplateNotFoundError struct {
	ID uuid.UUID
}

func (e *EventTemplateNotFoundError) Error() string {
	return fmt.Sprintf("event template not found: %s", e.ID)
}

// TraceTemplateNotFoundError is returned when a trace template id does not resolve.
type TraceTemplateNotFoundError struct {
	ID uuid.UUID
}

func (e *TraceTemplateNotFoundError) Error() string {
	return fmt.Sprintf("trace template not found: %s", e.ID)
}

// ParsingError reports any failure while importing a definition or restoring
// a snapshot: I/O, document structure, or domain validation. Message is always
// a complete human-readable description; Err is set when there is an
// underlying cause.
type ParsingError struct {
	Message string
	Err     error
}

func (e *ParsingError) Error() string {
	return e.Message
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

func parsingErrorf(format string, args ...any) *ParsingError {
	return &ParsingError{Message: fmt.Sprintf(format, args...)}
}

func wrapParsingError(prefix string, err error) *ParsingError {
	return &ParsingError{Message: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}

// StorageError reports a failure of the backing Store while loading or saving.
type StorageError struct {
	Op        string // "load" or "save"
	Partition string // project partition key, empty when not partition-specific
	Err       error
}

func (e *StorageError) Error() string {
	if e.Partition == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s project %s: %v", e.Op, e.Partition, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
