package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTooManyImports is returned when all commit slots are occupied and the
	// wait timeout expires.
	ErrTooManyImports = errors.New("too many imports in progress, please try again later")

	// ErrSessionNotFound is returned for unknown or expired import sessions.
	ErrSessionNotFound = errors.New("import session not found")

	// ErrInvalidTransition is returned when a wizard step change is not allowed.
	ErrInvalidTransition = errors.New("invalid wizard transition")

	// ErrEmptyFile is returned when a source contains no non-blank rows.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when a source exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNothingToImport is returned when a commit has no accepted records.
	ErrNothingToImport = errors.New("no valid flights to import")
)

// FormatError reports a file whose shape matches no known logbook layout.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "unrecognized logbook format: " + e.Reason
}

// FieldValidationError is a fatal, per-row problem with one field.
type FieldValidationError struct {
	Row     int
	Field   Field
	Value   string
	Message string
}

func (e *FieldValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s (value: %q)", e.Row, e.Field, e.Message, e.Value)
}

// Issue converts the error into a fatal ValidationIssue.
func (e *FieldValidationError) Issue(line int, code string) ValidationIssue {
	return ValidationIssue{
		Row:      e.Row,
		Line:     line,
		Field:    e.Field,
		Code:     code,
		Message:  e.Message,
		Severity: SeverityFatal,
	}
}

// SchemaMismatchError is returned by a FlightStore when the destination
// does not know one or more of the submitted columns.
type SchemaMismatchError struct {
	Columns []Field
	Err     error
}

func (e *SchemaMismatchError) Error() string {
	cols := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = string(c)
	}
	msg := "unknown column: " + strings.Join(cols, ", ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// PartialImportFailure summarises an import in which some rows failed.
type PartialImportFailure struct {
	Success int
	Failed  int
	Errors  []RowError
}

func (e *PartialImportFailure) Error() string {
	return fmt.Sprintf("partial import: %d imported, %d failed", e.Success, e.Failed)
}

// MissingFieldsError blocks preview while required fields are unmapped.
type MissingFieldsError struct {
	Fields []Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return "missing required field mapping: " + strings.Join(names, ", ")
}
