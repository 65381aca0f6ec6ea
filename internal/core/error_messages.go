package core

// error_messages.go maps technical errors to user-facing messages with
// codes that users can quote to support.
//
// # Error Codes Reference
//
//	FMT001  Unrecognized logbook format
//	MAP001  Required fields are not mapped
//	MAP002  Mapped column not found in file
//	MAP003  Unknown or derived canonical field
//	IMP001  Import session not found or expired
//	IMP002  Step not allowed from the current wizard step
//	IMP003  Nothing to import
//	IMP004  Some rows failed to import
//	IMP005  Destination rejected unknown columns
//	VAL001  Invalid date
//	VAL002  Invalid number
//	VAL003  Required field empty
//	VAL004  Required column missing
//	DB001   Duplicate flight
//	DB002   Database unavailable
//	DB003   Database busy
//	FILE001 File too large
//	FILE002 Not a valid CSV or spreadsheet
//	FILE003 No file provided
//	FILE004 Empty file
//	UPL001  Too many imports in progress
//	UPL002  Request cancelled
//	UPL003  Request timed out
//	ERR000  Unknown error
//
// Typed errors are matched first with errors.As/Is. Remaining errors are
// matched case-insensitively by substring; the first matching pattern
// wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Mapping
	{"column not found", UserMessage{"A mapped column is not in the file", "Pick columns from the file's header row", "MAP002"}},
	{"unknown field", UserMessage{"Unknown logbook field", "Choose one of the listed logbook fields", "MAP003"}},
	{"cannot be mapped", UserMessage{"This field is calculated automatically", "Map the source columns it is calculated from instead", "MAP003"}},

	// Validation
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD or MM/DD/YYYY", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Use decimal hours (1.5) or H:MM (1:30)", "VAL002"}},
	{"required field", UserMessage{"Required field is empty", "Fill in date, aircraft, airports and total time", "VAL003"}},
	{"missing required column", UserMessage{"Required column is missing", "Check that the file has every required column", "VAL004"}},

	// Database
	{"duplicate key", UserMessage{"This flight already exists", "Remove flights that were imported before", "DB001"}},
	{"unique constraint", UserMessage{"This flight already exists", "Remove flights that were imported before", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB002"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB003"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB003"}},

	// Files
	{"file too large", UserMessage{"File exceeds the maximum size", "Split the logbook into smaller files", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Export the logbook as comma-separated values", "FILE002"}},
	{"invalid spreadsheet", UserMessage{"File is not a valid spreadsheet", "Save the workbook as .xlsx or export it as CSV", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a logbook file", "FILE003"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a logbook with flight rows", "FILE004"}},

	// Requests
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "UPL003"}},
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check the logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

func mapTypedError(err error) (UserMessage, bool) {
	var (
		formatErr   *FormatError
		missingErr  *MissingFieldsError
		partialErr  *PartialImportFailure
		mismatchErr *SchemaMismatchError
		fieldErr    *FieldValidationError
	)

	switch {
	case errors.As(err, &formatErr):
		return UserMessage{
			Message: "This file is not a recognized logbook (" + formatErr.Reason + ")",
			Action:  "Upload a logbook export or a CSV with a header row",
			Code:    "FMT001",
		}, true
	case errors.As(err, &missingErr):
		names := make([]string, len(missingErr.Fields))
		for i, f := range missingErr.Fields {
			if spec, ok := SpecFor(f); ok {
				names[i] = spec.Label
			} else {
				names[i] = string(f)
			}
		}
		return UserMessage{
			Message: "Required fields are not mapped: " + strings.Join(names, ", "),
			Action:  "Map a column to each required field",
			Code:    "MAP001",
		}, true
	case errors.As(err, &partialErr):
		return UserMessage{
			Message: fmt.Sprintf("%d flights imported, %d failed", partialErr.Success, partialErr.Failed),
			Action:  "Review the failed rows below",
			Code:    "IMP004",
		}, true
	case errors.As(err, &mismatchErr):
		return UserMessage{
			Message: "The logbook does not support some columns",
			Action:  "Remove the unsupported columns and try again",
			Code:    "IMP005",
		}, true
	case errors.As(err, &fieldErr):
		return UserMessage{
			Message: fmt.Sprintf("Row %d: %s %s", fieldErr.Row+1, fieldErr.Field, fieldErr.Message),
			Action:  "Correct the value in the file",
			Code:    "VAL002",
		}, true
	case errors.Is(err, ErrSessionNotFound):
		return UserMessage{"Import session not found", "The import may have expired. Please upload the file again", "IMP001"}, true
	case errors.Is(err, ErrInvalidTransition):
		return UserMessage{"That step is not available right now", "Finish the current step first", "IMP002"}, true
	case errors.Is(err, ErrNothingToImport):
		return UserMessage{"There are no valid flights to import", "Fix the reported problems and upload again", "IMP003"}, true
	case errors.Is(err, ErrTooManyImports):
		return UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "UPL001"}, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
