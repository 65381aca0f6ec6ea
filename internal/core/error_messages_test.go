package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "format error",
			err:         &FormatError{Reason: "header has fewer than 3 columns"},
			wantCode:    "FMT001",
			wantMessage: "This file is not a recognized logbook (header has fewer than 3 columns)",
		},
		{
			name:        "missing fields uses labels",
			err:         &MissingFieldsError{Fields: []Field{FieldAircraftType, FieldTotalTime}},
			wantCode:    "MAP001",
			wantMessage: "Required fields are not mapped: Aircraft Type, Total Time",
		},
		{
			name:        "wrapped partial failure",
			err:         fmt.Errorf("commit: %w", &PartialImportFailure{Success: 8, Failed: 2}),
			wantCode:    "IMP004",
			wantMessage: "8 flights imported, 2 failed",
		},
		{
			name:        "schema mismatch",
			err:         &SchemaMismatchError{Columns: []Field{FieldHolds}},
			wantCode:    "IMP005",
			wantMessage: "The logbook does not support some columns",
		},
		{
			name:        "session not found",
			err:         fmt.Errorf("%w: abc", ErrSessionNotFound),
			wantCode:    "IMP001",
			wantMessage: "Import session not found",
		},
		{
			name:        "too many imports",
			err:         ErrTooManyImports,
			wantCode:    "UPL001",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "mapped column missing",
			err:         errors.New(`column not found: "Tail"`),
			wantCode:    "MAP002",
			wantMessage: "A mapped column is not in the file",
		},
		{
			name:        "duplicate key",
			err:         errors.New("ERROR: duplicate key value violates unique constraint \"flights_pkey\""),
			wantCode:    "DB001",
			wantMessage: "This flight already exists",
		},
		{
			name:        "sqlite busy",
			err:         errors.New("database is locked (5) (SQLITE_BUSY)"),
			wantCode:    "DB003",
			wantMessage: "Database was busy with conflicting operations",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("read logbook: %w", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size",
		},
		{
			name:        "empty file",
			err:         ErrEmptyFile,
			wantCode:    "FILE004",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "deadline before generic timeout",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "UPL003",
			wantMessage: "Request timed out",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "This flight already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNothingToImport)
	want := "There are no valid flights to import (Code: IMP003). Fix the reported problems and upload again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("unexpected EOF in frobnicator"), false},
		{ErrInvalidTransition, true},
		{&FieldValidationError{Row: 0, Field: FieldDate, Message: "invalid date"}, true},
	}

	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
