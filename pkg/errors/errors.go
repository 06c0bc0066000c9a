// Package errors provides structured error types for ecomap.
//
// Every failure the import, layout, and export stages can surface carries a
// machine-readable [Code] so the CLI and the HTTP API can react without
// string matching:
//
//   - INVALID_FORMAT: the file is neither parseable CSV nor a JSON array
//   - MISSING_FIELD: a row lacks a mapped required field (row is skipped)
//   - MAPPING_INCOMPLETE: required columns were not chosen
//   - NO_VALID_COMPANIES: every data row was skipped
//   - EXPORT_FAILED: image serialization failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMappingIncomplete, "category column is required")
//	if errors.Is(err, errors.ErrCodeMappingIncomplete) {
//	    // keep the confirm action disabled
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "parse %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error class. A Code is itself an error, so
// the standard library matches it against any [*Error] in a chain:
//
//	stderrors.Is(err, errors.ErrCodeNoValidCompanies)
type Code string

func (c Code) Error() string { return string(c) }

const (
	// Import
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeMissingField      Code = "MISSING_FIELD"
	ErrCodeMappingIncomplete Code = "MAPPING_INCOMPLETE"
	ErrCodeNoValidCompanies  Code = "NO_VALID_COMPANIES"

	// Lookup
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeCategoryNotFound Code = "CATEGORY_NOT_FOUND"
	ErrCodeSessionNotFound  Code = "SESSION_NOT_FOUND"

	ErrCodeExportFailed Code = "EXPORT_FAILED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
)

// Error carries a code, a message meant for users and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches a bare [Code] target.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any error in err's chain has code.
func Is(err error, code Code) bool { return errors.Is(err, code) }

// GetCode returns the code of the outermost [*Error] in err's chain, or
// "" when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage strips the code prefix and cause from coded errors. Other
// errors are returned as printed.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// List collects problems that did not abort an operation, such as skipped
// import rows.
type List []*Error

func (l List) Messages() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Message
	}
	return out
}

// Err joins the list into one error, or returns nil when it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errors.Join(errs...)
}
