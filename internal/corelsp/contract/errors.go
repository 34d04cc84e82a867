package contract

import (
	"errors"
	"fmt"
)

// Code is the stable LSP-facing error code for each taxonomy member in
// spec §7. Values are arbitrary but stable within this module's lifetime.
type Code int

const (
	CodeUnknownDocument Code = iota + 1
	CodeUnsupportedDocumentType
	CodeMismatchedVersion
	CodeBadSource
	CodeCancelled
	CodeInternal
)

// StatusError is the error type every corelsp operation returns when it
// needs to surface a taxonomy member to the handler layer. BadSource and
// Cancelled are swallowed internally per spec §7 and never escape the
// pipeline, but the type is shared so logging can switch on Code.
type StatusError struct {
	Code    Code
	Message string
	// Expected/Actual are populated only for CodeMismatchedVersion.
	Expected int
	Actual   int
}

func (e *StatusError) Error() string { return e.Message }

func ErrUnknownDocument(uri string) error {
	return &StatusError{Code: CodeUnknownDocument, Message: fmt.Sprintf("unknown document: %s", uri)}
}

func ErrUnsupportedDocumentType(uri string) error {
	return &StatusError{Code: CodeUnsupportedDocumentType, Message: fmt.Sprintf("document type does not support this request: %s", uri)}
}

func ErrMismatchedVersion(expected, actual int) error {
	return &StatusError{
		Code:     CodeMismatchedVersion,
		Message:  fmt.Sprintf("mismatched version: expected %d, got %d", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

func ErrBadSource(cause error) error {
	return &StatusError{Code: CodeBadSource, Message: fmt.Sprintf("bad source: %v", cause)}
}

func ErrCancelled() error {
	return &StatusError{Code: CodeCancelled, Message: "cancelled"}
}

func ErrInternal(cause error) error {
	return &StatusError{Code: CodeInternal, Message: fmt.Sprintf("internal error: %v", cause)}
}

// CodeOf extracts the Code from err, if it is (or wraps) a *StatusError.
func CodeOf(err error) (Code, bool) {
	var se *StatusError
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code, true
}
