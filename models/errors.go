package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can branch without parsing messages.
type Kind string

const (
	KindNoFile                Kind = "NoFile"
	KindEmptyFilename         Kind = "EmptyFilename"
	KindDisallowedType        Kind = "DisallowedType"
	KindFileTooLarge          Kind = "FileTooLarge"
	KindInvalidRequest        Kind = "InvalidRequest"
	KindUnsupportedFormat     Kind = "UnsupportedFormat"
	KindIdenticalFormat       Kind = "IdenticalFormat"
	KindUnsupportedConversion Kind = "UnsupportedConversion"
	KindNoTablesFound         Kind = "NoTablesFound"
	KindConversionFailed      Kind = "ConversionFailed"
)

// Sentinels for errors.Is.
var (
	ErrNoFile                = &Error{Kind: KindNoFile}
	ErrEmptyFilename         = &Error{Kind: KindEmptyFilename}
	ErrDisallowedType        = &Error{Kind: KindDisallowedType}
	ErrFileTooLarge          = &Error{Kind: KindFileTooLarge}
	ErrInvalidRequest        = &Error{Kind: KindInvalidRequest}
	ErrUnsupportedFormat     = &Error{Kind: KindUnsupportedFormat}
	ErrIdenticalFormat       = &Error{Kind: KindIdenticalFormat}
	ErrUnsupportedConversion = &Error{Kind: KindUnsupportedConversion}
	ErrNoTablesFound         = &Error{Kind: KindNoTablesFound}
	ErrConversionFailed      = &Error{Kind: KindConversionFailed}
)

// Status maps a kind to the HTTP status the API answers with.
func (k Kind) Status() int {
	switch k {
	case KindNoFile, KindEmptyFilename, KindDisallowedType, KindFileTooLarge, KindInvalidRequest,
		KindUnsupportedFormat, KindIdenticalFormat, KindUnsupportedConversion:
		return http.StatusBadRequest
	case KindNoTablesFound:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError creates a classified error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Errorf creates a classified error without a cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ConversionFailed wraps a routine failure. Classified errors pass through unchanged.
func ConversionFailed(message string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindConversionFailed, Message: message, Err: err}
}

// KindOf returns the kind of err, or ConversionFailed for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindConversionFailed
}
