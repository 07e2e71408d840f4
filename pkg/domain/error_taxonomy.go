package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the caller-facing error taxonomy of the command engine (see the
// system's error taxonomy spec). Every error that crosses the command-engine
// boundary is classified into exactly one kind.
type ErrorKind string

const (
	KindInvalidArgument    ErrorKind = "InvalidArgument"
	KindNotFound           ErrorKind = "NotFound"
	KindAlreadyExists      ErrorKind = "AlreadyExists"
	KindFailedPrecondition ErrorKind = "FailedPrecondition"
	KindUnauthenticated    ErrorKind = "Unauthenticated"
	KindPermissionDenied   ErrorKind = "PermissionDenied"
	KindConcurrencyConflict ErrorKind = "ConcurrencyConflict"
	KindUnavailable        ErrorKind = "Unavailable"
	KindInternal           ErrorKind = "Internal"
)

// TaxonomyError is a classified, caller-facing error. Code is a stable domain
// code (e.g. "USER-HUMAN-001") kept separately from the human-readable message so
// it can be localized or documented without touching call sites.
type TaxonomyError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
}

func (e *TaxonomyError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *TaxonomyError) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, &TaxonomyError{Kind: KindNotFound}) style matching on Kind.
func (e *TaxonomyError) Is(target error) bool {
	t, ok := target.(*TaxonomyError)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return true
}

func newTaxonomyError(kind ErrorKind, code, message string, cause error) *TaxonomyError {
	return &TaxonomyError{Kind: kind, Code: code, Message: message, Cause: cause}
}

func NewInvalidArgument(code, message string) *TaxonomyError {
	return newTaxonomyError(KindInvalidArgument, code, message, nil)
}

func NewNotFound(code, message string) *TaxonomyError {
	return newTaxonomyError(KindNotFound, code, message, nil)
}

func NewAlreadyExists(code, message string) *TaxonomyError {
	return newTaxonomyError(KindAlreadyExists, code, message, nil)
}

func NewFailedPrecondition(code, message string) *TaxonomyError {
	return newTaxonomyError(KindFailedPrecondition, code, message, nil)
}

func NewUnauthenticated(code, message string) *TaxonomyError {
	return newTaxonomyError(KindUnauthenticated, code, message, nil)
}

func NewPermissionDenied(code, message string) *TaxonomyError {
	return newTaxonomyError(KindPermissionDenied, code, message, nil)
}

func NewConcurrencyConflict(code, message string, cause error) *TaxonomyError {
	return newTaxonomyError(KindConcurrencyConflict, code, message, cause)
}

func NewUnavailable(code, message string, cause error) *TaxonomyError {
	return newTaxonomyError(KindUnavailable, code, message, cause)
}

func NewInternal(code, message string, cause error) *TaxonomyError {
	return newTaxonomyError(KindInternal, code, message, cause)
}

// KindOf extracts the ErrorKind of err if it (or something it wraps) is a
// *TaxonomyError, defaulting to KindInternal for anything else.
func KindOf(err error) ErrorKind {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}
