// Package apperr is the closed error taxonomy shared by every layer of the
// interaction pipeline: providers, cache stores, the orchestrator, and the
// thin HTTP transport that sits in front of it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a closed enumeration of error categories, not Go types — callers
// switch on Kind rather than using type assertions.
type Kind string

const (
	KindInvalidInput      Kind = "InvalidInput"
	KindTimeout           Kind = "Timeout"
	KindTransportError    Kind = "TransportError"
	KindParseError        Kind = "ParseError"
	KindMissingCredential Kind = "MissingCredential"
	KindNotFound          Kind = "NotFound"
	KindCacheFailure      Kind = "CacheFailure"
	KindInternal          Kind = "Internal"
)

// Error is the single error type used across the pipeline.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Operation string
	Resource  string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Builder provides the teacher's fluent error-construction style, trimmed
// to the fields this pipeline actually consumes.
type Builder struct {
	err *Error
}

// New starts building an error of the given kind.
func New(kind Kind, code, message string) *Builder {
	return &Builder{err: &Error{Kind: kind, Code: code, Message: message}}
}

func (b *Builder) WithOperation(op string) *Builder   { b.err.Operation = op; return b }
func (b *Builder) WithResource(res string) *Builder    { b.err.Resource = res; return b }
func (b *Builder) WithRetryable(r bool) *Builder       { b.err.Retryable = r; return b }
func (b *Builder) WithCause(err error) *Builder        { b.err.Cause = err; return b }
func (b *Builder) Build() *Error                       { return b.err }

// Convenience constructors mirroring the taxonomy in spec §7.

func InvalidInput(code, message string) *Builder {
	return New(KindInvalidInput, code, message).WithRetryable(false)
}

func Timeout(code, message string) *Builder {
	return New(KindTimeout, code, message).WithRetryable(true)
}

func Transport(code, message string) *Builder {
	return New(KindTransportError, code, message).WithRetryable(true)
}

func Parse(code, message string) *Builder {
	return New(KindParseError, code, message).WithRetryable(false)
}

func MissingCredential(code, message string) *Builder {
	return New(KindMissingCredential, code, message).WithRetryable(false)
}

func NotFound(code, message string) *Builder {
	return New(KindNotFound, code, message).WithRetryable(false)
}

func CacheFailure(code, message string) *Builder {
	return New(KindCacheFailure, code, message).WithRetryable(true)
}

func Internal(code, message string) *Builder {
	return New(KindInternal, code, message).WithRetryable(false)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err, if an *Error, is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// KindOf returns the Kind of err if it is an *Error, or KindInternal
// otherwise — used when classifying an opaque error from a third-party
// client (e.g. net/http) for the debug trace.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
