// Package errors provides the unified error type used throughout the IRAE
// platform. Every layer (canonicalizer, providers, resilience, cache,
// aggregator, dual-store writer, orchestrator) returns *AppError when it
// needs to signal a structured failure, so HTTP/gRPC transports and logging
// middleware can render a stable code without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, small error taxonomy. Only the three "surfaced" codes
// (InvalidInput, DeadlineExceeded, Internal) are meant to cross the
// orchestrator's Op1/Op2/Op3 boundary; the provider-local codes are recorded
// on IngredientFact.StatusCode and never returned to callers of those ops.
type Code string

const (
	// CodeInvalidInput: caller-supplied data violates a documented constraint.
	CodeInvalidInput Code = "invalid_input"
	// CodeDeadlineExceeded: the overall resolution budget was exhausted.
	CodeDeadlineExceeded Code = "deadline_exceeded"
	// CodeInternal: the primary store is unreachable or data is corrupt.
	CodeInternal Code = "internal_error"

	// Provider-local failure classes. These never propagate past the
	// Resilience Layer as Go errors returned to a caller; they are encoded
	// into IngredientFact.StatusCode instead.
	CodeRateLimited  Code = "rate_limited"
	CodeBulkheadFull Code = "bulkhead_full"
	CodeBreakerOpen  Code = "breaker_open"
	CodeTimeout      Code = "timeout"
	CodeParseError   Code = "parse_error"
	CodeUpstream4xx  Code = "upstream_4xx"
	CodeUpstream5xx  Code = "upstream_5xx"
	CodeConnReset    Code = "connection_reset"
)

// AppError is the structured error carrier used across the platform. It
// implements Unwrap so errors.Is/errors.As work transparently.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// New constructs an AppError with no underlying cause.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap constructs an AppError that chains err as its cause. Returns nil if
// err is nil so it can be used inline: `return errors.Wrap(repo.Save(...), ...)`.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Is reports whether err's chain contains an *AppError with the given code.
func Is(err error, code Code) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the Code from the first AppError in err's chain, or
// CodeInternal if err is a plain error, or "" if err is nil.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsTransient reports whether code names a failure class the Resilience
// Layer's retry policy is allowed to retry (§4.3: timeout, 5xx, connection
// reset). Every other code is not retried, including 4xx, rate_limited
// (429), parse errors, breaker_open and bulkhead_full.
func IsTransient(code Code) bool {
	switch code {
	case CodeTimeout, CodeUpstream5xx, CodeConnReset:
		return true
	default:
		return false
	}
}
