// Package errors defines the coded errors shared by the pipeline, the
// client, the CLI and the HTTP server.
//
// Every failure a caller may want to branch on carries a [Code]:
//
//	err := errors.New(errors.ErrCodeInvalidDocument, "data must be an object, array or null")
//	if errors.Is(err, errors.ErrCodeInvalidDocument) {
//	    // reject the input
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "fetch %s", url)
//
// Codes map to HTTP statuses with [HTTPStatus] and to process exit codes
// with [ExitCode]. Codes group by prefix: INVALID_* for rejected input,
// *NOT_FOUND for missing things, NETWORK_ERROR, TIMEOUT and RATE_LIMITED for
// transport failures, API_ERROR for error documents returned by a server.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	// ErrCodeNoLink means a resource lacks the link needed to follow it.
	ErrCodeNoLink Code = "NO_LINK"

	// ErrCodeAPI wraps a JSON:API errors document.
	ErrCodeAPI Code = "API_ERROR"

	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// ErrCodeTooLarge means a document exceeded a size or resource limit.
	ErrCodeTooLarge Code = "TOO_LARGE"
	// ErrCodeExtraction means an extraction rule failed.
	ErrCodeExtraction Code = "EXTRACTION_FAILED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Process exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitUnavailable = 3
	ExitInterrupted = 130
)

// Error is an error with a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// coder is implemented by error types that carry a fixed code.
type coder interface {
	error
	Code() Code
}

// GetCode returns the code of the outermost coded error in err's chain, or
// "" when there is none.
func GetCode(err error) Code {
	for ; err != nil; err = errors.Unwrap(err) {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
	}
	return ""
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code to the status a server should answer with.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidDocument, ErrCodeInvalidFormat, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeExtraction, ErrCodeAPI, ErrCodeNoLink:
		return http.StatusUnprocessableEntity
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeNetwork:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ExitCode maps err to a process exit code. Input and configuration
// problems exit with ExitUsage, unreachable or failing upstreams with
// ExitUnavailable.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidDocument, ErrCodeInvalidConfig,
		ErrCodeInvalidFormat, ErrCodeInvalidPath, ErrCodeFileNotFound:
		return ExitUsage
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeAPI,
		ErrCodeUnauthorized, ErrCodeForbidden:
		return ExitUnavailable
	}
	return ExitFailure
}

// RateLimitedError is returned when an API answers 429.
type RateLimitedError struct {
	RetryAfter int // seconds, 0 when the server gave no hint
	Message    string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns ErrCodeRateLimited.
func (e *RateLimitedError) Code() Code { return ErrCodeRateLimited }
