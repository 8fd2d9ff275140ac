package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeInvalidDocument, "missing %s", "data")
	assert.Equal(t, "INVALID_DOCUMENT: missing data", err.Error())
	assert.Nil(t, errors.Unwrap(err))

	cause := errors.New("connection reset")
	wrapped := Wrap(ErrCodeNetwork, cause, "fetch %s", "/articles")
	assert.Equal(t, "NETWORK_ERROR: fetch /articles: connection reset", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
	assert.Same(t, cause, errors.Unwrap(wrapped))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeTooLarge, "x"), ErrCodeTooLarge},
		{"outermost wins", Wrap(ErrCodeExtraction, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeExtraction},
		{"behind fmt wrap", fmt.Errorf("transform: %w", New(ErrCodeTimeout, "x")), ErrCodeTimeout},
		{"code method", &RateLimitedError{RetryAfter: 5}, ErrCodeRateLimited},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
			if tt.want != "" {
				assert.True(t, Is(tt.err, tt.want))
			}
			assert.False(t, Is(tt.err, ErrCodeUnauthorized))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "friendly", UserMessage(Wrap(ErrCodeAPI, errors.New("detail"), "friendly")))
	assert.Equal(t, "plain error", UserMessage(errors.New("plain error")))
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		ErrCodeInvalidDocument: http.StatusBadRequest,
		ErrCodeInvalidFormat:   http.StatusBadRequest,
		ErrCodeUnauthorized:    http.StatusUnauthorized,
		ErrCodeNotFound:        http.StatusNotFound,
		ErrCodeTooLarge:        http.StatusRequestEntityTooLarge,
		ErrCodeExtraction:      http.StatusUnprocessableEntity,
		ErrCodeAPI:             http.StatusUnprocessableEntity,
		ErrCodeRateLimited:     http.StatusTooManyRequests,
		ErrCodeNetwork:         http.StatusBadGateway,
		ErrCodeTimeout:         http.StatusGatewayTimeout,
		ErrCodeInternal:        http.StatusInternalServerError,
		"":                     http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitInterrupted, ExitCode(fmt.Errorf("fetch: %w", context.Canceled)))
	assert.Equal(t, ExitUsage, ExitCode(New(ErrCodeInvalidConfig, "bad")))
	assert.Equal(t, ExitUsage, ExitCode(New(ErrCodeFileNotFound, "missing")))
	assert.Equal(t, ExitUnavailable, ExitCode(&RateLimitedError{}))
	assert.Equal(t, ExitUnavailable, ExitCode(Wrap(ErrCodeNetwork, errors.New("refused"), "dial")))
	assert.Equal(t, ExitFailure, ExitCode(New(ErrCodeExtraction, "rule failed")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("plain")))
}

func TestRateLimitedError(t *testing.T) {
	assert.Equal(t, "rate limited: retry after 60 seconds", (&RateLimitedError{RetryAfter: 60}).Error())
	assert.Equal(t, "rate limited", (&RateLimitedError{}).Error())
}
