package jsonapi

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument is matched by every [MalformedDocumentError] through
// errors.Is.
var ErrMalformedDocument = errors.New("malformed JSON:API document")

// MalformedDocumentError reports a structural problem with a document that
// the transform pipeline depends on, such as a missing top-level data member.
type MalformedDocumentError struct {
	Reason string
}

// Malformed builds a MalformedDocumentError from a format string.
func Malformed(format string, args ...any) *MalformedDocumentError {
	return &MalformedDocumentError{Reason: fmt.Sprintf(format, args...)}
}

func (e *MalformedDocumentError) Error() string {
	return "malformed document: " + e.Reason
}

// Is reports whether target is [ErrMalformedDocument].
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// ErrorObject is an entry of a top-level errors array.
type ErrorObject struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status,omitempty"`
	Code   string         `json:"code,omitempty"`
	Title  string         `json:"title,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Source map[string]any `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// String returns the most descriptive message available.
func (e ErrorObject) String() string {
	switch {
	case e.Title != "" && e.Detail != "":
		return e.Title + ": " + e.Detail
	case e.Detail != "":
		return e.Detail
	case e.Title != "":
		return e.Title
	case e.Code != "":
		return e.Code
	}
	return "status " + e.Status
}
