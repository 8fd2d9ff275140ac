package jsonapi

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Decode parses a JSON:API document from b.
//
// Decode only enforces JSON well-formedness and the shapes of the members it
// reads. A missing data member is not a decoding error; it is reported by the
// normalizer as a [MalformedDocumentError].
func Decode(b []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// DecodeReader reads r to EOF and parses the result with [Decode].
func DecodeReader(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(b)
}
