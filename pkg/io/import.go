package io

import (
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/twill/pkg/jsonapi"
)

// ReadDocument decodes a JSON:API document from r.
// ReadDocument does not close r.
func ReadDocument(r io.Reader) (*jsonapi.Document, error) {
	doc, err := jsonapi.DecodeReader(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// ImportDocument reads the JSON:API document stored at path.
func ImportDocument(path string) (*jsonapi.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}
