// Package render provides local proof renderers for layout documents.
// This file implements the JSON renderer: the exact document the callback
// receives, indented for reading.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// JSONRenderer writes the layout document as indented JSON.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals doc with two-space indentation and a trailing newline.
func (r *JSONRenderer) Render(doc *core.LayoutDocument) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
