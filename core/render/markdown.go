// Package render: Markdown renderer.
// One heading per section followed by its builder modules and the section
// HTML converted with html-to-markdown.
package render

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

var errNilDocument = errors.New("render: nil layout document")

// MarkdownRenderer produces a readable proof of a layout.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render converts every section of doc, in order.
func (r *MarkdownRenderer) Render(doc *core.LayoutDocument) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}
	var b strings.Builder

	title := "Layout"
	if doc.Meta != nil && doc.Meta.Title != "" {
		title = doc.Meta.Title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if doc.Meta != nil {
		if doc.Meta.Framework != "" {
			fmt.Fprintf(&b, "- Framework: %s\n", doc.Meta.Framework)
		}
		if doc.Meta.Builder != "" {
			fmt.Fprintf(&b, "- Builder: %s\n", doc.Meta.Builder)
		}
		if doc.Meta.Slug != "" {
			fmt.Fprintf(&b, "- Slug: %s\n", doc.Meta.Slug)
		}
	}
	fmt.Fprintf(&b, "- Sections: %d\n", len(doc.Sections))

	for i, s := range doc.Sections {
		fmt.Fprintf(&b, "\n## %d. %s (%s)\n\n", i+1, s.ID, s.Type)
		for _, name := range slices.Sorted(maps.Keys(s.Builder)) {
			fmt.Fprintf(&b, "- Module (%s): `%s`\n", name, s.Builder[name].ModuleType)
		}

		body, err := htmltomarkdown.ConvertString(s.HTML)
		if err != nil {
			return nil, fmt.Errorf("converting section %s: %w", s.ID, err)
		}
		if body = strings.TrimSpace(body); body != "" {
			b.WriteString("\n")
			b.WriteString(body)
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
