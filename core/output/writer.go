// Package output writes rendered layout proofs to disk.
// Filenames come from the layout slug, falling back to the job id
// (e.g. landing-page.json, job-42.pdf).
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// defaultName is used when neither slug nor job id yields a usable name.
const defaultName = "layout"

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{OutputDir: outputDir}, nil
}

// Write stores data as <name><ext> and returns the written path.
func (w *Writer) Write(name string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, FileName(name)+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// WriteProof renders doc with r and writes it under name.
func (w *Writer) WriteProof(name string, doc *core.LayoutDocument, r core.Renderer) (string, error) {
	data, err := r.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return w.Write(name, data, r.Extension())
}

// ProofName picks the file stem for a layout: the meta slug when present,
// otherwise the job id.
func ProofName(doc *core.LayoutDocument, jobID string) string {
	if doc != nil && doc.Meta != nil && doc.Meta.Slug != "" {
		return doc.Meta.Slug
	}
	return jobID
}

// FileName reduces name to a flat, lowercase file stem.
// Example: "../Jobs/42" → "jobs-42".
func FileName(name string) string {
	if s := core.Slugify(name); s != "" {
		return s
	}
	return defaultName
}
