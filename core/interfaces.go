// Package core defines the pipeline types and interfaces for layoutpipe.
// Each stage of the pipeline is a clean, testable interface.
package core

import "context"

// Framework identifies the structural shape of an application source tree.
type Framework string

const (
	FrameworkAngular Framework = "angular"
	FrameworkReact   Framework = "react"
	FrameworkStatic  Framework = "static"
	FrameworkUnknown Framework = "unknown"
)

// SourceFile is one component source file found under the application root.
type SourceFile struct {
	RelPath string
	Content string
}

// Snapshot is a read-only view of one application source tree.
type Snapshot struct {
	Root      string
	Framework Framework
	// RawContent is the full text of the entry template or component.
	RawContent string
	EntryPath  string
	// Files holds component sources in walk order (react only).
	Files   []SourceFile
	CSSText string

	// Taken from the HTML shell when one exists.
	HeadMarkup  string
	BodyClass   string
	Title       string
	Description string
}

// SourceKind tells the normalizer what kind of text a candidate holds.
type SourceKind string

const (
	SourceMarkup    SourceKind = "markup"
	SourceComponent SourceKind = "component"
)

// Candidate is one content unit extracted from the source application.
type Candidate struct {
	ID      string
	Ordinal int
	// Origin locates the candidate in the source (file path or tag span).
	Origin        string
	Source        SourceKind
	RawMarkup     string
	PlainText     string
	StaticMarkup  string
	FrameworkHint Framework
}

// Module is a builder-specific module descriptor.
type Module struct {
	ModuleType string         `json:"module_type" yaml:"module_type"`
	Params     map[string]any `json:"params" yaml:"params"`
}

// Provenance records which stage produced a Result.
type Provenance string

const (
	ProvenanceClassifier Provenance = "classifier"
	ProvenanceHeuristic  Provenance = "heuristic"
	ProvenanceFallback   Provenance = "fallback"
)

// Result is the classification attached to exactly one Candidate.
type Result struct {
	SemanticType     string
	Builder          map[string]Module
	NormalizedMarkup string
	Provenance       Provenance
}

// Outcome is what the classification bridge decodes from a backend response.
// It is either Classified or Unclassified.
type Outcome interface {
	outcome()
}

// Classified is a usable classifier answer.
type Classified struct {
	SemanticType     string
	Builder          map[string]Module
	NormalizedMarkup string
}

// Unclassified means the classifier had no usable opinion.
type Unclassified struct {
	Reason string
}

func (Classified) outcome()   {}
func (Unclassified) outcome() {}

// LayoutSection is one finalized section record of a LayoutDocument.
type LayoutSection struct {
	ID      string            `json:"id"`
	Class   string            `json:"class"`
	HTML    string            `json:"html"`
	Type    string            `json:"type"`
	Builder map[string]Module `json:"builder"`
}

// LayoutMeta holds optional document-level metadata.
type LayoutMeta struct {
	Title       string `json:"title,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Builder     string `json:"builder,omitempty"`
	Framework   string `json:"framework,omitempty"`
	GeneratedBy string `json:"generated_by,omitempty"`
}

// LayoutDocument is the builder-agnostic artifact delivered to the callback.
type LayoutDocument struct {
	HeadHTML  string          `json:"head_html"`
	BodyClass string          `json:"body_class"`
	Sections  []LayoutSection `json:"sections"`
	Meta      *LayoutMeta     `json:"meta,omitempty"`
}

// Job identifies one conversion request.
type Job struct {
	ID          string
	Secret      string
	CallbackURL string
	Builder     string
	Title       string
	Slug        string
}

// PageContext is the document-level hint sent to the classifier with every section.
type PageContext struct {
	Framework    Framework `json:"framework"`
	PageTitle    string    `json:"pageTitle"`
	SectionIndex int       `json:"sectionIndex"`
	SectionCount int       `json:"sectionCount"`
	Builder      string    `json:"builder"`
}

// Inspector builds a Snapshot from an application directory.
type Inspector interface {
	Inspect(dir string) *Snapshot
}

// Partitioner splits a Snapshot into ordered section candidates.
type Partitioner interface {
	Partition(snap *Snapshot) []Candidate
}

// Normalizer reduces raw markup or component source to classifiable text and
// an approximate static HTML fragment.
type Normalizer interface {
	Normalize(raw string, kind SourceKind) (plainText, staticMarkup string)
}

// Classifier assigns a Result to every candidate, keyed by candidate id.
// It never fails: missing answers are filled with fallbacks.
type Classifier interface {
	Classify(ctx context.Context, cands []Candidate, page PageContext) map[string]Result
}

// Validator vetoes implausible classifier output.
type Validator interface {
	Validate(cand Candidate, res Result) Result
}

// Assembler merges snapshot metadata and finalized candidates into a LayoutDocument.
type Assembler interface {
	Assemble(snap *Snapshot, cands []Candidate, results map[string]Result, job Job) *LayoutDocument
}

// Deliverer transmits the finished layout, or a terminal error, to the job callback.
type Deliverer interface {
	Deliver(ctx context.Context, job Job, doc *LayoutDocument) error
	Fail(ctx context.Context, job Job, cause error) error
}

// Renderer converts a LayoutDocument into a local proof format.
type Renderer interface {
	Render(doc *LayoutDocument) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
