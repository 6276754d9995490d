// Package assemble implements the Assembler interface.
// It merges the snapshot's head and body metadata with the classified
// sections into one LayoutDocument, in partition order.
package assemble

import (
	"html"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
)

// GeneratedBy is recorded in the meta block of every layout.
const GeneratedBy = "layoutpipe"

// ErrorSectionID identifies the single section of an error layout.
const ErrorSectionID = "error"

// LayoutAssembler builds layout documents.
type LayoutAssembler struct {
	vocab *vocab.Table
}

// New creates a LayoutAssembler. A nil table uses vocab.Default().
func New(tbl *vocab.Table) *LayoutAssembler {
	if tbl == nil {
		tbl = vocab.Default()
	}
	return &LayoutAssembler{vocab: tbl}
}

// Assemble returns the layout of cands. A candidate without a result gets
// the vocabulary fallback so that no section is dropped.
func (a *LayoutAssembler) Assemble(snap *core.Snapshot, cands []core.Candidate, results map[string]core.Result, job core.Job) *core.LayoutDocument {
	sections := make([]core.LayoutSection, 0, len(cands))
	for _, c := range cands {
		res, ok := results[c.ID]
		if !ok {
			res = a.vocab.Fallback(job.Builder)
		}
		builder := res.Builder
		if builder == nil {
			builder = map[string]core.Module{}
		}
		sections = append(sections, core.LayoutSection{
			ID:      c.ID,
			Class:   ClassName(c.ID, res.SemanticType),
			HTML:    sectionHTML(c, res),
			Type:    res.SemanticType,
			Builder: builder,
		})
	}

	title := firstNonEmpty(job.Title, snap.Title)
	slug := job.Slug
	if slug == "" {
		slug = core.Slugify(title)
	}

	return &core.LayoutDocument{
		HeadHTML:  HeadHTML(snap.HeadMarkup, snap.CSSText),
		BodyClass: BodyClass(snap.Framework, snap.BodyClass),
		Sections:  sections,
		Meta: &core.LayoutMeta{
			Title:       title,
			Slug:        slug,
			Builder:     job.Builder,
			Framework:   string(snap.Framework),
			GeneratedBy: GeneratedBy,
		},
	}
}

// sectionHTML prefers the classifier's markup, then the static
// approximation, then the raw source.
func sectionHTML(c core.Candidate, res core.Result) string {
	return firstNonEmpty(res.NormalizedMarkup, c.StaticMarkup, c.RawMarkup)
}

// ClassName is the stable CSS class list of a section.
func ClassName(id, semanticType string) string {
	t := core.Slugify(semanticType)
	if t == "" {
		t = "generic"
	}
	return "glb-section glb-section--" + t + " glb-section-" + core.Slugify(id)
}

// BodyClass combines the layout classes with the class of the source shell.
func BodyClass(fw core.Framework, shellClass string) string {
	if fw == "" {
		fw = core.FrameworkUnknown
	}
	return strings.TrimSpace("glb-layout glb-fw-" + string(fw) + " " + strings.TrimSpace(shellClass))
}

// HeadHTML appends the application style sheets to the shell head markup.
func HeadHTML(headMarkup, css string) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(headMarkup); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(css); s != "" {
		// A literal end tag would close the element early.
		s = strings.ReplaceAll(s, "</style", `<\/style`)
		parts = append(parts, `<style data-glb="app">`+"\n"+s+"\n</style>")
	}
	return strings.Join(parts, "\n")
}

// ErrorLayout is a layout with one visible text section describing msg. It
// stands in for a layout that could not be produced.
func ErrorLayout(builder, msg string) *core.LayoutDocument {
	return &core.LayoutDocument{
		BodyClass: "glb-layout glb-error",
		Sections: []core.LayoutSection{{
			ID:    ErrorSectionID,
			Class: ClassName(ErrorSectionID, ErrorSectionID),
			HTML:  `<section class="glb-error"><p>` + html.EscapeString(msg) + `</p></section>`,
			Type:  ErrorSectionID,
			Builder: map[string]core.Module{
				builder: {ModuleType: "text", Params: map[string]any{"text": msg}},
			},
		}},
		Meta: &core.LayoutMeta{Builder: builder, GeneratedBy: GeneratedBy},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
