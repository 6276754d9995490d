// Package partition implements the Partitioner interface.
// It splits an application snapshot into an ordered list of section
// candidates (containers such as <main> are looked through when they hold
// sectioning elements):
//   - angular: top-level sectioning elements of the root template
//   - react: one candidate per component source, else sectioning elements of
//     the entry component, else the entry component as a whole
//   - static/unknown: top-level sectioning elements of <body>, else the body
//
// The result is never empty: an empty placeholder stands in for a document
// with no content at all.
package partition

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/inspect"
	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
)

const (
	// RootID identifies the single candidate that covers a whole document.
	RootID = "root"
	// EmptyPlaceholder is the markup of a document with no discoverable content.
	EmptyPlaceholder = `<div class="glb-empty"></div>`
)

// jsxTag detects whether a component source renders any markup at all.
var jsxTag = regexp.MustCompile(`<[A-Za-z][\w.:-]*[\s/>]`)

// SectionPartitioner splits snapshots into candidates.
type SectionPartitioner struct {
	logger   *slog.Logger
	vocab    *vocab.Table
	scanner    *tagScanner
	sections   cascadia.Selector
	tagList    string
	containers map[string]bool
}

// New creates a SectionPartitioner using the sectioning tags and boilerplate
// markers of the vocabulary. A nil table uses vocab.Default().
func New(tbl *vocab.Table, logger *slog.Logger) *SectionPartitioner {
	if tbl == nil {
		tbl = vocab.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	tagList := strings.Join(tbl.SectionTags, ", ")
	containers := make(map[string]bool, len(tbl.ContainerTags))
	for _, tag := range tbl.ContainerTags {
		containers[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	return &SectionPartitioner{
		logger:     logger,
		vocab:      tbl,
		scanner:    newTagScanner(tbl.SectionTags),
		sections:   cascadia.MustCompile(tagList),
		tagList:    tagList,
		containers: containers,
	}
}

// piece is a candidate before ordinals and unique ids are assigned.
type piece struct {
	id     string
	origin string
	raw    string
	kind   core.SourceKind
}

// Partition returns the candidates of snap in source order.
func (p *SectionPartitioner) Partition(snap *core.Snapshot) []core.Candidate {
	var pieces []piece

	switch snap.Framework {
	case core.FrameworkAngular:
		pieces = p.fromText(snap.RawContent, snap.EntryPath, core.SourceMarkup)
	case core.FrameworkReact:
		pieces = p.fromComponents(snap)
	default:
		pieces = p.fromDocument(snap.RawContent, snap.EntryPath)
	}

	if len(pieces) == 0 {
		p.logger.Debug("no content discovered, using placeholder", "framework", snap.Framework)
		pieces = []piece{{id: RootID, origin: snap.EntryPath, raw: EmptyPlaceholder, kind: core.SourceMarkup}}
	}

	return finalize(pieces, snap.Framework)
}

// fromText splits template or JSX text on top-level sectioning tags, falling
// back to the whole text.
func (p *SectionPartitioner) fromText(src, origin string, kind core.SourceKind) []piece {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	spans := p.scanner.expand(src, p.scanner.scan(src), p.containers)
	if len(spans) == 0 {
		return []piece{{id: RootID, origin: origin, raw: src, kind: kind}}
	}
	pieces := make([]piece, 0, len(spans))
	for _, sp := range spans {
		pieces = append(pieces, piece{
			id:     openTagID(sp.openTag),
			origin: fmt.Sprintf("%s:%d", origin, sp.start),
			raw:    src[sp.start:sp.end],
			kind:   kind,
		})
	}
	return pieces
}

// fromComponents makes one piece per UI component file. When no file
// qualifies it falls back to the entry component.
func (p *SectionPartitioner) fromComponents(snap *core.Snapshot) []piece {
	var files []core.SourceFile
	for _, f := range snap.Files {
		switch {
		case inspect.IsEntryFile(f.RelPath) || f.RelPath == snap.EntryPath:
			continue
		case !jsxTag.MatchString(f.Content):
			p.logger.Debug("skipping component without markup", "path", f.RelPath)
			continue
		case p.vocab.IsBoilerplate(f.Content):
			p.logger.Debug("skipping boilerplate component", "path", f.RelPath)
			continue
		}
		files = append(files, f)
	}

	if len(files) == 0 {
		return p.fromText(snap.RawContent, snap.EntryPath, core.SourceComponent)
	}

	stems := make(map[string]int, len(files))
	for _, f := range files {
		stems[componentStem(f.RelPath)]++
	}

	pieces := make([]piece, 0, len(files))
	for _, f := range files {
		id := componentStem(f.RelPath)
		if stems[id] > 1 {
			id = core.Slugify(strings.TrimSuffix(f.RelPath, path.Ext(f.RelPath)))
		}
		pieces = append(pieces, piece{id: id, origin: f.RelPath, raw: f.Content, kind: core.SourceComponent})
	}
	return pieces
}

// fromDocument splits an HTML document on the top-level sectioning elements
// of its body, falling back to the body content.
func (p *SectionPartitioner) fromDocument(src, origin string) []piece {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		p.logger.Debug("parsing document", "path", origin, "error", err)
		return []piece{{id: RootID, origin: origin, raw: src, kind: core.SourceMarkup}}
	}

	body := doc.Find("body")
	var pieces []piece
	body.FindMatcher(p.sections).
		FilterFunction(p.topLevel).
		Each(func(i int, s *goquery.Selection) {
			raw, err := goquery.OuterHtml(s)
			if err != nil {
				return
			}
			id, _ := s.Attr("id")
			pieces = append(pieces, piece{
				id:     strings.TrimSpace(id),
				origin: fmt.Sprintf("%s:%s[%d]", origin, goquery.NodeName(s), i),
				raw:    raw,
				kind:   core.SourceMarkup,
			})
		})
	if len(pieces) > 0 {
		return pieces
	}

	inner, err := body.Html()
	if err != nil || strings.TrimSpace(inner) == "" {
		return nil
	}
	return []piece{{id: RootID, origin: origin, raw: strings.TrimSpace(inner), kind: core.SourceMarkup}}
}

// topLevel keeps sectioning elements whose sectioning ancestors are all
// containers, and drops containers that hold sectioning elements themselves.
func (p *SectionPartitioner) topLevel(_ int, s *goquery.Selection) bool {
	if p.containers[goquery.NodeName(s)] && s.FindMatcher(p.sections).Length() > 0 {
		return false
	}
	outer := true
	s.ParentsFiltered(p.tagList).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		outer = p.containers[goquery.NodeName(a)]
		return outer
	})
	return outer
}

// componentStem names a component after its file; index files take the
// name of their directory.
func componentStem(rel string) string {
	base := path.Base(rel)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if strings.EqualFold(stem, "index") {
		if dir := path.Base(path.Dir(rel)); dir != "." && dir != "/" {
			stem = dir
		}
	}
	return core.Slugify(stem)
}

// finalize assigns ordinals and makes ids unique. Pieces without a stable id
// get one derived from their position.
func finalize(pieces []piece, fw core.Framework) []core.Candidate {
	taken := make(map[string]bool, len(pieces))
	for _, pc := range pieces {
		if pc.id != "" {
			taken[pc.id] = true
		}
	}

	seen := make(map[string]bool, len(pieces))
	cands := make([]core.Candidate, 0, len(pieces))
	for i, pc := range pieces {
		id := pc.id
		if id == "" {
			id = fmt.Sprintf("section-%d", i+1)
			for n := 2; taken[id]; n++ {
				id = fmt.Sprintf("section-%d-%d", i+1, n)
			}
		}
		if seen[id] {
			base := id
			for n := 2; seen[id] || (taken[id] && id != base); n++ {
				id = fmt.Sprintf("%s-%d", base, n)
			}
		}
		seen[id] = true
		taken[id] = true

		cands = append(cands, core.Candidate{
			ID:            id,
			Ordinal:       i,
			Origin:        pc.origin,
			Source:        pc.kind,
			RawMarkup:     pc.raw,
			FrameworkHint: fw,
		})
	}
	return cands
}
