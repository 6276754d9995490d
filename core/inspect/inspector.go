// Package inspect implements the Inspector interface.
// It walks an extracted application directory, decides its framework shape
// and collects the entry content, component sources, style sheets and the
// metadata of the HTML shell.
//
// Detection order is fixed and first-match-wins: Angular template, React
// component sources, static entry HTML, unknown. Framework signals come
// before the generic index.html because SPA projects ship one as a shell.
package inspect

import (
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/go-shiori/go-readability"
)

// headMatcher selects the shell head elements worth injecting into a builder page.
var headMatcher = cascadia.MustCompile(
	`meta[name]:not([name="viewport"]), meta[property], link[rel="stylesheet"], link[rel="preconnect"], style`,
)

// SourceInspector reads application trees from disk. It never writes.
type SourceInspector struct {
	logger *slog.Logger
}

// New creates a SourceInspector. A nil logger uses slog.Default().
func New(logger *slog.Logger) *SourceInspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceInspector{logger: logger}
}

// Inspect builds a Snapshot of dir. A missing or unreadable directory yields
// an unknown snapshot with no content rather than an error.
func (i *SourceInspector) Inspect(dir string) *core.Snapshot {
	snap := &core.Snapshot{Root: dir, Framework: core.FrameworkUnknown}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		i.logger.Warn("application directory not readable", "dir", dir, "error", err)
		return snap
	}

	components, css := i.walk(dir)
	snap.CSSText = css

	shellPath, shell := readFirst(dir, shellCandidates)
	if shell != "" {
		i.applyShell(snap, shellPath, shell)
	}

	// 1. Angular root template.
	if rel, content := readFirst(dir, angularTemplates); rel != "" {
		snap.Framework = core.FrameworkAngular
		snap.EntryPath = rel
		snap.RawContent = content
		i.logger.Debug("detected framework", "framework", snap.Framework, "entry", rel)
		return snap
	}

	// 2. React component sources.
	if len(components) > 0 {
		snap.Framework = core.FrameworkReact
		snap.Files = components
		if rel, content := readFirst(dir, reactEntries); rel != "" {
			snap.EntryPath, snap.RawContent = rel, content
		} else if rel, content := readFirst(dir, reactBootstraps); rel != "" {
			snap.EntryPath, snap.RawContent = rel, content
		}
		i.logger.Debug("detected framework", "framework", snap.Framework,
			"entry", snap.EntryPath, "components", len(components))
		return snap
	}

	// 3. Static entry HTML.
	if shell != "" {
		snap.Framework = core.FrameworkStatic
		snap.EntryPath = shellPath
		snap.RawContent = shell
		i.logger.Debug("detected framework", "framework", snap.Framework, "entry", shellPath)
		return snap
	}

	i.logger.Debug("no framework detected", "dir", dir)
	return snap
}

// walk collects component sources and concatenated CSS in lexical walk order.
func (i *SourceInspector) walk(root string) ([]core.SourceFile, string) {
	var components []core.SourceFile
	var css strings.Builder

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			i.logger.Debug("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && IsSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		switch {
		case IsComponentSource(rel):
			data, readErr := os.ReadFile(p)
			if readErr != nil {
				i.logger.Debug("skipping unreadable component", "path", rel, "error", readErr)
				return nil
			}
			components = append(components, core.SourceFile{RelPath: rel, Content: string(data)})
		case IsStyleSheet(rel):
			data, readErr := os.ReadFile(p)
			if readErr != nil {
				return nil
			}
			if css.Len() > 0 {
				css.WriteString("\n")
			}
			css.WriteString("/* " + rel + " */\n")
			css.Write(data)
		}
		return nil
	})
	if err != nil {
		i.logger.Warn("walking application tree", "dir", root, "error", err)
	}

	return components, css.String()
}

// applyShell copies head markup, body class, title and description from the
// HTML shell into the snapshot.
func (i *SourceInspector) applyShell(snap *core.Snapshot, rel, shell string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(shell))
	if err != nil {
		i.logger.Debug("parsing HTML shell", "path", rel, "error", err)
		return
	}

	var head []string
	doc.Find("head").FindMatcher(headMatcher).Each(func(_ int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			head = append(head, h)
		}
	})
	snap.HeadMarkup = strings.Join(head, "\n")

	if class, ok := doc.Find("body").Attr("class"); ok {
		snap.BodyClass = strings.TrimSpace(class)
	}
	snap.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		snap.Description = strings.TrimSpace(desc)
	}

	if snap.Title != "" && snap.Description != "" {
		return
	}

	// Readability finds a title and excerpt in shells that lack the tags.
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(snap.Root, rel))}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(shell), pageURL)
	if err != nil {
		i.logger.Debug("readability found no article", "path", rel, "error", err)
		return
	}
	if snap.Title == "" {
		snap.Title = strings.TrimSpace(article.Title)
	}
	if snap.Description == "" {
		snap.Description = strings.TrimSpace(article.Excerpt)
	}
}

// readFirst returns the first candidate path under root that can be read.
func readFirst(root string, candidates []string) (string, string) {
	for _, rel := range candidates {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err == nil {
			return rel, string(data)
		}
	}
	return "", ""
}
