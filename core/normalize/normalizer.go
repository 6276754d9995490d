// Package normalize implements the Normalizer interface.
// It reduces raw section source to two forms:
//   - plain text for the classifier, with code, comments and tags removed
//   - an approximate static HTML fragment a page builder can display
//
// Normalization is lossy and never fails. Dynamic content (expressions,
// loops, conditionals) is dropped rather than evaluated.
package normalize

import (
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/extract"
)

var (
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	codeElement  = regexp.MustCompile(`(?is)<(?:script|style)\b[^>]*>.*?</(?:script|style)\s*>`)
	jsxComment   = regexp.MustCompile(`(?s)\{\s*/\*.*?\*/\s*\}`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)(?:^|[^:"'])//[^\n]*`)

	importStmt = regexp.MustCompile(`(?m)^\s*import\s[^\n]*?(?:from\s*)?['"][^'"\n]*['"];?[ \t]*$`)
	importHead = regexp.MustCompile(`(?s)\bimport\s+(?:type\s+)?\{[^}]*\}\s*from\s*['"][^'"]*['"];?`)
	reExport   = regexp.MustCompile(`(?m)^\s*export\s+(?:\*|\{[^}]*\})\s*from\s*['"][^'"]*['"];?[ \t]*$`)
	// declHead removes a declaration up to the first tag on its line, or the
	// whole line when it has none.
	declHead   = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?(?:async\s+)?(?:(?:function|class|interface|enum)\b[\w\s$,]*[({]|(?:const|let|var|type)\s+[\w$\[\]{},\s]+(?::[^=\n]*)?=)[^<\n]*`)
	arrowHead  = regexp.MustCompile(`(?m)^[ \t]*export\s+default\s+(?:async\s+)?\([^)\n]*\)\s*=>[^<\n]*`)
	returnHead = regexp.MustCompile(`(?m)^([ \t]*)return\s*\(?[ \t]*(<|$)`)
	codeOnly   = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+default\s+[\w.]+;?|[(){}\[\];,]+|\)\s*=>\s*\(?)[ \t]*$`)

	interpolation = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	// expression is a brace block without markup. Arrow functions are the one
	// place a '>' may appear.
	expression = regexp.MustCompile(`\{(?:[^{}<>]|=>)*\}`)
	mapHead    = regexp.MustCompile(`\{?\s*[\w.?!]+\.map\(\s*\(?[\w\s,{}]*\)?\s*=>\s*\(?`)
	condHead   = regexp.MustCompile(`\{\s*[\w.!()\s=&|]+(?:&&|\?)\s*\(?`)
	closeTail  = regexp.MustCompile(`>\s*\)*\s*\}`)

	anyTag     = regexp.MustCompile(`<[^<>]*>`)
	strayPunct = regexp.MustCompile(`(?:^|\s)(?:[(){}\[\];,=>.:]+|&&|\|\|)(?:\s|$)`)
)

// TextNormalizer implements core.Normalizer with regular expressions for
// component source and goquery for markup.
type TextNormalizer struct {
	logger  *slog.Logger
	cleaner *extract.HTMLExtractor
}

// New creates a TextNormalizer. A nil logger uses slog.Default().
func New(logger *slog.Logger) *TextNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextNormalizer{logger: logger, cleaner: extract.New()}
}

// Normalize returns the plain text and static markup of raw.
func (n *TextNormalizer) Normalize(raw string, kind core.SourceKind) (string, string) {
	return PlainText(raw), n.staticMarkup(raw, kind)
}

func (n *TextNormalizer) staticMarkup(raw string, kind core.SourceKind) string {
	if kind == core.SourceComponent {
		return Sanitize(ComponentMarkup(raw))
	}
	cleaned, err := n.cleaner.Extract(htmlComment.ReplaceAllString(raw, ""))
	if err != nil {
		n.logger.Debug("cleaning markup", "error", err)
		cleaned = interpolation.ReplaceAllString(raw, "")
	}
	return Sanitize(cleaned)
}

// PlainText strips comments, declarations, code expressions and tags from raw
// and collapses whitespace.
func PlainText(raw string) string {
	s := stripComments(raw)
	s = stripDeclarations(s)
	s = interpolation.ReplaceAllString(s, " ")
	s = mapHead.ReplaceAllString(s, " ")
	s = stripExpressions(s, " ")
	s = anyTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return collapse(stripPunctuation(collapse(s)))
}

func stripComments(s string) string {
	s = htmlComment.ReplaceAllString(s, "")
	s = codeElement.ReplaceAllString(s, "")
	s = jsxComment.ReplaceAllString(s, "")
	s = blockComment.ReplaceAllString(s, "")
	return lineComment.ReplaceAllStringFunc(s, func(m string) string {
		// Keep the character the match consumed ahead of the slashes.
		if strings.HasPrefix(m, "//") {
			return ""
		}
		return m[:1]
	})
}

func stripDeclarations(s string) string {
	s = importHead.ReplaceAllString(s, "")
	s = importStmt.ReplaceAllString(s, "")
	s = reExport.ReplaceAllString(s, "")
	s = declHead.ReplaceAllString(s, "")
	s = arrowHead.ReplaceAllString(s, "")
	s = returnHead.ReplaceAllString(s, "$1$2")
	return codeOnly.ReplaceAllString(s, "")
}

// stripExpressions removes brace blocks without markup, innermost first.
func stripExpressions(s, repl string) string {
	for i := 0; i < 16; i++ {
		next := expression.ReplaceAllString(s, repl)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// stripPunctuation drops stray punctuation tokens left over from code.
// Adjacent tokens share their separating space, so it repeats until stable.
func stripPunctuation(s string) string {
	for {
		next := strayPunct.ReplaceAllString(s, " ")
		if next == s {
			return s
		}
		s = next
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
