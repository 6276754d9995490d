package partition

import (
	"regexp"
	"strings"
)

// span is one top-level sectioning element found in raw source text.
// src[start+len(openTag):inner] is its content.
type span struct {
	tag     string
	openTag string
	start   int
	end     int
	inner   int
}

// attrPattern tolerates quoted values and one level of nested JSX braces
// (style={{...}}) so a ">" inside an attribute does not end the tag.
const attrPattern = `(?:[^>{}"']|"[^"]*"|'[^']*'|\{(?:[^{}]|\{[^{}]*\})*\})*`

// tagScanner finds sectioning tags in template or JSX text without parsing it.
// Tag names are matched case-sensitively so capitalized components such as
// <Header /> are not mistaken for <header>.
type tagScanner struct {
	re *regexp.Regexp
}

func newTagScanner(tags []string) *tagScanner {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re := regexp.MustCompile(`<(/?)(` + strings.Join(quoted, "|") + `)\b(` + attrPattern + `)>`)
	return &tagScanner{re: re}
}

// scan returns the top-level spans in source order. An element left open at
// the end of the text runs to the end of the text.
func (s *tagScanner) scan(src string) []span {
	var spans []span
	var cur *span
	depth := 0

	for _, m := range s.re.FindAllStringSubmatchIndex(src, -1) {
		closing := m[3] > m[2]
		tag := src[m[4]:m[5]]
		attrs := src[m[6]:m[7]]
		selfClosing := !closing && strings.HasSuffix(strings.TrimSpace(attrs), "/")

		if cur == nil {
			if closing {
				continue // stray close tag
			}
			sp := span{tag: tag, openTag: src[m[0]:m[1]], start: m[0], end: m[1], inner: m[1]}
			if selfClosing {
				spans = append(spans, sp)
				continue
			}
			cur, depth = &sp, 1
			continue
		}

		if tag != cur.tag || selfClosing {
			continue
		}
		if closing {
			depth--
			if depth == 0 {
				cur.end, cur.inner = m[1], m[0]
				spans = append(spans, *cur)
				cur = nil
			}
		} else {
			depth++
		}
	}

	if cur != nil {
		cur.end, cur.inner = len(src), len(src)
		spans = append(spans, *cur)
	}
	return spans
}

// expand replaces every container span that holds sectioning elements with
// those elements, recursively. Offsets stay relative to src.
func (s *tagScanner) expand(src string, spans []span, containers map[string]bool) []span {
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		if containers[sp.tag] {
			from := sp.start + len(sp.openTag)
			if nested := s.scan(src[from:sp.inner]); len(nested) > 0 {
				for i := range nested {
					nested[i].start += from
					nested[i].end += from
					nested[i].inner += from
				}
				out = append(out, s.expand(src, nested, containers)...)
				continue
			}
		}
		out = append(out, sp)
	}
	return out
}

// idAttr reads a literal id from an opening tag: id="x", id='x' or id={"x"}.
var idAttr = regexp.MustCompile(`(?:^|\s)id\s*=\s*(?:"([^"]*)"|'([^']*)'|\{\s*["'` + "`" + `]([^"'` + "`" + `]*)["'` + "`" + `]\s*\})`)

func openTagID(openTag string) string {
	m := idAttr.FindStringSubmatch(openTag)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}
