package normalize

import (
	"regexp"
	"strings"
)

var (
	jsxStart = regexp.MustCompile(`<[A-Za-z>]`)
	// openTag matches a JSX opening tag whose attributes may hold quoted
	// strings and brace expressions nested up to three levels.
	openTag       = regexp.MustCompile(`<[A-Za-z][\w.:-]*(?:[^<>{}"']|"[^"]*"|'[^']*'|\{(?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*\})*/?>`)
	dynamicAttr   = regexp.MustCompile(`\s+[\w:.-]+\s*=\s*\{(?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*\}`)
	spreadAttr    = regexp.MustCompile(`\s*\{\s*\.\.\.[^{}]*\}`)
	classNameAttr = regexp.MustCompile(`(\s)className=`)
	htmlForAttr   = regexp.MustCompile(`(\s)htmlFor=`)
	componentTag  = regexp.MustCompile(`<([A-Z][\w.]*)(?:\s[^<>]*)?/>`)
	fragmentTag   = regexp.MustCompile(`</?>`)
)

// ComponentMarkup approximates the static HTML a component renders. It works
// on source text only: attributes bound to expressions are dropped, loops
// keep a single copy of their template and child components become
// placeholders carrying their name.
func ComponentMarkup(src string) string {
	s := stripComments(src)
	s = stripDeclarations(s)
	s = jsxSpan(s)
	if s == "" {
		return ""
	}

	s = openTag.ReplaceAllStringFunc(s, staticAttributes)
	// Expressions without markup go first so that only blocks wrapping
	// markup are left for the loop and conditional rewrites.
	s = stripExpressions(s, "")
	s = mapHead.ReplaceAllString(s, "")
	s = condHead.ReplaceAllString(s, "")
	s = closeTail.ReplaceAllString(s, ">")
	s = componentTag.ReplaceAllString(s, `<div data-component="$1"></div>`)
	s = fragmentTag.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// jsxSpan cuts s to the region between the first tag and the last '>'.
func jsxSpan(s string) string {
	loc := jsxStart.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	end := strings.LastIndex(s, ">")
	if end < loc[0] {
		return ""
	}
	return s[loc[0] : end+1]
}

// staticAttributes rewrites one opening tag to its HTML form.
func staticAttributes(tag string) string {
	tag = dynamicAttr.ReplaceAllString(tag, "")
	tag = spreadAttr.ReplaceAllString(tag, "")
	tag = classNameAttr.ReplaceAllString(tag, "${1}class=")
	return htmlForAttr.ReplaceAllString(tag, "${1}for=")
}
