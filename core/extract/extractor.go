// Package extract cleans a markup fragment down to its presentational part.
// It isolates what a page builder can show by:
//  1. Removing code-only elements (script, noscript, template)
//  2. Removing framework binding and event attributes (*ngIf, (click), [value], #ref, onclick)
//  3. Replacing empty custom elements (<app-hero></app-hero>) with a placeholder
//     that keeps the component name
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are elements removed before anything else.
// They contribute no presentation to the fragment.
var noiseSelectors = []string{
	"script", "noscript", "template",
}

// bindingPrefixes mark template binding attributes. Attribute names arrive
// lowercased from the HTML parser.
var bindingPrefixes = []string{"*", "(", "[", "#", "bind-", "on-", "let-", "@", ":", "v-"}

// interpolation matches template expressions such as {{ title | uppercase }}.
var interpolation = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

// HTMLExtractor strips code-only constructs from markup fragments.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract takes a markup fragment and returns it without code-only elements,
// binding attributes or interpolations.
func (e *HTMLExtractor) Extract(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		return "", fmt.Errorf("no content container found in HTML")
	}

	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if !isBinding(a.Key) {
				kept = append(kept, a)
			}
		}
		n.Attr = kept
	})

	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if !strings.Contains(name, "-") || s.Children().Length() > 0 || strings.TrimSpace(s.Text()) != "" {
			return
		}
		s.ReplaceWithHtml(fmt.Sprintf(`<div data-component=%q></div>`, name))
	})

	result, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}

	return strings.TrimSpace(interpolation.ReplaceAllString(result, "")), nil
}

func isBinding(key string) bool {
	for _, p := range bindingPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	// Inline event handlers: onclick, onsubmit, ...
	return len(key) > 2 && strings.HasPrefix(key, "on") && !strings.ContainsAny(key, "-_")
}
