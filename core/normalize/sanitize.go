package normalize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// layoutPolicy allows the structural and form elements a builder section can
// hold, plus class, id and data-* attributes. Scripts, styles and event
// handlers never pass.
func layoutPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("section", "header", "footer", "main", "article", "nav", "aside",
			"div", "span", "figure", "figcaption", "picture", "source", "small",
			"form", "fieldset", "legend", "label", "input", "textarea", "select", "option", "button")
		p.AllowNoAttrs().OnElements("main", "form", "label", "input", "legend", "source")
		p.AllowAttrs("class", "id", "role", "aria-label", "aria-hidden").Globally()
		p.AllowDataAttributes()
		p.AllowAttrs("type", "name", "placeholder", "value", "for", "required", "rows", "cols").
			OnElements("input", "textarea", "select", "option", "button", "label")
		p.AllowAttrs("srcset", "sizes", "media").OnElements("img", "source")
		policy = p
	})
	return policy
}

// Sanitize reduces an HTML fragment to the layout-safe subset. It is applied
// to every fragment that ends up in a layout, including classifier output.
func Sanitize(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	return strings.TrimSpace(layoutPolicy().Sanitize(fragment))
}
