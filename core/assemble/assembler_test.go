package assemble

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

func TestAssemble(t *testing.T) {
	snap := &core.Snapshot{
		Framework:  core.FrameworkReact,
		HeadMarkup: `<link rel="stylesheet" href="/fonts.css">`,
		CSSText:    "/* src/index.css */\nbody { margin: 0 }",
		BodyClass:  "theme-dark",
		Title:      "Acme Widgets",
	}
	cands := []core.Candidate{
		{ID: "Hero", Ordinal: 0, RawMarkup: "<Hero/>", StaticMarkup: "<section>static</section>"},
		{ID: "pricing", Ordinal: 1, RawMarkup: "<section>$9</section>"},
		{ID: "section-3", Ordinal: 2, RawMarkup: "<footer>raw</footer>"},
	}
	results := map[string]core.Result{
		"Hero": {
			SemanticType:     "hero",
			Builder:          map[string]core.Module{"divi": {ModuleType: "hero", Params: map[string]any{"title": "Acme"}}},
			NormalizedMarkup: "<section><h1>Acme</h1></section>",
		},
		"pricing": {
			SemanticType: "pricing",
			Builder:      map[string]core.Module{"divi": {ModuleType: "pricing_table", Params: map[string]any{}}},
		},
	}
	job := core.Job{Builder: "divi"}

	doc := New(nil).Assemble(snap, cands, results, job)

	if len(doc.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(doc.Sections))
	}
	wantIDs := []string{"Hero", "pricing", "section-3"}
	for i, s := range doc.Sections {
		if s.ID != wantIDs[i] {
			t.Errorf("section %d id = %q, want %q", i, s.ID, wantIDs[i])
		}
	}

	hero := doc.Sections[0]
	if hero.Class != "glb-section glb-section--hero glb-section-hero" {
		t.Errorf("hero class = %q", hero.Class)
	}
	if hero.HTML != "<section><h1>Acme</h1></section>" {
		t.Errorf("classifier markup should win: %q", hero.HTML)
	}
	if doc.Sections[1].HTML != "<section>$9</section>" {
		t.Errorf("raw markup should be used when nothing else exists: %q", doc.Sections[1].HTML)
	}

	missing := doc.Sections[2]
	if missing.Type != "generic" || missing.Builder["divi"].ModuleType != "code" {
		t.Errorf("candidate without result should fall back: %+v", missing)
	}

	if doc.BodyClass != "glb-layout glb-fw-react theme-dark" {
		t.Errorf("BodyClass = %q", doc.BodyClass)
	}
	if !strings.HasPrefix(doc.HeadHTML, `<link rel="stylesheet" href="/fonts.css">`) ||
		!strings.Contains(doc.HeadHTML, "body { margin: 0 }") {
		t.Errorf("HeadHTML = %q", doc.HeadHTML)
	}

	want := core.LayoutMeta{Title: "Acme Widgets", Slug: "acme-widgets", Builder: "divi", Framework: "react", GeneratedBy: GeneratedBy}
	if doc.Meta == nil || *doc.Meta != want {
		t.Errorf("Meta = %+v, want %+v", doc.Meta, want)
	}
}

func TestAssembleJobMetaWins(t *testing.T) {
	snap := &core.Snapshot{Framework: core.FrameworkStatic, Title: "Shell title"}
	cands := []core.Candidate{{ID: "root", RawMarkup: `<div id="app">Hi</div>`}}
	job := core.Job{Builder: "divi", Title: "Landing", Slug: "landing-v2"}

	doc := New(nil).Assemble(snap, cands, nil, job)

	if doc.Meta.Title != "Landing" || doc.Meta.Slug != "landing-v2" {
		t.Errorf("Meta = %+v", doc.Meta)
	}
	if doc.HeadHTML != "" {
		t.Errorf("HeadHTML = %q, want empty", doc.HeadHTML)
	}
	if doc.BodyClass != "glb-layout glb-fw-static" {
		t.Errorf("BodyClass = %q", doc.BodyClass)
	}
}

func TestLayoutJSONShape(t *testing.T) {
	doc := New(nil).Assemble(&core.Snapshot{Framework: core.FrameworkAngular},
		[]core.Candidate{{ID: "a", RawMarkup: "<section>a</section>"}}, nil, core.Job{Builder: "divi"})

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"head_html", "body_class", "sections", "meta"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("layout JSON missing %q: %s", key, data)
		}
	}
	section := decoded["sections"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "class", "html", "type", "builder"} {
		if _, ok := section[key]; !ok {
			t.Errorf("section JSON missing %q: %s", key, data)
		}
	}
	module := section["builder"].(map[string]any)["divi"].(map[string]any)
	if module["module_type"] != "code" {
		t.Errorf("module_type = %v, want code", module["module_type"])
	}
}

func TestClassName(t *testing.T) {
	tests := []struct {
		id, typ, want string
	}{
		{"hero", "hero", "glb-section glb-section--hero glb-section-hero"},
		{"src-components-Hero", "features", "glb-section glb-section--features glb-section-src-components-hero"},
		{"section-2", "", "glb-section glb-section--generic glb-section-section-2"},
	}
	for _, tt := range tests {
		if got := ClassName(tt.id, tt.typ); got != tt.want {
			t.Errorf("ClassName(%q, %q) = %q, want %q", tt.id, tt.typ, got, tt.want)
		}
	}
}

func TestHeadHTMLEscapesStyleEnd(t *testing.T) {
	got := HeadHTML("", "a::after { content: '</style>' }")
	if strings.Count(got, "</style>") != 1 {
		t.Errorf("style element closed early: %q", got)
	}
}

func TestErrorLayout(t *testing.T) {
	doc := ErrorLayout("divi", "classifier <offline>")
	if len(doc.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.ID != ErrorSectionID || s.Type != ErrorSectionID {
		t.Errorf("section = %+v", s)
	}
	if !strings.Contains(s.HTML, "classifier &lt;offline&gt;") {
		t.Errorf("message should be escaped into the section: %q", s.HTML)
	}
	if s.Builder["divi"].Params["text"] != "classifier <offline>" {
		t.Errorf("builder params = %+v", s.Builder)
	}
}
