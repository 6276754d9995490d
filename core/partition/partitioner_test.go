package partition

import (
	"strings"
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

func ids(cands []core.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func assertIDs(t *testing.T, cands []core.Candidate, want ...string) {
	t.Helper()
	got := ids(cands)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i, c := range cands {
		if c.Ordinal != i {
			t.Errorf("candidate %q ordinal = %d, want %d", c.ID, c.Ordinal, i)
		}
	}
}

func TestPartitionAngularSections(t *testing.T) {
	template := `<app-nav></app-nav>
<section id="hero" class="hero"><h1>{{ title }}</h1></section>
<section id="features">
  <div *ngFor="let f of features"><section id="nested">{{ f }}</section></div>
</section>
<section id='pricing' (click)="go()" [class.active]="x > 1"><p>$9</p></section>`

	snap := &core.Snapshot{Framework: core.FrameworkAngular, RawContent: template, EntryPath: "src/app/app.component.html"}
	cands := New(nil, nil).Partition(snap)

	assertIDs(t, cands, "hero", "features", "pricing")
	if !strings.Contains(cands[1].RawMarkup, `<section id="nested">`) {
		t.Errorf("nested section should stay inside its parent: %q", cands[1].RawMarkup)
	}
	if !strings.HasPrefix(cands[2].RawMarkup, `<section id='pricing' (click)="go()"`) {
		t.Errorf("raw markup should be the original fragment, got %q", cands[2].RawMarkup)
	}
	for _, c := range cands {
		if c.FrameworkHint != core.FrameworkAngular || c.Source != core.SourceMarkup {
			t.Errorf("candidate %q: hint=%q source=%q", c.ID, c.FrameworkHint, c.Source)
		}
	}
}

func TestPartitionAngularWholeTemplate(t *testing.T) {
	snap := &core.Snapshot{Framework: core.FrameworkAngular, RawContent: `<div><h1>Hello</h1></div>`}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, RootID)
	if cands[0].RawMarkup != `<div><h1>Hello</h1></div>` {
		t.Errorf("RawMarkup = %q", cands[0].RawMarkup)
	}
}

func TestPartitionReactComponents(t *testing.T) {
	snap := &core.Snapshot{
		Framework:  core.FrameworkReact,
		EntryPath:  "src/App.tsx",
		RawContent: `export default function App() { return <main><Hero /><Pricing /></main> }`,
		Files: []core.SourceFile{
			{RelPath: "src/App.tsx", Content: "export default function App() { return <main/> }"},
			{RelPath: "src/main.tsx", Content: "createRoot(el).render(<App />)"},
			{RelPath: "src/components/Hero.tsx", Content: "export const Hero = () => <section><h1>Acme</h1></section>"},
			{RelPath: "src/components/Guide.tsx", Content: "export const Guide = () => <p>Edit <code>src/App.tsx</code> and save</p>"},
			{RelPath: "src/components/Pricing/index.tsx", Content: "export default () => <section>$9</section>"},
			{RelPath: "src/components/index.ts", Content: "export * from './Hero'"},
			{RelPath: "src/hooks/useThing.tsx", Content: "export function useThing() { return 1 }"},
		},
	}

	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, "hero", "pricing")
	for _, c := range cands {
		if c.Source != core.SourceComponent {
			t.Errorf("candidate %q source = %q, want component", c.ID, c.Source)
		}
	}
	if cands[0].Origin != "src/components/Hero.tsx" {
		t.Errorf("Origin = %q", cands[0].Origin)
	}
}

func TestPartitionReactStemCollision(t *testing.T) {
	snap := &core.Snapshot{
		Framework: core.FrameworkReact,
		Files: []core.SourceFile{
			{RelPath: "src/landing/Hero.tsx", Content: "export const Hero = () => <section/>"},
			{RelPath: "src/pricing/Hero.tsx", Content: "export const Hero = () => <section/>"},
		},
	}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, "src-landing-hero", "src-pricing-hero")
}

func TestPartitionReactEntryFallback(t *testing.T) {
	entry := `import './App.css'
export default function App() {
  return (
    <>
      <Header />
      <section id="intro"><h1>Hi</h1></section>
      <section className="cta" onClick={() => go(a > b)}><button>Go</button></section>
    </>
  )
}`
	snap := &core.Snapshot{
		Framework:  core.FrameworkReact,
		EntryPath:  "src/App.tsx",
		RawContent: entry,
		Files:      []core.SourceFile{{RelPath: "src/App.tsx", Content: entry}},
	}

	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, "intro", "section-2")
	if !strings.Contains(cands[1].RawMarkup, "<button>Go</button>") {
		t.Errorf("arrow function in attribute should not end the tag: %q", cands[1].RawMarkup)
	}
}

func TestPartitionReactWholeEntry(t *testing.T) {
	entry := `export default function App() { return <div><h1>Only</h1></div> }`
	snap := &core.Snapshot{Framework: core.FrameworkReact, EntryPath: "src/App.tsx", RawContent: entry}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, RootID)
	if cands[0].Source != core.SourceComponent {
		t.Errorf("Source = %q, want component", cands[0].Source)
	}
}

func TestPartitionStaticBody(t *testing.T) {
	snap := &core.Snapshot{
		Framework:  core.FrameworkStatic,
		RawContent: `<html><body><div id="app">Hi</div></body></html>`,
	}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, RootID)
	if !strings.Contains(cands[0].RawMarkup, `<div id="app">Hi</div>`) {
		t.Errorf("RawMarkup = %q", cands[0].RawMarkup)
	}
}

func TestPartitionStaticSections(t *testing.T) {
	snap := &core.Snapshot{
		Framework: core.FrameworkStatic,
		RawContent: `<html><body>
<header id="top"><nav>menu</nav></header>
<main><section id="a">A</section></main>
<section>B</section>
<footer id="top">dup</footer>
</body></html>`,
	}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, "top", "a", "section-3", "top-2")
}

func TestPartitionLooksThroughMain(t *testing.T) {
	const sections = `<section id="hero"><h1>Acme</h1></section>
  <section id="features"><p>Fast</p></section>
  <section id="pricing"><p>$9</p></section>`

	tests := []struct {
		name string
		snap *core.Snapshot
	}{
		{"angular", &core.Snapshot{Framework: core.FrameworkAngular, RawContent: "<main>\n  " + sections + "\n</main>"}},
		{"angular nested containers", &core.Snapshot{Framework: core.FrameworkAngular, RawContent: `<main class="page"><article>` + sections + `</article></main>`}},
		{"static", &core.Snapshot{Framework: core.FrameworkStatic, RawContent: "<html><body><main>" + sections + "</main></body></html>"}},
		{"static nested containers", &core.Snapshot{Framework: core.FrameworkStatic, RawContent: "<html><body><main><article>" + sections + "</article></main></body></html>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := New(nil, nil).Partition(tt.snap)
			assertIDs(t, cands, "hero", "features", "pricing")
			if !strings.HasPrefix(cands[0].RawMarkup, `<section id="hero">`) || !strings.HasSuffix(cands[2].RawMarkup, "</section>") {
				t.Errorf("fragments = %q ... %q", cands[0].RawMarkup, cands[2].RawMarkup)
			}
		})
	}
}

func TestPartitionKeepsContainerWithoutSections(t *testing.T) {
	tests := []struct {
		name string
		snap *core.Snapshot
	}{
		{"angular", &core.Snapshot{Framework: core.FrameworkAngular, RawContent: `<header id="top">nav</header><main id="content"><p>Body</p></main>`}},
		{"static", &core.Snapshot{Framework: core.FrameworkStatic, RawContent: `<html><body><header id="top">nav</header><main id="content"><p>Body</p></main></body></html>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := New(nil, nil).Partition(tt.snap)
			assertIDs(t, cands, "top", "content")
		})
	}
}

func TestPartitionSectionInsideSectionStaysNested(t *testing.T) {
	snap := &core.Snapshot{
		Framework:  core.FrameworkStatic,
		RawContent: `<html><body><section id="outer"><main><section id="inner">x</section></main></section></body></html>`,
	}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, "outer")
}

func TestPartitionNeverEmpty(t *testing.T) {
	tests := []struct {
		name string
		snap *core.Snapshot
	}{
		{"unknown empty", &core.Snapshot{Framework: core.FrameworkUnknown}},
		{"static blank body", &core.Snapshot{Framework: core.FrameworkStatic, RawContent: "<html><body>  </body></html>"}},
		{"angular blank", &core.Snapshot{Framework: core.FrameworkAngular, RawContent: "   "}},
		{"react nothing", &core.Snapshot{Framework: core.FrameworkReact}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := New(nil, nil).Partition(tt.snap)
			assertIDs(t, cands, RootID)
			if cands[0].RawMarkup != EmptyPlaceholder {
				t.Errorf("RawMarkup = %q, want placeholder", cands[0].RawMarkup)
			}
		})
	}
}

func TestPartitionUnclosedSection(t *testing.T) {
	snap := &core.Snapshot{Framework: core.FrameworkAngular, RawContent: `<section id="a">one</section><section id="b">two`}
	cands := New(nil, nil).Partition(snap)
	assertIDs(t, cands, "a", "b")
	if cands[1].RawMarkup != `<section id="b">two` {
		t.Errorf("unclosed section should run to the end, got %q", cands[1].RawMarkup)
	}
}

func TestPartitionIsDeterministic(t *testing.T) {
	snap := &core.Snapshot{
		Framework:  core.FrameworkAngular,
		RawContent: `<section>a</section><section id="x">b</section><section>c</section>`,
	}
	p := New(nil, nil)
	first := ids(p.Partition(snap))
	second := ids(p.Partition(snap))
	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Errorf("re-run changed ids: %v vs %v", first, second)
	}
}
