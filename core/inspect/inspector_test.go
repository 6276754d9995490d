package inspect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// writeTree creates files (slash-separated relative paths) under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return root
}

const shell = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width">
<meta name="description" content="Acme widgets">
<title>Acme</title>
<link rel="stylesheet" href="/styles.css">
<script type="module" src="/src/main.tsx"></script>
</head>
<body class="theme-dark"><div id="root"></div></body>
</html>`

func TestInspectDetection(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string]string
		want      core.Framework
		wantEntry string
	}{
		{
			name: "angular wins over react and shell",
			files: map[string]string{
				"src/app/app.component.html": "<section id=a></section>",
				"src/widgets/Chart.tsx":      "export const Chart = () => <div/>",
				"src/index.html":             shell,
			},
			want:      core.FrameworkAngular,
			wantEntry: "src/app/app.component.html",
		},
		{
			name: "react wins over shell",
			files: map[string]string{
				"src/App.tsx":             "export default function App() { return <main/> }",
				"src/main.tsx":            "createRoot(el).render(<App />)",
				"src/components/Hero.tsx": "export const Hero = () => <section/>",
				"index.html":              shell,
			},
			want:      core.FrameworkReact,
			wantEntry: "src/App.tsx",
		},
		{
			name: "react falls back to bootstrap entry",
			files: map[string]string{
				"src/main.tsx":            "createRoot(el).render(<Hero />)",
				"src/components/Hero.tsx": "export const Hero = () => <section/>",
			},
			want:      core.FrameworkReact,
			wantEntry: "src/main.tsx",
		},
		{
			name: "static shell only",
			files: map[string]string{
				"index.html": `<html><body><div id="app">Hi</div></body></html>`,
			},
			want:      core.FrameworkStatic,
			wantEntry: "index.html",
		},
		{
			name: "components under node_modules are ignored",
			files: map[string]string{
				"node_modules/lib/Button.tsx": "export const B = () => <button/>",
				"public/index.html":           "<html><body><p>x</p></body></html>",
			},
			want:      core.FrameworkStatic,
			wantEntry: "public/index.html",
		},
		{
			name:  "nothing recognizable",
			files: map[string]string{"README.md": "# hi"},
			want:  core.FrameworkUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, tt.files)
			snap := New(nil).Inspect(root)
			if snap.Framework != tt.want {
				t.Errorf("Framework = %q, want %q", snap.Framework, tt.want)
			}
			if snap.EntryPath != tt.wantEntry {
				t.Errorf("EntryPath = %q, want %q", snap.EntryPath, tt.wantEntry)
			}
		})
	}
}

func TestInspectMissingDirectory(t *testing.T) {
	snap := New(nil).Inspect(filepath.Join(t.TempDir(), "does-not-exist"))
	if snap.Framework != core.FrameworkUnknown {
		t.Errorf("Framework = %q, want unknown", snap.Framework)
	}
	if snap.RawContent != "" {
		t.Errorf("RawContent = %q, want empty", snap.RawContent)
	}
}

func TestInspectReactFilesAndCSS(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/App.tsx":                  "export default function App() { return <main/> }",
		"src/components/Hero.tsx":      "export const Hero = () => <section/>",
		"src/components/Hero.test.tsx": "test('x', () => {})",
		"src/components/Pricing.jsx":   "export const Pricing = () => <section/>",
		"src/index.css":                "body { margin: 0 }",
		"src/components/hero.css":      ".hero { color: red }",
		"dist/assets/index.css":        ".built {}",
	})

	snap := New(nil).Inspect(root)

	var rels []string
	for _, f := range snap.Files {
		rels = append(rels, f.RelPath)
	}
	want := []string{"src/App.tsx", "src/components/Hero.tsx", "src/components/Pricing.jsx"}
	if strings.Join(rels, ",") != strings.Join(want, ",") {
		t.Errorf("Files = %v, want %v", rels, want)
	}

	if !strings.Contains(snap.CSSText, ".hero { color: red }") || !strings.Contains(snap.CSSText, "margin: 0") {
		t.Errorf("CSSText missing style sheets: %q", snap.CSSText)
	}
	if strings.Contains(snap.CSSText, ".built") {
		t.Error("CSSText should not include build output")
	}
	if strings.Index(snap.CSSText, "hero.css") > strings.Index(snap.CSSText, "index.css") {
		t.Error("CSS should be concatenated in walk order")
	}
}

func TestInspectShellMetadata(t *testing.T) {
	root := writeTree(t, map[string]string{"index.html": shell})
	snap := New(nil).Inspect(root)

	if snap.Title != "Acme" {
		t.Errorf("Title = %q, want Acme", snap.Title)
	}
	if snap.Description != "Acme widgets" {
		t.Errorf("Description = %q, want %q", snap.Description, "Acme widgets")
	}
	if snap.BodyClass != "theme-dark" {
		t.Errorf("BodyClass = %q, want theme-dark", snap.BodyClass)
	}
	if !strings.Contains(snap.HeadMarkup, `rel="stylesheet"`) {
		t.Errorf("HeadMarkup should keep stylesheet links: %q", snap.HeadMarkup)
	}
	for _, unwanted := range []string{"viewport", "<script", "<title"} {
		if strings.Contains(snap.HeadMarkup, unwanted) {
			t.Errorf("HeadMarkup should not contain %q: %q", unwanted, snap.HeadMarkup)
		}
	}
}

func TestIsComponentSource(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"src/Hero.tsx", true},
		{"src/Hero.jsx", true},
		{"src/Hero.ts", false},
		{"src/Hero.test.tsx", false},
		{"src/Hero.stories.jsx", false},
	}
	for _, tt := range tests {
		if got := IsComponentSource(tt.rel); got != tt.want {
			t.Errorf("IsComponentSource(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestInspectShellReadabilityFallback(t *testing.T) {
	page := `<!doctype html>
<html>
<head>
<meta property="og:title" content="Acme Labs">
<meta property="og:description" content="Widgets for every team">
</head>
<body>
<article>
<h1>Acme Labs</h1>
<p>Acme builds widgets for teams of every size. Our widgets ship fast, scale well and
are backed by a support crew that answers within the hour, every day of the year.</p>
<p>Start with the free tier and upgrade when your team grows. Every plan includes the
same core features, so nothing you build has to be thrown away later.</p>
</article>
</body>
</html>`
	root := writeTree(t, map[string]string{"index.html": page})
	snap := New(nil).Inspect(root)

	if snap.Framework != core.FrameworkStatic {
		t.Fatalf("Framework = %q, want static", snap.Framework)
	}
	if snap.Title != "Acme Labs" {
		t.Errorf("Title = %q, want the og:title found by readability", snap.Title)
	}
	if snap.Description == "" {
		t.Error("Description should be filled from the readability excerpt")
	}
}
