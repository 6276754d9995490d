// Package inspect: walk rules.
// Decides which directories are skipped and which files count as component
// sources or style sheets while walking an application tree.
package inspect

import (
	"path"
	"strings"
)

// skippedDirs are never descended into: dependencies, build output and VCS data.
var skippedDirs = map[string]bool{
	"node_modules": true, ".git": true, ".angular": true, ".next": true,
	"dist": true, "build": true, "out": true, "coverage": true,
	".cache": true, ".turbo": true, ".vite": true,
}

// componentExtensions mark React component sources.
var componentExtensions = map[string]bool{
	".tsx": true, ".jsx": true,
}

// nonUISuffixes mark component-extension files that never render page content.
var nonUISuffixes = []string{
	".test.tsx", ".test.jsx", ".spec.tsx", ".spec.jsx",
	".stories.tsx", ".stories.jsx", ".d.tsx",
}

// angularTemplates are the conventional root component templates, in priority order.
var angularTemplates = []string{
	"src/app/app.component.html",
	"src/app/app.html",
}

// reactEntries are the primary entry components, in priority order.
var reactEntries = []string{
	"src/App.tsx", "src/App.jsx", "App.tsx", "App.jsx",
}

// reactBootstraps mount the application; they carry no sections of their own.
var reactBootstraps = []string{
	"src/main.tsx", "src/main.jsx", "src/index.tsx", "src/index.jsx",
	"main.tsx", "main.jsx", "index.tsx", "index.jsx",
}

// shellCandidates are the static HTML entry files, in priority order.
var shellCandidates = []string{
	"index.html", "src/index.html", "public/index.html",
}

// IsSkippedDir reports whether a directory name is excluded from the walk.
func IsSkippedDir(name string) bool {
	return skippedDirs[name]
}

// IsComponentSource reports whether a slash-separated relative path is a
// component source that may render UI.
func IsComponentSource(rel string) bool {
	if !componentExtensions[strings.ToLower(path.Ext(rel))] {
		return false
	}
	lower := strings.ToLower(rel)
	for _, suffix := range nonUISuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}

// IsStyleSheet reports whether a relative path is a plain CSS file.
func IsStyleSheet(rel string) bool {
	return strings.EqualFold(path.Ext(rel), ".css")
}

// IsEntryFile reports whether a relative path is the React bootstrap or the
// primary entry component. Entry files are not sections themselves.
func IsEntryFile(rel string) bool {
	for _, p := range reactEntries {
		if rel == p {
			return true
		}
	}
	for _, p := range reactBootstraps {
		if rel == p {
			return true
		}
	}
	return false
}
