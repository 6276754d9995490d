// Package vocab holds the classification vocabulary: the semantic types a
// section may take, the builder module each type maps to, and the lexical
// evidence the heuristic validator looks for.
//
// The table is versioned YAML. A default is embedded in the binary and can
// be replaced per run with Load.
package vocab

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// TypeEntry describes one semantic type.
type TypeEntry struct {
	Module      string `yaml:"module"`
	Description string `yaml:"description"`
}

// Evidence lists the markers the validator requires per semantic type.
type Evidence struct {
	ContactSelector string   `yaml:"contact_selector"`
	ContactWords    []string `yaml:"contact_words"`
	ListSelector    string   `yaml:"list_selector"`
	ListMarkers     []string `yaml:"list_markers"`
	PricingPattern  string   `yaml:"pricing_pattern"`
	PricingWords    []string `yaml:"pricing_words"`
	HeroSelector    string   `yaml:"hero_selector"`
}

// Table is a loaded vocabulary. It is read-only once returned.
type Table struct {
	Version        int                  `yaml:"version"`
	FallbackType   string               `yaml:"fallback_type"`
	FallbackModule string               `yaml:"fallback_module"`
	SectionTags    []string             `yaml:"section_tags"`
	ContainerTags  []string             `yaml:"container_tags"`
	Types          map[string]TypeEntry `yaml:"types"`
	Aliases        map[string]string    `yaml:"aliases"`
	Evidence       Evidence             `yaml:"evidence"`
	Boilerplate    []string             `yaml:"boilerplate"`

	pricingRe *regexp.Regexp
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded vocabulary.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := parse(defaultYAML, nil)
		if err != nil {
			panic(fmt.Sprintf("vocab: embedded table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load reads a vocabulary file. Keys the file leaves out are taken from the
// embedded default.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML vocabulary and fills any unset key from the embedded default.
func Parse(data []byte) (*Table, error) {
	return parse(data, Default())
}

func parse(data []byte, def *Table) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if def != nil {
		t.fill(def)
	}
	if err := t.prepare(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) fill(def *Table) {
	if t.Version == 0 {
		t.Version = def.Version
	}
	if t.FallbackType == "" {
		t.FallbackType = def.FallbackType
	}
	if t.FallbackModule == "" {
		t.FallbackModule = def.FallbackModule
	}
	if len(t.SectionTags) == 0 {
		t.SectionTags = def.SectionTags
	}
	if t.ContainerTags == nil {
		t.ContainerTags = def.ContainerTags
	}
	if len(t.Types) == 0 {
		t.Types = def.Types
	}
	if len(t.Aliases) == 0 {
		t.Aliases = def.Aliases
	}
	if len(t.Boilerplate) == 0 {
		t.Boilerplate = def.Boilerplate
	}
	e, d := &t.Evidence, def.Evidence
	if e.ContactSelector == "" {
		e.ContactSelector = d.ContactSelector
	}
	if len(e.ContactWords) == 0 {
		e.ContactWords = d.ContactWords
	}
	if e.ListSelector == "" {
		e.ListSelector = d.ListSelector
	}
	if len(e.ListMarkers) == 0 {
		e.ListMarkers = d.ListMarkers
	}
	if e.PricingPattern == "" {
		e.PricingPattern = d.PricingPattern
	}
	if len(e.PricingWords) == 0 {
		e.PricingWords = d.PricingWords
	}
	if e.HeroSelector == "" {
		e.HeroSelector = d.HeroSelector
	}
}

func (t *Table) prepare() error {
	if t.FallbackType == "" || t.FallbackModule == "" {
		return fmt.Errorf("fallback_type and fallback_module are required")
	}
	if len(t.SectionTags) == 0 {
		return fmt.Errorf("section_tags must not be empty")
	}
	if t.Evidence.PricingPattern != "" {
		re, err := regexp.Compile("(?i)" + t.Evidence.PricingPattern)
		if err != nil {
			return fmt.Errorf("pricing_pattern: %w", err)
		}
		t.pricingRe = re
	}
	return nil
}

// Canonical maps a classifier-supplied type onto the vocabulary. Aliases are
// resolved; unknown types are kept (the vocabulary is open) but lowercased.
func (t *Table) Canonical(semanticType string) string {
	s := strings.ToLower(strings.TrimSpace(semanticType))
	if s == "" {
		return t.FallbackType
	}
	if alias, ok := t.Aliases[s]; ok {
		return alias
	}
	return s
}

// ModuleFor returns the builder module type a semantic type maps to.
func (t *Table) ModuleFor(semanticType string) string {
	if e, ok := t.Types[semanticType]; ok && e.Module != "" {
		return e.Module
	}
	return t.FallbackModule
}

// FallbackModuleFor is the opaque module used when a section of the given type
// has no classifier-supplied parameters.
func (t *Table) FallbackModuleFor(semanticType string) core.Module {
	return core.Module{ModuleType: t.ModuleFor(semanticType), Params: map[string]any{}}
}

// Fallback is the Result substituted when the classifier had no usable answer.
func (t *Table) Fallback(builder string) core.Result {
	return core.Result{
		SemanticType: t.FallbackType,
		Builder:      map[string]core.Module{builder: {ModuleType: t.FallbackModule, Params: map[string]any{}}},
		Provenance:   core.ProvenanceFallback,
	}
}

// HasPricingMarker reports whether text carries a currency amount or plan vocabulary.
func (t *Table) HasPricingMarker(text string) bool {
	if t.pricingRe != nil && t.pricingRe.MatchString(text) {
		return true
	}
	return containsAny(text, t.Evidence.PricingWords)
}

// HasContactWords reports whether text carries contact vocabulary.
func (t *Table) HasContactWords(text string) bool {
	return containsAny(text, t.Evidence.ContactWords)
}

// HasListMarker reports whether raw source renders a repeated list.
func (t *Table) HasListMarker(raw string) bool {
	for _, m := range t.Evidence.ListMarkers {
		if m != "" && strings.Contains(raw, m) {
			return true
		}
	}
	return false
}

// IsBoilerplate reports whether a component source is scaffold or guide text
// rather than UI.
func (t *Table) IsBoilerplate(source string) bool {
	for _, m := range t.Boilerplate {
		if m != "" && strings.Contains(source, m) {
			return true
		}
	}
	return false
}

// containsAny matches whole words, case-insensitively.
func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for i := 0; ; {
			idx := strings.Index(lower[i:], w)
			if idx < 0 {
				break
			}
			start, end := i+idx, i+idx+len(w)
			if boundary(lower, start-1) && boundary(lower, end) {
				return true
			}
			i = start + 1
		}
	}
	return false
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_')
}
