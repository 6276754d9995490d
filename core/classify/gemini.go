package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend answers classifier payloads with a Gemini model. It speaks the
// same JSON contract as a classifier process.
type GeminiBackend struct {
	instructions string
	// generate sends one prompt and returns the reply text.
	generate func(ctx context.Context, prompt string) (string, error)
}

// retryReminder is appended to the prompt after a reply that held no JSON.
const retryReminder = "\n\nIMPORTANT: Your previous response could not be parsed as JSON. " +
	"Now respond with ONLY a single valid JSON object, no explanation."

// NewGemini creates a GeminiBackend. The prompt lists the semantic types and
// modules of tbl.
func NewGemini(ctx context.Context, apiKey, model string, tbl *vocab.Table) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if tbl == nil {
		tbl = vocab.Default()
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	generate := func(ctx context.Context, prompt string) (string, error) {
		res, err := c.Models.GenerateContent(ctx, model, []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		}, nil)
		if err != nil {
			return "", fmt.Errorf("gemini API call failed: %w", err)
		}
		return res.Text(), nil
	}
	return &GeminiBackend{instructions: instructions(tbl), generate: generate}, nil
}

// Name implements Backend.
func (g *GeminiBackend) Name() string { return "gemini" }

// Invoke implements Backend. A reply without JSON is retried once with a
// reminder to answer in JSON only.
func (g *GeminiBackend) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	prompt := g.instructions + "\n\nRequest:\n" + string(payload)
	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out, err := extractJSON(reply)
	if err == nil {
		return out, nil
	}

	reply, err = g.generate(ctx, prompt+retryReminder)
	if err != nil {
		return nil, fmt.Errorf("retry: %w", err)
	}
	out, err = extractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("retry: %w", err)
	}
	return out, nil
}

// extractJSON returns the JSON object in a model reply, which may be wrapped
// in code fences or surrounded by prose.
func extractJSON(reply string) ([]byte, error) {
	js := stripCodeFences(reply)
	if json.Valid([]byte(js)) {
		return []byte(js), nil
	}
	if s := findFirstJSON(js); s != "" && json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	return nil, errors.New("no JSON object in model reply")
}

func instructions(tbl *vocab.Table) string {
	var b strings.Builder
	b.WriteString("You classify sections of a web page into page builder modules.\n")
	b.WriteString("Respond with only a single JSON object, no markdown and no prose.\n\n")
	b.WriteString("Valid \"type\" values and their default module:\n")
	for _, name := range slices.Sorted(maps.Keys(tbl.Types)) {
		entry := tbl.Types[name]
		fmt.Fprintf(&b, "  - %q (module %q)", name, tbl.ModuleFor(name))
		if entry.Description != "" {
			b.WriteString(": " + entry.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Use %q with module %q when unsure.\n\n", tbl.FallbackType, tbl.FallbackModule)
	b.WriteString(`Rules:
1. Choose "contact" only when the section has a real form (form, input, textarea, select) or clear contact wording.
2. Choose "pricing" only when there are prices, plans or tiers.
3. Choose "hero" only for a section with a primary heading.
4. Fill params with short strings or arrays taken from the section (headings, labels, calls to action), never HTML.
5. normalized_html is optional static HTML for the section without code, loops or template expressions.

The request is JSON with "html", "text" and "context" (context.builder names the builder).
Answer: {"type": "...", "builder": {"<builder>": {"module_type": "...", "params": {}}}, "normalized_html": "..."}

When the request has a "sections" array instead, answer one entry per section id:
{"results": [{"id": "...", "type": "...", "builder": {...}, "normalized_html": "..."}]}
`)
	return b.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// findFirstJSON returns the first balanced {...} span in s.
func findFirstJSON(s string) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
