package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/normalize"
)

// sectionRequest is the per-section payload written to the classifier.
type sectionRequest struct {
	ID      string           `json:"id"`
	HTML    string           `json:"html"`
	Text    string           `json:"text"`
	Context core.PageContext `json:"context"`
}

// batchRequest carries several sections in one call.
type batchRequest struct {
	Sections []batchItem      `json:"sections"`
	Context  core.PageContext `json:"context"`
}

type batchItem struct {
	ID           string `json:"id"`
	HTML         string `json:"html"`
	Text         string `json:"text"`
	SectionIndex int    `json:"sectionIndex"`
}

// sectionResponse is one classifier answer. Batch answers carry the id.
type sectionResponse struct {
	ID             string                `json:"id,omitempty"`
	Type           string                `json:"type"`
	Builder        map[string]wireModule `json:"builder"`
	NormalizedHTML string                `json:"normalized_html"`
}

type wireModule struct {
	ModuleType string         `json:"module_type"`
	Params     map[string]any `json:"params"`
}

type batchResponse struct {
	Results []sectionResponse `json:"results"`
}

// decodeSection turns raw classifier output into an Outcome. It is the only
// place untyped classifier data is looked at.
func (b *Bridge) decodeSection(out []byte) core.Outcome {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return core.Unclassified{Reason: "empty output"}
	}
	var resp sectionResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return core.Unclassified{Reason: fmt.Sprintf("malformed output: %v", err)}
	}
	return b.validate(resp)
}

// decodeBatch decodes a batch answer into outcomes keyed by section id.
// Ids missing from the answer are absent from the map.
func (b *Bridge) decodeBatch(out []byte) (map[string]core.Outcome, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("empty output")
	}
	var resp batchResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("malformed output: %w", err)
	}
	outcomes := make(map[string]core.Outcome, len(resp.Results))
	for _, r := range resp.Results {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			continue
		}
		if _, dup := outcomes[id]; dup {
			continue
		}
		outcomes[id] = b.validate(r)
	}
	return outcomes, nil
}

// validate checks a decoded answer and maps it onto the vocabulary.
func (b *Bridge) validate(resp sectionResponse) core.Outcome {
	if strings.TrimSpace(resp.Type) == "" {
		return core.Unclassified{Reason: "missing type"}
	}
	semanticType := b.cfg.Vocab.Canonical(resp.Type)

	modules := make(map[string]core.Module, len(resp.Builder)+1)
	for name, m := range resp.Builder {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || strings.TrimSpace(m.ModuleType) == "" {
			continue
		}
		params := m.Params
		if params == nil {
			params = map[string]any{}
		}
		modules[name] = core.Module{ModuleType: strings.TrimSpace(m.ModuleType), Params: params}
	}
	if _, ok := modules[b.cfg.Builder]; !ok {
		modules[b.cfg.Builder] = b.cfg.Vocab.FallbackModuleFor(semanticType)
	}

	return core.Classified{
		SemanticType:     semanticType,
		Builder:          modules,
		NormalizedMarkup: normalize.Sanitize(resp.NormalizedHTML),
	}
}
