// Package validate implements the Validator interface.
// It vetoes classifier answers that lack the evidence their semantic type
// implies:
//   - contact needs a form control or contact wording, else features (when
//     the section renders a list) or generic
//   - pricing needs a price or plan marker, else generic
//   - hero needs a top-level heading, else generic
//
// A downgraded result carries only the fallback module of its new type for
// the job's builder. Validation is idempotent.
package validate

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
)

// HeuristicValidator checks results against the evidence table of a vocabulary.
type HeuristicValidator struct {
	vocab   *vocab.Table
	builder string
	logger  *slog.Logger

	contact cascadia.Selector
	list    cascadia.Selector
	hero    cascadia.Selector
}

// New creates a HeuristicValidator for the given builder. A nil table uses
// vocab.Default(). Evidence selectors that fail to compile are skipped.
func New(tbl *vocab.Table, builder string, logger *slog.Logger) *HeuristicValidator {
	if tbl == nil {
		tbl = vocab.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	v := &HeuristicValidator{
		vocab:   tbl,
		builder: strings.ToLower(strings.TrimSpace(builder)),
		logger:  logger,
	}
	v.contact = v.compile(tbl.Evidence.ContactSelector)
	v.list = v.compile(tbl.Evidence.ListSelector)
	v.hero = v.compile(tbl.Evidence.HeroSelector)
	return v
}

func (v *HeuristicValidator) compile(sel string) cascadia.Selector {
	if strings.TrimSpace(sel) == "" {
		return nil
	}
	m, err := cascadia.Compile(sel)
	if err != nil {
		v.logger.Warn("ignoring evidence selector", "selector", sel, "error", err)
		return nil
	}
	return m
}

// Validate returns res, or a downgraded copy when the evidence for its type
// is missing.
func (v *HeuristicValidator) Validate(cand core.Candidate, res core.Result) core.Result {
	ev := evidence{raw: cand.RawMarkup}

	switch res.SemanticType {
	case "contact":
		if v.has(&ev, v.contact) || v.vocab.HasContactWords(cand.PlainText) {
			return res
		}
		if v.has(&ev, v.list) || v.vocab.HasListMarker(cand.RawMarkup) {
			return v.downgrade(cand, res, "features", "no form control or contact wording")
		}
		return v.downgrade(cand, res, v.vocab.FallbackType, "no form control or contact wording")

	case "pricing":
		if v.vocab.HasPricingMarker(cand.PlainText) || v.vocab.HasPricingMarker(cand.RawMarkup) {
			return res
		}
		return v.downgrade(cand, res, v.vocab.FallbackType, "no price or plan marker")

	case "hero":
		if v.has(&ev, v.hero) {
			return res
		}
		return v.downgrade(cand, res, v.vocab.FallbackType, "no top-level heading")
	}
	return res
}

func (v *HeuristicValidator) downgrade(cand core.Candidate, res core.Result, to, reason string) core.Result {
	v.logger.Info("downgrading section",
		"section", cand.ID, "from", res.SemanticType, "to", to, "reason", reason)
	return core.Result{
		SemanticType:     to,
		Builder:          map[string]core.Module{v.builder: v.vocab.FallbackModuleFor(to)},
		NormalizedMarkup: res.NormalizedMarkup,
		Provenance:       core.ProvenanceHeuristic,
	}
}

// evidence parses the raw markup at most once per validation.
type evidence struct {
	raw    string
	doc    *goquery.Document
	parsed bool
}

func (v *HeuristicValidator) has(ev *evidence, m cascadia.Selector) bool {
	if m == nil {
		return false
	}
	if !ev.parsed {
		ev.parsed = true
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(ev.raw))
		if err != nil {
			v.logger.Debug("parsing section markup", "error", err)
		}
		ev.doc = doc
	}
	return ev.doc != nil && ev.doc.FindMatcher(m).Length() > 0
}
