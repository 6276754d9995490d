// Package classify implements the Classifier interface.
// The Bridge sends section payloads to an external classification backend
// and decodes the answers into typed outcomes. Every failure (backend
// unavailable, non-zero exit, timeout, empty or malformed output, ids missing
// from a batch) degrades to the vocabulary fallback for the affected
// sections. Classification never fails the run.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/chunk"
	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
)

// Mode selects how sections are dispatched to the backend.
type Mode string

const (
	ModePerSection Mode = "per-section"
	ModeBatch      Mode = "batch"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 2 * time.Minute

// ParseMode validates a dispatch mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePerSection:
		return ModePerSection, nil
	case ModeBatch:
		return ModeBatch, nil
	default:
		return "", fmt.Errorf("unknown classifier mode %q (want %s or %s)", s, ModePerSection, ModeBatch)
	}
}

// Backend answers one classifier payload with raw output bytes.
type Backend interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
	Name() string
}

// Config configures a Bridge. Every value is fixed at construction.
type Config struct {
	Backend  Backend
	Mode     Mode
	MaxChars int           // payload budget, default chunk.DefaultBudget
	Timeout  time.Duration // per call, default DefaultTimeout
	Builder  string        // builder whose module is guaranteed in every result
	Vocab    *vocab.Table
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Backend == nil {
		c.Backend = Noop{}
	}
	if c.Mode == "" {
		c.Mode = ModePerSection
	}
	if c.MaxChars <= 0 {
		c.MaxChars = chunk.DefaultBudget
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.Builder = strings.ToLower(strings.TrimSpace(c.Builder))
	if c.Vocab == nil {
		c.Vocab = vocab.Default()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Bridge implements core.Classifier.
type Bridge struct {
	cfg     Config
	chunker *chunk.Chunker
}

// New creates a Bridge.
func New(cfg Config) *Bridge {
	cfg.defaults()
	return &Bridge{cfg: cfg, chunker: chunk.New(cfg.MaxChars)}
}

// Classify returns one Result per candidate id. Candidates the backend gave
// no usable answer for get the vocabulary fallback.
func (b *Bridge) Classify(ctx context.Context, cands []core.Candidate, page core.PageContext) map[string]core.Result {
	page.Builder = b.cfg.Builder
	page.SectionCount = len(cands)

	results := make(map[string]core.Result, len(cands))
	if b.cfg.Mode == ModeBatch {
		b.classifyBatches(ctx, cands, page, results)
	} else {
		b.classifyEach(ctx, cands, page, results)
	}

	fallbacks := 0
	for _, c := range cands {
		if _, ok := results[c.ID]; !ok {
			results[c.ID] = b.cfg.Vocab.Fallback(b.cfg.Builder)
			fallbacks++
		}
	}
	b.cfg.Logger.Info("classified sections",
		"backend", b.cfg.Backend.Name(), "mode", b.cfg.Mode,
		"sections", len(cands), "fallbacks", fallbacks)
	return results
}

func (b *Bridge) classifyEach(ctx context.Context, cands []core.Candidate, page core.PageContext, results map[string]core.Result) {
	for _, c := range cands {
		html, text := b.fit(c)
		pc := page
		pc.SectionIndex = c.Ordinal
		payload, err := json.Marshal(sectionRequest{ID: c.ID, HTML: html, Text: text, Context: pc})
		if err != nil {
			b.cfg.Logger.Warn("encoding classifier payload", "section", c.ID, "error", err)
			continue
		}

		out, ok := b.invoke(ctx, payload, c.ID)
		if !ok {
			continue
		}
		switch o := b.decodeSection(out).(type) {
		case core.Classified:
			results[c.ID] = classified(o)
		case core.Unclassified:
			b.cfg.Logger.Warn("classifier gave no result", "section", c.ID, "reason", o.Reason)
		}
	}
}

func (b *Bridge) classifyBatches(ctx context.Context, cands []core.Candidate, page core.PageContext, results map[string]core.Result) {
	items := make([]batchItem, len(cands))
	sizes := make([]int, len(cands))
	for i, c := range cands {
		html, text := b.fit(c)
		items[i] = batchItem{ID: c.ID, HTML: html, Text: text, SectionIndex: c.Ordinal}
		sizes[i] = len(html) + len(text)
	}

	for n, batch := range b.chunker.Chunk(sizes) {
		req := batchRequest{Context: page}
		req.Context.SectionIndex = items[batch[0]].SectionIndex
		for _, i := range batch {
			req.Sections = append(req.Sections, items[i])
		}
		label := fmt.Sprintf("batch-%d", n+1)

		payload, err := json.Marshal(req)
		if err != nil {
			b.cfg.Logger.Warn("encoding classifier payload", "batch", label, "error", err)
			continue
		}
		out, ok := b.invoke(ctx, payload, label)
		if !ok {
			continue
		}
		outcomes, err := b.decodeBatch(out)
		if err != nil {
			b.cfg.Logger.Warn("classifier gave no result", "batch", label, "reason", err)
			continue
		}

		for _, i := range batch {
			id := items[i].ID
			switch o := outcomes[id].(type) {
			case core.Classified:
				results[id] = classified(o)
			case core.Unclassified:
				b.cfg.Logger.Warn("classifier gave no result", "section", id, "reason", o.Reason)
			default:
				b.cfg.Logger.Warn("classifier answer missing section", "section", id, "batch", label)
			}
		}
	}
}

// invoke calls the backend under the configured timeout. ok is false when
// the call produced no output to decode.
func (b *Bridge) invoke(ctx context.Context, payload []byte, label string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := b.cfg.Backend.Invoke(ctx, payload)
	elapsed := time.Since(start).Round(time.Millisecond)

	switch {
	case errors.Is(err, ErrNoBackend):
		b.cfg.Logger.Debug("no classifier backend", "call", label)
		return nil, false
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		b.cfg.Logger.Warn("classifier timed out", "call", label, "timeout", b.cfg.Timeout)
		return nil, false
	case err != nil:
		b.cfg.Logger.Warn("classifier failed", "call", label, "elapsed", elapsed, "error", err)
		return nil, false
	}
	b.cfg.Logger.Debug("classifier answered", "call", label, "elapsed", elapsed, "bytes", len(out))
	return out, true
}

// fit truncates the candidate's markup and text so that the pair stays
// within the payload budget.
func (b *Bridge) fit(c core.Candidate) (string, string) {
	return b.chunker.Fit(c.RawMarkup, c.PlainText)
}

func classified(o core.Classified) core.Result {
	return core.Result{
		SemanticType:     o.SemanticType,
		Builder:          o.Builder,
		NormalizedMarkup: o.NormalizedMarkup,
		Provenance:       core.ProvenanceClassifier,
	}
}
