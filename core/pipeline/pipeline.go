// Package pipeline runs the conversion stages in order:
// inspect → partition → normalize → classify → validate → assemble → deliver.
//
// Stages do not fail; they degrade. Only a missing job field, a missing
// application directory or a failed delivery end a run with an error, and
// every one of those except the missing field is reported to the callback
// with an error-path POST.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/assemble"
	"github.com/gaurav-prasanna/layoutpipe/core/inspect"
	"github.com/gaurav-prasanna/layoutpipe/core/normalize"
	"github.com/gaurav-prasanna/layoutpipe/core/partition"
	"github.com/gaurav-prasanna/layoutpipe/core/validate"
	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
)

var (
	// ErrMissingField marks a job without id, secret, builder or callback URL.
	ErrMissingField = errors.New("missing required job field")
	// ErrAppDir marks an application directory that does not exist.
	ErrAppDir = errors.New("application directory not found")
	// ErrStage marks a stage that aborted unexpectedly.
	ErrStage = errors.New("pipeline stage failed")
)

// Pipeline holds one implementation per stage.
type Pipeline struct {
	Inspector   core.Inspector
	Partitioner core.Partitioner
	Normalizer  core.Normalizer
	Classifier  core.Classifier
	Validator   core.Validator
	Assembler   core.Assembler
	Deliverer   core.Deliverer
	Logger      *slog.Logger
}

// Config selects the collaborators of a standard pipeline.
type Config struct {
	Builder    string
	Vocab      *vocab.Table
	Classifier core.Classifier
	Deliverer  core.Deliverer
	Logger     *slog.Logger
}

// New assembles the standard stages around the configured classifier and
// deliverer.
func New(cfg Config) *Pipeline {
	if cfg.Vocab == nil {
		cfg.Vocab = vocab.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		Inspector:   inspect.New(cfg.Logger),
		Partitioner: partition.New(cfg.Vocab, cfg.Logger),
		Normalizer:  normalize.New(cfg.Logger),
		Classifier:  cfg.Classifier,
		Validator:   validate.New(cfg.Vocab, cfg.Builder, cfg.Logger),
		Assembler:   assemble.New(cfg.Vocab),
		Deliverer:   cfg.Deliverer,
		Logger:      cfg.Logger,
	}
}

// ValidateJob reports every required job field that is empty.
func ValidateJob(job core.Job) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"job_id", job.ID},
		{"secret", job.Secret},
		{"builder", job.Builder},
		{"callback_url", job.CallbackURL},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// CheckAppDir verifies that dir exists and is a directory.
func CheckAppDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppDir, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrAppDir, dir)
	}
	return nil
}

// Build runs every stage up to assembly and returns the layout of dir.
func (p *Pipeline) Build(ctx context.Context, dir string, job core.Job) (doc *core.LayoutDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrStage, r)
		}
	}()
	start := time.Now()

	snap := p.Inspector.Inspect(dir)
	p.Logger.Info("inspected application", "dir", dir, "framework", snap.Framework, "entry", snap.EntryPath)

	cands := p.Partitioner.Partition(snap)
	p.Logger.Info("partitioned sections", "sections", len(cands))

	for i := range cands {
		cands[i].PlainText, cands[i].StaticMarkup = p.Normalizer.Normalize(cands[i].RawMarkup, cands[i].Source)
	}

	page := core.PageContext{
		Framework: snap.Framework,
		PageTitle: job.Title,
		Builder:   job.Builder,
	}
	if page.PageTitle == "" {
		page.PageTitle = snap.Title
	}
	results := p.Classifier.Classify(ctx, cands, page)

	for _, c := range cands {
		if res, ok := results[c.ID]; ok {
			results[c.ID] = p.Validator.Validate(c, res)
		}
	}

	doc = p.Assembler.Assemble(snap, cands, results, job)
	p.Logger.Info("assembled layout", "sections", len(doc.Sections), "elapsed", time.Since(start).Round(time.Millisecond))
	return doc, nil
}

// Run validates the job, builds the layout and delivers it. Failures after
// the job is known to be complete are also sent to the callback once.
func (p *Pipeline) Run(ctx context.Context, dir string, job core.Job) (*core.LayoutDocument, error) {
	if err := ValidateJob(job); err != nil {
		return nil, err
	}
	if err := CheckAppDir(dir); err != nil {
		p.fail(ctx, job, err)
		return nil, err
	}

	doc, err := p.Build(ctx, dir, job)
	if err != nil {
		p.fail(ctx, job, err)
		return nil, fmt.Errorf("build: %w", err)
	}

	if err := p.Deliverer.Deliver(ctx, job, doc); err != nil {
		p.fail(ctx, job, err)
		return doc, fmt.Errorf("deliver: %w", err)
	}
	return doc, nil
}

// fail sends the error-path POST. Its own failure is only logged: the run
// already ends with the original error.
func (p *Pipeline) fail(ctx context.Context, job core.Job, cause error) {
	p.Logger.Error("job failed", "job", job.ID, "error", cause)
	if err := p.Deliverer.Fail(ctx, job, cause); err != nil {
		p.Logger.Error("reporting failure to callback", "job", job.ID, "error", err)
	}
}
