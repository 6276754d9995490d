// Package cmd: convert command.
// This is the main command that orchestrates the pipeline:
// inspect → partition → normalize → classify → validate → assemble → deliver,
// plus optional local proofs of the layout.
//
// Environment defaults are resolved here, once, and passed down as explicit
// configuration.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/assemble"
	"github.com/gaurav-prasanna/layoutpipe/core/chunk"
	"github.com/gaurav-prasanna/layoutpipe/core/classify"
	"github.com/gaurav-prasanna/layoutpipe/core/deliver"
	"github.com/gaurav-prasanna/layoutpipe/core/output"
	"github.com/gaurav-prasanna/layoutpipe/core/pipeline"
	"github.com/gaurav-prasanna/layoutpipe/core/render"
	"github.com/gaurav-prasanna/layoutpipe/core/vocab"
)

// Environment variables consulted for flag defaults.
const (
	envSecret        = "LAYOUTPIPE_SECRET"
	envClassifierCmd = "LAYOUTPIPE_CLASSIFIER_CMD"
	envGeminiKey     = "GEMINI_API_KEY"
)

// Classifier backend names.
const (
	backendExec   = "exec"
	backendGemini = "gemini"
	backendNone   = "none"
)

// Flag variables.
var (
	flagJobID       string
	flagSecret      string
	flagBuilder     string
	flagCallbackURL string
	flagTitle       string
	flagSlug        string

	flagClassifier        string
	flagClassifierCmd     string
	flagClassifierMode    string
	flagClassifierModel   string
	flagClassifierTimeout time.Duration
	flagMaxChars          int
	flagVocabulary        string

	flagOutputDir string
	flagJSON      bool
	flagMarkdown  bool
	flagPDF       bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <app_dir>",
	Short: "Convert an application directory into a layout and deliver it",
	Long: `Convert inspects the application in <app_dir>, splits it into sections,
classifies every section and POSTs the resulting layout document to the
callback URL. Failures after the job is known are reported to the callback
with an error body.

Examples:
  layoutpipe convert ./site --job_id 42 --secret s3cret --builder divi --callback_url https://wp.example/cb
  layoutpipe convert ./app --job_id 42 --builder divi --callback_url https://wp.example/cb \
      --classifier exec --classifier_cmd "python3 classify.py" --classifier_mode batch
  layoutpipe convert ./app --job_id 42 --builder divi --callback_url https://wp.example/cb \
      --classifier gemini --json --markdown --output_dir ./proofs`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	f := convertCmd.Flags()

	// Job flags.
	f.StringVar(&flagJobID, "job_id", "", "Job identifier echoed to the callback")
	f.StringVar(&flagSecret, "secret", "", "Shared secret echoed to the callback (default $"+envSecret+")")
	f.StringVar(&flagBuilder, "builder", "", "Target page builder, e.g. divi")
	f.StringVar(&flagCallbackURL, "callback_url", "", "URL that receives the layout POST")
	f.StringVar(&flagTitle, "title", "", "Page title (default: taken from the application)")
	f.StringVar(&flagSlug, "slug", "", "Page slug (default: derived from the title)")

	// Classifier flags.
	f.StringVar(&flagClassifier, "classifier", "", "Classifier backend: exec, gemini or none (default exec when $"+envClassifierCmd+" is set, else none)")
	f.StringVar(&flagClassifierCmd, "classifier_cmd", "", "Classifier command line for the exec backend, split with shell quoting rules (default $"+envClassifierCmd+")")
	f.StringVar(&flagClassifierMode, "classifier_mode", string(classify.ModePerSection), "Dispatch mode: per-section or batch")
	f.StringVar(&flagClassifierModel, "classifier_model", "", "Model name passed to the classifier (default $"+classify.ModelEnv+")")
	f.DurationVar(&flagClassifierTimeout, "classifier_timeout", classify.DefaultTimeout, "Maximum wait for one classifier call")
	f.IntVar(&flagMaxChars, "max_chars", chunk.DefaultBudget, "Character budget of one classifier payload")
	f.StringVar(&flagVocabulary, "vocabulary", "", "YAML vocabulary file (default: built-in table)")

	// Proof flags.
	f.StringVar(&flagOutputDir, "output_dir", "", "Directory for local proofs (default: current directory)")
	f.BoolVar(&flagJSON, "json", false, "Write a JSON proof of the layout")
	f.BoolVar(&flagMarkdown, "markdown", false, "Write a Markdown proof of the layout")
	f.BoolVar(&flagPDF, "pdf", false, "Write a PDF proof of the layout")
}

func runConvert(cmd *cobra.Command, args []string) error {
	appDir := args[0]
	logger := slog.Default()

	resolveEnv(cmd)

	mode, err := classify.ParseMode(flagClassifierMode)
	if err != nil {
		return err
	}
	if flagMaxChars <= 0 {
		return fmt.Errorf("--max_chars must be positive (got %d)", flagMaxChars)
	}

	tbl, err := loadVocabulary(flagVocabulary)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	builder := strings.ToLower(strings.TrimSpace(flagBuilder))
	job := core.Job{
		ID:          flagJobID,
		Secret:      flagSecret,
		CallbackURL: flagCallbackURL,
		Builder:     builder,
		Title:       flagTitle,
		Slug:        flagSlug,
	}
	deliverer := deliver.New(nil, logger)

	backend, err := newBackend(ctx, tbl)
	if err != nil {
		err = fmt.Errorf("classifier: %w", err)
		// A complete job still hears about the failure.
		if pipeline.ValidateJob(job) == nil {
			logger.Error("job failed", "job", job.ID, "error", err)
			if ferr := deliverer.Fail(ctx, job, err); ferr != nil {
				logger.Error("reporting failure to callback", "job", job.ID, "error", ferr)
			}
		}
		return finish(cmd, nil, job, err)
	}
	logger.Debug("classifier configured", "backend", backend.Name(), "mode", mode, "max_chars", flagMaxChars)

	p := pipeline.New(pipeline.Config{
		Builder: builder,
		Vocab:   tbl,
		Classifier: classify.New(classify.Config{
			Backend:  backend,
			Mode:     mode,
			MaxChars: flagMaxChars,
			Timeout:  flagClassifierTimeout,
			Builder:  builder,
			Vocab:    tbl,
			Logger:   logger,
		}),
		Deliverer: deliverer,
		Logger:    logger,
	})

	doc, runErr := p.Run(ctx, appDir, job)
	return finish(cmd, doc, job, runErr)
}

// finish writes the requested proofs, an error layout when no layout was
// built, and returns the run error.
func finish(cmd *cobra.Command, doc *core.LayoutDocument, job core.Job, runErr error) error {
	if doc == nil && runErr != nil {
		doc = assemble.ErrorLayout(job.Builder, runErr.Error())
	}
	if err := writeProofs(cmd, doc, job.ID); err != nil {
		slog.Default().Error("writing proofs", "error", err)
		if runErr == nil {
			return err
		}
	}
	return runErr
}

// resolveEnv fills unset flags from the environment.
func resolveEnv(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("secret") {
		flagSecret = os.Getenv(envSecret)
	}
	if !flags.Changed("classifier_cmd") {
		flagClassifierCmd = os.Getenv(envClassifierCmd)
	}
	if !flags.Changed("classifier_model") {
		flagClassifierModel = os.Getenv(classify.ModelEnv)
	}
	if !flags.Changed("classifier") {
		flagClassifier = backendNone
		if strings.TrimSpace(flagClassifierCmd) != "" {
			flagClassifier = backendExec
		}
	}
}

func loadVocabulary(path string) (*vocab.Table, error) {
	if path == "" {
		return vocab.Default(), nil
	}
	tbl, err := vocab.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}
	return tbl, nil
}

// newBackend creates the classifier backend named by --classifier.
func newBackend(ctx context.Context, tbl *vocab.Table) (classify.Backend, error) {
	switch strings.ToLower(flagClassifier) {
	case backendExec:
		argv, err := classifierArgv(flagClassifierCmd)
		if err != nil {
			return nil, err
		}
		return classify.NewExec(argv, flagClassifierModel)
	case backendGemini:
		return classify.NewGemini(ctx, os.Getenv(envGeminiKey), flagClassifierModel, tbl)
	case backendNone:
		return classify.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s, %s or %s)", flagClassifier, backendExec, backendGemini, backendNone)
	}
}

// classifierArgv splits a classifier command line with shell quoting rules,
// so script paths with spaces can be quoted.
func classifierArgv(line string) ([]string, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parsing --classifier_cmd: %w", err)
	}
	return argv, nil
}

// selectRenderers returns one renderer per requested proof format.
func selectRenderers() []core.Renderer {
	var renderers []core.Renderer
	if flagJSON {
		renderers = append(renderers, render.NewJSONRenderer())
	}
	if flagMarkdown {
		renderers = append(renderers, render.NewMarkdownRenderer())
	}
	if flagPDF {
		renderers = append(renderers, render.NewPDFRenderer())
	}
	return renderers
}

func writeProofs(cmd *cobra.Command, doc *core.LayoutDocument, jobID string) error {
	renderers := selectRenderers()
	if len(renderers) == 0 {
		return nil
	}
	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	name := output.ProofName(doc, jobID)
	for _, r := range renderers {
		path, err := writer.WriteProof(name, doc, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Written: %s\n", path)
	}
	return nil
}
