package classify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrNoBackend is returned by backends that never classify anything.
var ErrNoBackend = errors.New("no classifier backend configured")

// ModelEnv names the variable the classifier process reads its model from.
const ModelEnv = "GLB_LLM_MODEL"

// ExecBackend runs one classifier subprocess per call. The payload is written
// to its stdin and its stdout is the answer.
type ExecBackend struct {
	argv  []string
	model string
}

// NewExec creates an ExecBackend for the command line argv. model, when set,
// is passed to the process as GLB_LLM_MODEL.
func NewExec(argv []string, model string) (*ExecBackend, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, fmt.Errorf("classifier command is empty")
	}
	return &ExecBackend{argv: argv, model: model}, nil
}

// Name implements Backend.
func (e *ExecBackend) Name() string { return "exec" }

// Invoke implements Backend. The process is killed when ctx is done.
func (e *ExecBackend) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = os.Environ()
	if e.model != "" {
		cmd.Env = append(cmd.Env, ModelEnv+"="+e.model)
	}
	// Children that keep stdout open must not hold up the run after a kill.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("running %s: %w: %s", e.argv[0], err, msg)
		}
		return nil, fmt.Errorf("running %s: %w", e.argv[0], err)
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// Noop is a backend that never answers. Every section falls back.
type Noop struct{}

// Name implements Backend.
func (Noop) Name() string { return "none" }

// Invoke implements Backend.
func (Noop) Invoke(context.Context, []byte) ([]byte, error) { return nil, ErrNoBackend }
