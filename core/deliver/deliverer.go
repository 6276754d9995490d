// Package deliver implements the Deliverer interface.
// It POSTs the finished layout, or a terminal error, to the job callback
// with sensible HTTP defaults.
package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "layoutpipe/1.0 (https://github.com/gaurav-prasanna/layoutpipe)"
)

// ErrDelivery marks a callback POST that failed in transport or was answered
// with a non-2xx status.
var ErrDelivery = errors.New("delivery failed")

// callbackBody is the JSON body of every callback POST. Layout is null on
// the error path.
type callbackBody struct {
	JobID  string               `json:"job_id"`
	Secret string               `json:"secret"`
	Layout *core.LayoutDocument `json:"layout"`
	Error  string               `json:"error,omitempty"`
}

// HTTPDeliverer posts to job callbacks.
type HTTPDeliverer struct {
	client *http.Client
	logger *slog.Logger
}

// New creates an HTTPDeliverer. A nil client gets a 30s timeout; a nil
// logger uses slog.Default().
func New(client *http.Client, logger *slog.Logger) *HTTPDeliverer {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPDeliverer{client: client, logger: logger}
}

// Deliver sends the layout. Any 2xx answer is success.
func (d *HTTPDeliverer) Deliver(ctx context.Context, job core.Job, doc *core.LayoutDocument) error {
	if err := d.post(ctx, job, callbackBody{JobID: job.ID, Secret: job.Secret, Layout: doc}); err != nil {
		return err
	}
	d.logger.Info("delivered layout", "job", job.ID, "sections", len(doc.Sections))
	return nil
}

// Fail sends the error-path body {job_id, secret, layout: null, error}.
func (d *HTTPDeliverer) Fail(ctx context.Context, job core.Job, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	if err := d.post(ctx, job, callbackBody{JobID: job.ID, Secret: job.Secret, Error: msg}); err != nil {
		return err
	}
	d.logger.Info("reported job failure", "job", job.ID, "error", msg)
	return nil
}

func (d *HTTPDeliverer) post(ctx context.Context, job core.Job, body callbackBody) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding body: %w", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.CallbackURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting to %s: %w", ErrDelivery, job.CallbackURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if s := strings.TrimSpace(string(snippet)); s != "" {
			return fmt.Errorf("%w: unexpected status %d from %s: %s", ErrDelivery, resp.StatusCode, job.CallbackURL, s)
		}
		return fmt.Errorf("%w: unexpected status %d from %s", ErrDelivery, resp.StatusCode, job.CallbackURL)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
