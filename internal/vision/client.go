// Package vision talks to an OpenAI-compatible chat-completions
// endpoint with image inputs. The client is deliberately single-shot:
// one Complete call is exactly one HTTP request, which keeps the
// per-run call accounting exact. Callers own their retry policies.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Request is one vision call.
type Request struct {
	// Prompt is the user-role text.
	Prompt string

	// ImageDataURL attaches a screenshot. Empty sends text only.
	ImageDataURL string

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Temperature pins sampling randomness.
	Temperature float32
}

// Client issues vision requests and returns the model's text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// APIError is a failure the endpoint itself reported.
type APIError struct {
	// StatusCode is the HTTP status, or 0 when the error arrived in
	// a 200 body.
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// Retryable reports whether err is worth retrying: rate limits,
// server-side failures, and transport errors qualify; other endpoint
// rejections do not.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return err != nil
}

// DataURL encodes raw image bytes as a data URL, sniffing the MIME
// type from the content.
func DataURL(data []byte) string {
	mime := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// Counter wraps a Client and counts every request issued through it.
// Each run owns one, so totals never leak across runs.
type Counter struct {
	client Client
	calls  atomic.Int64
}

// NewCounter wraps client.
func NewCounter(client Client) *Counter {
	return &Counter{client: client}
}

// Complete delegates to the wrapped client, counting the call whether
// or not it succeeds.
func (c *Counter) Complete(ctx context.Context, req Request) (string, error) {
	c.calls.Add(1)
	return c.client.Complete(ctx, req)
}

// Calls returns how many requests have been issued.
func (c *Counter) Calls() int {
	return int(c.calls.Load())
}
