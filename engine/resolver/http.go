package resolver

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
)

// HTTP resolves http(s) references. Transient failures are retried with
// fibonacci backoff; the expansion core never retries on its own.
type HTTP struct {
	client     *resty.Client
	maxRetries uint64
}

// NewHTTP creates an HTTP resolver with default timeout and retry policy.
func NewHTTP(opts ...func(*HTTP)) *HTTP {
	h := &HTTP{
		client: resty.New().
			SetTimeout(defaultTimeout).
			SetHeader("User-Agent", "unfurl-resolver/1.0"),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) func(*HTTP) {
	return func(h *HTTP) {
		h.client.SetTimeout(d)
	}
}

// WithMaxRetries sets how often a failed fetch is retried.
func WithMaxRetries(n uint64) func(*HTTP) {
	return func(h *HTTP) {
		h.maxRetries = n
	}
}

func (h *HTTP) Resolve(ctx context.Context, reference string) (*Content, error) {
	var content *Content
	backoff := retry.WithMaxRetries(h.maxRetries, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := h.client.R().SetContext(ctx).Get(reference)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode() >= 500 {
			return retry.RetryableError(errors.Errorf("HTTP %d when fetching %s", resp.StatusCode(), reference))
		}
		if resp.StatusCode() != 200 {
			return errors.Errorf("HTTP %d when fetching %s", resp.StatusCode(), reference)
		}
		contentType := resp.Header().Get("Content-Type")
		if contentType == "" {
			contentType = "application/yaml"
		}
		content = &Content{Data: resp.Body(), Type: contentType}
		return nil
	})
	if err != nil {
		return nil, &UnresolvedReferenceError{Reference: reference, Err: err}
	}
	return content, nil
}
