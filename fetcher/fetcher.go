// Package fetcher retrieves challenge tile images over HTTP. Transient
// failures are retried with exponential backoff; permanent failures (4xx)
// surface immediately as recoverable fetch errors for the caller's loop.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/types"
)

// Default client tuning.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxTries = 4
)

// Client fetches raw bytes and decoded images by URL.
type Client struct {
	http     *http.Client
	maxTries uint
	logger   *zap.Logger
}

// New creates a Client. Non-positive arguments fall back to defaults.
func New(timeout time.Duration, maxTries uint, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxTries == 0 {
		maxTries = DefaultMaxTries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		maxTries: maxTries,
		logger:   logger.With(zap.String("component", "fetcher")),
	}
}

// Fetch retrieves the byte payload at url, retrying transient failures.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return nil, types.NewError(types.ErrFetchFailed, fmt.Sprintf("fetching %s", url)).
			WithRetryable(true).
			WithCause(err)
	}

	c.logger.Debug("fetched image bytes", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

// FetchImage retrieves and decodes an image at url.
func (c *Client) FetchImage(ctx context.Context, url string) (image.Image, error) {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.ErrFetchFailed, fmt.Sprintf("decoding %s", url)).
			WithRetryable(true).
			WithCause(err)
	}
	return img, nil
}
