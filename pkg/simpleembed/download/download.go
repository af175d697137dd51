// Package download fetches remote image bytes over HTTP.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Defaults for Config zero values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 20 << 20
	DefaultUserAgent = "simple-embed/1.0"
)

// ErrTooLarge indicates the response body exceeded the configured limit.
var ErrTooLarge = errors.New("response body too large")

// Config options for the HTTP downloader
type Config struct {
	Timeout   time.Duration // Request timeout (default: 30s)
	MaxBytes  int64         // Maximum body size (default: 20 MiB)
	UserAgent string        // User-Agent header
}

// Client downloads resources with a plain GET. It never retries.
type Client struct {
	http      *http.Client
	maxBytes  int64
	userAgent string
}

// New creates a downloader.
func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: config.Timeout},
		maxBytes:  config.MaxBytes,
		userAgent: config.UserAgent,
	}
}

// NewWithHTTPClient creates a downloader using an existing HTTP client.
func NewWithHTTPClient(client *http.Client, maxBytes int64) *Client {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Client{http: client, maxBytes: maxBytes, userAgent: DefaultUserAgent}
}

// Download returns the response body of a GET to url.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, c.maxBytes)
	}

	return data, nil
}
