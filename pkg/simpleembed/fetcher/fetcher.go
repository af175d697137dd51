// Package fetcher provides simpleembed.Fetcher adapters.
//
// The library does not speak provider protocols itself. Relay forwards the
// lookup to an external metadata service that returns the normalized record
// as a JSON object; Static serves fixed records for development and tests.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tendant/simple-embed/pkg/simpleembed"
)

// ErrNoRecord indicates Static has no record for a URL.
var ErrNoRecord = errors.New("no metadata record for url")

// Static serves metadata from an in-memory table.
type Static struct {
	mu      sync.RWMutex
	records map[string]simpleembed.RawMetadata
}

// NewStatic creates a Static fetcher with optional initial records.
func NewStatic(records map[string]simpleembed.RawMetadata) *Static {
	s := &Static{records: make(map[string]simpleembed.RawMetadata)}
	for k, v := range records {
		s.records[k] = v
	}
	return s
}

// Set stores the record served for url.
func (s *Static) Set(url string, raw simpleembed.RawMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[url] = raw
}

// FetchFrom returns a copy of the record for url.
func (s *Static) FetchFrom(ctx context.Context, url string) (simpleembed.RawMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.records[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, url)
	}
	return raw.Clone(), nil
}

// RelayConfig options for the relay fetcher
type RelayConfig struct {
	Endpoint string        // Base URL of the metadata service
	Param    string        // Query parameter carrying the target URL (default: "url")
	Timeout  time.Duration // Request timeout (default: 15s)
	APIKey   string        // Optional bearer token
}

// Relay asks an external metadata service for the record of a URL:
// GET {Endpoint}?{Param}={url} returning a JSON object.
type Relay struct {
	endpoint *url.URL
	param    string
	apiKey   string
	client   *http.Client
}

// NewRelay creates a relay fetcher.
func NewRelay(config RelayConfig) (*Relay, error) {
	if config.Endpoint == "" {
		return nil, errors.New("relay endpoint is required")
	}
	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid relay endpoint: %w", err)
	}
	if config.Param == "" {
		config.Param = "url"
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Relay{
		endpoint: endpoint,
		param:    config.Param,
		apiKey:   config.APIKey,
		client:   &http.Client{Timeout: config.Timeout},
	}, nil
}

// FetchFrom calls the relay and decodes its JSON object response.
func (r *Relay) FetchFrom(ctx context.Context, target string) (simpleembed.RawMetadata, error) {
	u := *r.endpoint
	q := u.Query()
	q.Set(r.param, target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw simpleembed.RawMetadata
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}
	return raw, nil
}
