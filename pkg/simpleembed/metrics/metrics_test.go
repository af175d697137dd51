package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-embed/pkg/simpleembed"
)

func TestInstrumentFetcher(t *testing.T) {
	m := New()
	f := m.InstrumentFetcher(simpleembed.FetcherFunc(func(ctx context.Context, url string) (simpleembed.RawMetadata, error) {
		if url == "bad" {
			return nil, errors.New("boom")
		}
		return simpleembed.RawMetadata{"type": "link"}, nil
	}))

	ctx := context.Background()
	raw, err := f.FetchFrom(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "link", raw["type"])
	_, err = f.FetchFrom(ctx, "bad")
	assert.Error(t, err)
	_, _ = f.FetchFrom(ctx, "bad")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("error")))
}

func TestMiddleware(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/embeds/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/embeds/1", "/embeds/2", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/embeds/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "simpleembed_http_requests_total"))
}
