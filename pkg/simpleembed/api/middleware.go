package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/simple-embed/pkg/simpleembed"
)

// PrincipalHeader carries the acting user's ID.
const PrincipalHeader = "X-Principal-ID"

// PrincipalMiddleware stores the principal from PrincipalHeader in the
// request context. Cached assets are owned by this principal. Missing
// headers pass through; malformed ones are rejected.
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(PrincipalHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid "+PrincipalHeader)
			return
		}
		next.ServeHTTP(w, r.WithContext(simpleembed.ContextWithPrincipal(r.Context(), id)))
	})
}

// RequestSizeLimitMiddleware caps request bodies at maxBytes
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
