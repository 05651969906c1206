package middleware

import (
	"net/http"

	"github.com/G1D0/Http-Interceptor/internal/observe"
)

// RequestID propagates or generates a request ID for each request.
// A client-supplied X-Request-ID is reused; otherwise a new UUID is
// generated. The ID is stored in the context and echoed on the response
// header, and the interceptor picks it up into its event fields.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := observe.TraceIDFromRequest(r)

			r = r.WithContext(observe.WithTraceID(r.Context(), id))
			r.Header.Set(observe.TraceHeader, id)
			w.Header().Set(observe.TraceHeader, id)

			next.ServeHTTP(w, r)
		})
	}
}
