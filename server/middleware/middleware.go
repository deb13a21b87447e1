// Package middleware holds the net/http middleware applied in front of the
// Gin engine: recovery, request IDs, CORS, request logging, body size limits,
// bearer auth and per-client rate limiting.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior. The server
// applies these around the whole handler tree rather than inside Gin, so
// they also cover 404s and anything mounted beside the engine.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
