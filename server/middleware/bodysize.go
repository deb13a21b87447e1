package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/util"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
const DefaultMaxBodySize = 32 * 1024 * 1024 // 32MB

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "10MB", "512KB", "1GB"). An unparsable size falls back to
// DefaultMaxBodySize. A declared Content-Length over the limit is refused up
// front; otherwise reads past the limit fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size, err := util.ParseSize(maxSize)
	if err != nil {
		size = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				WriteError(w, r, apperrors.PayloadTooLarge(size))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
