package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/voicenote/errors"
)

// RequestLocale returns the first language tag of Accept-Language, or
// fallback when the header is absent.
func RequestLocale(r *http.Request, fallback string) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return fallback
	}
	tag, _, _ := strings.Cut(header, ",")
	tag, _, _ = strings.Cut(tag, ";")
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "*" {
		return fallback
	}
	return tag
}

// WriteError answers with err's status and its localized error body.
// Errors that are not an AppError are reported as INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	locale := RequestLocale(r, apperrors.DefaultLocale)
	writeJSON(w, appErr.HTTPStatus, appErr.ToLocalizedResponse(locale))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
