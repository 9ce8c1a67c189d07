package middleware

import (
	"net/http"
	"strings"
)

type BodyLimitOverride struct {
	PathPrefix string
	MaxBytes   int64
}

// LimitBodyBytesWithOverrides caps request bodies at defaultMax, or at the
// first override whose prefix matches the path with or without /api.
// A declared Content-Length above the cap is refused before any read.
func LimitBodyBytesWithOverrides(defaultMax int64, overrides []BodyLimitOverride) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			maxBytes := bodyLimitFor(r.URL.Path, defaultMax, overrides)
			if maxBytes > 0 {
				if r.ContentLength > maxBytes {
					writeError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", map[string]any{"maxBytes": maxBytes})
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bodyLimitFor(path string, defaultMax int64, overrides []BodyLimitOverride) int64 {
	apiPath := strings.TrimPrefix(path, "/api")
	for _, override := range overrides {
		if override.PathPrefix == "" || override.MaxBytes <= 0 {
			continue
		}
		if strings.HasPrefix(path, override.PathPrefix) || strings.HasPrefix(apiPath, override.PathPrefix) {
			return override.MaxBytes
		}
	}
	return defaultMax
}
