package middleware

import (
	"net/http"
	"strings"

	"staylock/pkg/logger"
)

// ContentTypeValidation requires application/json on mutating requests.
// Paths listed in beaconPaths are exempt: browser beacon transports send
// text/plain (or no Content-Type at all) and cannot be configured otherwise.
func ContentTypeValidation(log *logger.Logger, beaconPaths ...string) func(http.Handler) http.Handler {
	exempt := make(map[string]struct{}, len(beaconPaths))
	for _, p := range beaconPaths {
		exempt[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r.Method) {
				if _, ok := exempt[r.URL.Path]; !ok {
					contentType := extractContentType(r.Header.Get("Content-Type"))

					if contentType != "application/json" {
						rejectInvalidContentType(w, log, r, contentType)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.Split(header, ";")
	return strings.TrimSpace(parts[0])
}

func rejectInvalidContentType(w http.ResponseWriter, log *logger.Logger, r *http.Request, contentType string) {
	log.Warn("Invalid Content-Type header",
		"request_id", RequestID(r.Context()),
		"content_type", contentType,
		"path", r.URL.Path,
		"method", r.Method,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnsupportedMediaType)
	_, _ = w.Write([]byte(`{"error":"Content-Type must be application/json"}`))
}
