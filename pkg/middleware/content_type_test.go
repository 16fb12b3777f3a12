package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"staylock/pkg/logger"
)

func TestContentTypeValidation(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := ContentTypeValidation(logger.Discard(), "/api/v1/reservations/unlock")(next)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		wantStatus  int
	}{
		{"json post passes", http.MethodPost, "/api/v1/reservations/lock", "application/json", http.StatusOK},
		{"json with charset passes", http.MethodPost, "/api/v1/reservations/lock", "application/json; charset=utf-8", http.StatusOK},
		{"text post rejected", http.MethodPost, "/api/v1/reservations/lock", "text/plain", http.StatusUnsupportedMediaType},
		{"missing content type rejected", http.MethodPost, "/api/v1/reservations/lock", "", http.StatusUnsupportedMediaType},
		{"get never checked", http.MethodGet, "/api/v1/reservations/lock/status", "", http.StatusOK},
		{"beacon path exempt for text", http.MethodPost, "/api/v1/reservations/unlock", "text/plain", http.StatusOK},
		{"beacon path exempt without header", http.MethodPost, "/api/v1/reservations/unlock", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
