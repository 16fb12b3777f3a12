package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForHealthy(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewHttpClient(server.URL, time.Second)
	if err := c.WaitForHealthy(2 * time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() == 0 {
		t.Error("expected at least one health probe")
	}
}

func TestWaitForHealthyGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewHttpClient(server.URL, time.Second)
	if err := c.WaitForHealthy(100 * time.Millisecond); err == nil {
		t.Fatal("expected an error when the service never reports healthy")
	}
}
