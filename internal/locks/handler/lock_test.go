package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockLockService struct {
	acquireFunc func(ctx context.Context, req *model.LockRequest) (*model.LockResponse, error)
	statusFunc  func(ctx context.Context, key model.LockKey) (*model.LockStatusResponse, error)
	releaseFunc func(ctx context.Context, req *model.LockRequest) error
}

func (m *mockLockService) Acquire(ctx context.Context, req *model.LockRequest) (*model.LockResponse, error) {
	return m.acquireFunc(ctx, req)
}

func (m *mockLockService) Status(ctx context.Context, key model.LockKey) (*model.LockStatusResponse, error) {
	return m.statusFunc(ctx, key)
}

func (m *mockLockService) Release(ctx context.Context, req *model.LockRequest) error {
	return m.releaseFunc(ctx, req)
}

func newTestRouter(svc *mockLockService) *httprouter.Router {
	router := httprouter.New()
	NewLockHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func lockRequestBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(model.LockRequest{
		ContentID: "H123",
		RoomID:    42,
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-03",
		LockID:    "lock-1",
		SessionID: "session-1",
		TabID:     "tab-1",
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestAcquireEndpointSuccess(t *testing.T) {
	initialLockAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockLockService{
		acquireFunc: func(_ context.Context, req *model.LockRequest) (*model.LockResponse, error) {
			if req.ContentID != "H123" || req.RoomID != 42 {
				t.Errorf("unexpected request: %+v", req)
			}
			return &model.LockResponse{
				Success:       true,
				LockID:        req.LockID,
				InitialLockAt: initialLockAt,
				ExpireTime:    initialLockAt.Add(10 * time.Minute),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/lock", lockRequestBody(t))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.LockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.LockID != "lock-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAcquireEndpointConflict(t *testing.T) {
	svc := &mockLockService{
		acquireFunc: func(_ context.Context, _ *model.LockRequest) (*model.LockResponse, error) {
			return nil, apperrors.Conflict("This room is currently being booked by another guest. Please try again later.")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/lock", lockRequestBody(t))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp model.LockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("conflict response must not report success")
	}
	if resp.Message == "" {
		t.Error("conflict response must carry a message")
	}
}

func TestAcquireEndpointInvalidBody(t *testing.T) {
	svc := &mockLockService{
		acquireFunc: func(_ context.Context, _ *model.LockRequest) (*model.LockResponse, error) {
			t.Fatal("service must not be called for a malformed body")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/lock", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	svc := &mockLockService{
		statusFunc: func(_ context.Context, key model.LockKey) (*model.LockStatusResponse, error) {
			if key.ContentID != "H123" || key.RoomID != 42 || key.CheckIn != "2026-09-01" || key.CheckOut != "2026-09-03" {
				t.Errorf("unexpected key: %+v", key)
			}
			return &model.LockStatusResponse{
				IsLocked: true,
				LockInfo: &model.LockInfo{LockID: "lock-1", SessionID: "session-1", TabID: "tab-1"},
			}, nil
		},
	}

	target := "/api/v1/reservations/lock/status?contentId=H123&roomId=42&checkIn=2026-09-01&checkOut=2026-09-03"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.LockStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsLocked || resp.LockInfo == nil || resp.LockInfo.LockID != "lock-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestStatusEndpointBadRoomID(t *testing.T) {
	svc := &mockLockService{
		statusFunc: func(_ context.Context, _ model.LockKey) (*model.LockStatusResponse, error) {
			t.Fatal("service must not be called for a malformed room id")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/lock/status?contentId=H123&roomId=abc", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReleaseEndpoint(t *testing.T) {
	released := false
	svc := &mockLockService{
		releaseFunc: func(_ context.Context, req *model.LockRequest) error {
			released = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/unlock", lockRequestBody(t))
	// Beacon transports post text/plain; the handler must not care.
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !released {
		t.Error("expected release to reach the service")
	}

	var resp model.UnlockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success response")
	}
}

func TestReleaseEndpointNonOwner(t *testing.T) {
	svc := &mockLockService{
		releaseFunc: func(_ context.Context, _ *model.LockRequest) error {
			return apperrors.Conflict("Reservation lock is held by another session")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/unlock", lockRequestBody(t))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
