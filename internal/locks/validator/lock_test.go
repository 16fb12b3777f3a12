package validator

import (
	"testing"

	"staylock/pkg/logger"
	"staylock/pkg/model"
)

func validRequest() *model.LockRequest {
	return &model.LockRequest{
		ContentID: "H123",
		RoomID:    42,
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-03",
		LockID:    "lock-1",
		SessionID: "session-1",
		TabID:     "tab-1",
	}
}

func TestValidateRequest(t *testing.T) {
	v := NewLockValidator(logger.Discard())

	tests := []struct {
		name    string
		mutate  func(*model.LockRequest)
		wantErr bool
	}{
		{"valid request", func(r *model.LockRequest) {}, false},
		{"one-night stay", func(r *model.LockRequest) { r.CheckOut = "2026-09-02" }, false},
		{"missing content id", func(r *model.LockRequest) { r.ContentID = "" }, true},
		{"zero room id", func(r *model.LockRequest) { r.RoomID = 0 }, true},
		{"missing lock id", func(r *model.LockRequest) { r.LockID = "" }, true},
		{"missing session id", func(r *model.LockRequest) { r.SessionID = "" }, true},
		{"missing tab id", func(r *model.LockRequest) { r.TabID = "" }, true},
		{"malformed check-in", func(r *model.LockRequest) { r.CheckIn = "01/09/2026" }, true},
		{"malformed check-out", func(r *model.LockRequest) { r.CheckOut = "next tuesday" }, true},
		{"check-out before check-in", func(r *model.LockRequest) { r.CheckOut = "2026-08-30" }, true},
		{"zero-night stay", func(r *model.LockRequest) { r.CheckOut = r.CheckIn }, true},
		{"impossible calendar date", func(r *model.LockRequest) { r.CheckIn = "2026-02-30" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateRequest(req)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	v := NewLockValidator(logger.Discard())

	valid := model.LockKey{
		ContentID: "H123",
		RoomID:    42,
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-03",
	}
	if err := v.ValidateKey(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	invalid := valid
	invalid.CheckOut = "2026-09-01"
	if err := v.ValidateKey(invalid); err == nil {
		t.Error("expected error for a zero-night stay")
	}
}

func TestValidationErrorMessages(t *testing.T) {
	v := NewLockValidator(logger.Discard())

	req := validRequest()
	req.ContentID = ""
	req.SessionID = ""

	err := v.ValidateRequest(req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verrs), verrs)
	}
	for _, fieldErr := range verrs {
		if fieldErr.Field == "" || fieldErr.Message == "" {
			t.Errorf("field error missing detail: %+v", fieldErr)
		}
	}
}
