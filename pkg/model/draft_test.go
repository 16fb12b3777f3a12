package model

import (
	"testing"
	"time"
)

func validDraft() *ReservationDraft {
	return &ReservationDraft{
		ContentID: "H123",
		RoomID:    42,
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-03",
		RoomPrice: 100000,
	}
}

func TestDraftComplete(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*ReservationDraft)
		complete bool
	}{
		{"all fields present", func(d *ReservationDraft) {}, true},
		{"missing content id", func(d *ReservationDraft) { d.ContentID = "" }, false},
		{"missing room id", func(d *ReservationDraft) { d.RoomID = 0 }, false},
		{"missing check-in", func(d *ReservationDraft) { d.CheckIn = "" }, false},
		{"missing check-out", func(d *ReservationDraft) { d.CheckOut = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(draft)
			if got := draft.Complete(); got != tt.complete {
				t.Errorf("expected complete=%v, got %v", tt.complete, got)
			}
		})
	}

	var nilDraft *ReservationDraft
	if nilDraft.Complete() {
		t.Error("nil draft must not be complete")
	}
}

func TestDraftWithLockReplacesWholeObject(t *testing.T) {
	draft := validDraft()
	meta := LockMeta{
		LockID:        "lock-1",
		InitialLockAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		ExpireTime:    time.Date(2026, 9, 1, 12, 10, 0, 0, time.UTC),
		LockExpiresAt: time.Date(2026, 9, 1, 12, 10, 0, 0, time.UTC),
	}

	next := draft.WithLock(meta)

	if next == draft {
		t.Fatal("WithLock must return a new draft, not mutate in place")
	}
	if draft.Lock != nil {
		t.Error("original draft must not gain lock metadata")
	}
	if next.Lock == nil || next.Lock.LockID != "lock-1" {
		t.Errorf("expected lock metadata on copy, got %+v", next.Lock)
	}
	if next.ContentID != draft.ContentID || next.RoomPrice != draft.RoomPrice {
		t.Error("copy must carry the original draft fields")
	}
}

func TestDraftClamps(t *testing.T) {
	draft := validDraft()
	draft.RoomPrice = 1000
	draft.PointsUsed = 300

	tests := []struct {
		name      string
		requested int64
		want      int64
	}{
		{"within remaining", 500, 500},
		{"over remaining", 900, 700},
		{"negative", -50, 0},
		{"exactly remaining", 700, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := draft.ClampCashUse(tt.requested); got != tt.want {
				t.Errorf("expected clamp to %d, got %d", tt.want, got)
			}
		})
	}

	overcommitted := &ReservationDraft{RoomPrice: 100, CashUsed: 80, PointsUsed: 50}
	if got := overcommitted.ClampPointUse(10); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := overcommitted.PayableAmount(); got != 0 {
		t.Errorf("payable amount must floor at zero, got %d", got)
	}

	draft.CashUsed = 200
	if got := draft.PayableAmount(); got != 500 {
		t.Errorf("expected payable 500, got %d", got)
	}
}
