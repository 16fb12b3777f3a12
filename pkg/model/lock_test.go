package model

import (
	"testing"
	"time"
)

func TestLockKeyString(t *testing.T) {
	key := LockKey{
		ContentID: "H123",
		RoomID:    42,
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-03",
	}

	want := "H123_42_2026-09-01_2026-09-03"
	if got := key.String(); got != want {
		t.Errorf("expected key %q, got %q", want, got)
	}
}

func TestReservationLockExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expireTime time.Time
		expired    bool
	}{
		{"future expiry", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past expiry", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lock := &ReservationLock{ExpireTime: tt.expireTime}
			if got := lock.Expired(now); got != tt.expired {
				t.Errorf("expected expired=%v, got %v", tt.expired, got)
			}
		})
	}
}

func TestReservationLockOwnedBy(t *testing.T) {
	lock := &ReservationLock{
		LockID:    "lock-1",
		SessionID: "session-1",
		TabID:     "tab-1",
	}

	tests := []struct {
		name      string
		lockID    string
		sessionID string
		tabID     string
		owned     bool
	}{
		{"matching lock id", "lock-1", "other-session", "other-tab", true},
		{"matching session and tab, different lock id", "lock-2", "session-1", "tab-1", true},
		{"matching session only", "lock-2", "session-1", "other-tab", false},
		{"matching tab only", "lock-2", "other-session", "tab-1", false},
		{"nothing matches", "lock-2", "other-session", "other-tab", false},
		{"empty lock id does not match empty", "", "other-session", "other-tab", false},
		{"empty session and tab never match", "lock-2", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lock.OwnedBy(tt.lockID, tt.sessionID, tt.tabID); got != tt.owned {
				t.Errorf("expected owned=%v, got %v", tt.owned, got)
			}
		})
	}
}

func TestLockRequestKey(t *testing.T) {
	req := &LockRequest{
		ContentID: "H123",
		RoomID:    7,
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-02",
		LockID:    "lock-1",
	}

	key := req.Key()
	if key.ContentID != "H123" || key.RoomID != 7 || key.CheckIn != "2026-09-01" || key.CheckOut != "2026-09-02" {
		t.Errorf("unexpected key: %+v", key)
	}
}
