package checkout

import (
	"testing"
	"time"
)

func TestIdentityStableAcrossCalls(t *testing.T) {
	p := NewIdentityProvider()

	first := p.Identifiers()
	second := p.Identifiers()

	if first.SessionID == "" || first.TabID == "" || first.LockID == "" {
		t.Fatalf("identity fields must be minted on first use: %+v", first)
	}
	if first.SessionID != second.SessionID || first.TabID != second.TabID || first.LockID != second.LockID {
		t.Error("identity must be stable across calls")
	}
	if !first.LockStartedAt.Equal(second.LockStartedAt) {
		t.Error("window start must not restart on re-read")
	}
}

func TestIdentityDistinctPerProvider(t *testing.T) {
	a := NewIdentityProvider().Identifiers()
	b := NewIdentityProvider().Identifiers()

	if a.SessionID == b.SessionID || a.TabID == b.TabID {
		t.Error("separate providers must not share identity")
	}
}

func TestClearLockStateKeepsSessionIdentity(t *testing.T) {
	p := NewIdentityProvider()
	before := p.Identifiers()

	p.ClearLockState()
	after := p.Identifiers()

	if after.SessionID != before.SessionID || after.TabID != before.TabID {
		t.Error("session and tab identity must survive a lock-state clear")
	}
	if after.LockID == before.LockID {
		t.Error("a cleared provider must mint a fresh lock id")
	}
}

func TestSetLockStartedAtPinsWindow(t *testing.T) {
	p := NewIdentityProvider()
	pinned := time.Date(2026, 9, 1, 11, 55, 0, 0, time.UTC)

	p.SetLockStartedAt(pinned)

	if got := p.Identifiers().LockStartedAt; !got.Equal(pinned) {
		t.Errorf("expected pinned window start %v, got %v", pinned, got)
	}
}

func TestSetLockIDPinsAdoptedLock(t *testing.T) {
	p := NewIdentityProvider()
	p.Identifiers()

	p.SetLockID("adopted-lock")

	if got := p.Identifiers().LockID; got != "adopted-lock" {
		t.Errorf("expected adopted lock id, got %q", got)
	}
}
