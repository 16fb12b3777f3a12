package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Identifiers is the full identity a checkout flow presents to the lock
// authority. SessionID and TabID outlive individual lock attempts; LockID and
// LockStartedAt belong to one lock lifecycle.
type Identifiers struct {
	SessionID     string
	TabID         string
	LockID        string
	LockStartedAt time.Time
}

// IdentityProvider mints and holds the caller-side lock identity. SessionID
// and TabID are generated once per provider and stay fixed, so the authority
// can recognize the same flow even after the lock ID is regenerated. Pure
// local state, no I/O.
type IdentityProvider struct {
	mu            sync.Mutex
	sessionID     string
	tabID         string
	lockID        string
	lockStartedAt time.Time
	now           func() time.Time
}

func NewIdentityProvider() *IdentityProvider {
	return &IdentityProvider{
		sessionID: uuid.New().String(),
		tabID:     uuid.New().String(),
		now:       time.Now,
	}
}

// Identifiers returns the current identity, minting a lock ID and window
// start on first use. A pinned window start survives re-entry so the lock
// window does not restart with every call.
func (p *IdentityProvider) Identifiers() Identifiers {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lockID == "" {
		p.lockID = uuid.New().String()
	}
	if p.lockStartedAt.IsZero() {
		p.lockStartedAt = p.now()
	}

	return Identifiers{
		SessionID:     p.sessionID,
		TabID:         p.tabID,
		LockID:        p.lockID,
		LockStartedAt: p.lockStartedAt,
	}
}

// SetLockStartedAt pins the lock window start, typically to the authoritative
// value the server returned.
func (p *IdentityProvider) SetLockStartedAt(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lockStartedAt = t
}

// SetLockID pins the lock ID, typically after adopting a lock the server
// reports as already owned by this session.
func (p *IdentityProvider) SetLockID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lockID = id
}

// ClearLockState wipes the per-lifecycle identity so the next entry mints a
// fresh lock ID and window. Session and tab identity are kept.
func (p *IdentityProvider) ClearLockState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lockID = ""
	p.lockStartedAt = time.Time{}
}
