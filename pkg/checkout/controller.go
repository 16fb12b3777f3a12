package checkout

import (
	"context"
	"sync"
	"time"

	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"
)

// State is the lifecycle controller's position in the lock protocol.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateHeld
	StateReleasing
	StateConflicted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateHeld:
		return "held"
	case StateReleasing:
		return "releasing"
	case StateConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// LockAPI is the slice of the lock client the controller needs.
type LockAPI interface {
	CreateLock(ctx context.Context, req *model.LockRequest) (*model.LockResponse, error)
	GetLockStatus(ctx context.Context, key model.LockKey) (*model.LockStatusResponse, error)
	ReleaseLock(ctx context.Context, req *model.LockRequest) error
	SendReleaseBeacon(req *model.LockRequest)
}

// ControllerConfig wires the lifecycle controller's collaborators. OnConflict
// is the notify-and-redirect hook invoked when the room is held by someone
// else; the controller has already cleared the draft and identity by the time
// it fires.
type ControllerConfig struct {
	API        LockAPI
	Identity   *IdentityProvider
	Drafts     DraftStore
	TTL        time.Duration
	Log        *logger.Logger
	OnConflict func(message string)
}

// Controller drives one checkout flow through the lock protocol: acquire on
// entry, hold while the shopper fills in payment, release exactly once on
// cancel or teardown. It never retries a conflict.
type Controller struct {
	api        LockAPI
	identity   *IdentityProvider
	drafts     DraftStore
	ttl        time.Duration
	log        *logger.Logger
	onConflict func(message string)
	now        func() time.Time

	mu        sync.Mutex
	state     State
	ensured   bool
	released  bool
	cancelled bool
	held      *model.LockRequest
}

func NewController(cfg ControllerConfig) *Controller {
	onConflict := cfg.OnConflict
	if onConflict == nil {
		onConflict = func(string) {}
	}
	return &Controller{
		api:        cfg.API,
		identity:   cfg.Identity,
		drafts:     cfg.Drafts,
		ttl:        cfg.TTL,
		log:        cfg.Log,
		onConflict: onConflict,
		now:        time.Now,
		state:      StateIdle,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ensure runs the acquisition protocol once per flow. Duplicate calls are
// no-ops, and a call before the draft carries its identifying fields is "not
// yet ready" rather than an error. The context is checked at every await
// boundary: a torn-down flow's late RPC result never mutates state.
func (c *Controller) Ensure(ctx context.Context) error {
	c.mu.Lock()
	if c.ensured {
		c.mu.Unlock()
		return nil
	}

	draft, ok := c.drafts.Load()
	if !ok || !draft.Complete() {
		c.mu.Unlock()
		return nil
	}

	c.ensured = true
	c.state = StateAcquiring
	req := c.buildRequest(draft)
	c.mu.Unlock()

	resp, err := c.api.CreateLock(ctx, req)
	if ctx.Err() != nil {
		return c.abandonAcquire(ctx.Err())
	}
	if err == nil {
		c.adopt(draft, req, resp.LockID, resp.InitialLockAt, resp.ExpireTime)
		return nil
	}

	// Acquisition was refused. Before declaring a conflict, ask who holds
	// the lock: a matching session+tab means this same shopper re-entered
	// with a regenerated lock ID and the claim is still theirs.
	c.log.Info("Lock acquisition refused, checking holder",
		"content_id", req.ContentID,
		"room_id", req.RoomID,
		"error", err,
	)

	status, statusErr := c.api.GetLockStatus(ctx, req.Key())
	if ctx.Err() != nil {
		return c.abandonAcquire(ctx.Err())
	}
	if statusErr == nil && status.IsLocked && status.LockInfo != nil && c.ownerMatches(req, status.LockInfo) {
		c.identity.SetLockID(status.LockInfo.LockID)
		req.LockID = status.LockInfo.LockID
		c.adopt(draft, req, status.LockInfo.LockID, status.LockInfo.InitialLockAt, status.LockInfo.ExpireTime)
		return nil
	}
	if statusErr != nil {
		c.log.Warn("Lock status check failed after refused acquisition", "error", statusErr)
	}

	return c.conflict()
}

func (c *Controller) ownerMatches(req *model.LockRequest, info *model.LockInfo) bool {
	if req.LockID != "" && info.LockID == req.LockID {
		return true
	}
	return info.SessionID == req.SessionID && info.TabID == req.TabID
}

// buildRequest resolves the lock window: a stored start that is missing or a
// full TTL old restarts the window at now; anything younger is kept so
// re-entry continues the same countdown.
func (c *Controller) buildRequest(draft *model.ReservationDraft) *model.LockRequest {
	id := c.identity.Identifiers()

	start := id.LockStartedAt
	if draft.Lock != nil && !draft.Lock.InitialLockAt.IsZero() {
		start = draft.Lock.InitialLockAt
	}

	now := c.now()
	if start.IsZero() || now.Sub(start) >= c.ttl {
		start = now
		c.identity.SetLockStartedAt(start)
	}

	return &model.LockRequest{
		ContentID:     draft.ContentID,
		RoomID:        draft.RoomID,
		CheckIn:       draft.CheckIn,
		CheckOut:      draft.CheckOut,
		LockID:        id.LockID,
		SessionID:     id.SessionID,
		TabID:         id.TabID,
		InitialLockAt: start,
	}
}

func (c *Controller) adopt(draft *model.ReservationDraft, req *model.LockRequest, lockID string, initialLockAt, expireTime time.Time) {
	if initialLockAt.IsZero() {
		initialLockAt = req.InitialLockAt
	}
	if expireTime.IsZero() {
		expireTime = initialLockAt.Add(c.ttl)
	}

	c.mu.Lock()
	if c.cancelled {
		// Cancel or Teardown arrived while the RPC was in flight. The
		// flow is over: give the lock back instead of resurrecting the
		// cleared draft.
		c.released = true
		c.state = StateIdle
		c.mu.Unlock()

		if lockID != "" {
			req.LockID = lockID
		}
		c.log.Info("Flow abandoned during acquisition, releasing reservation lock",
			"content_id", req.ContentID,
			"room_id", req.RoomID,
			"lock_id", req.LockID,
		)
		c.api.SendReleaseBeacon(req)
		return
	}
	c.state = StateHeld
	c.held = req
	c.mu.Unlock()

	c.identity.SetLockStartedAt(initialLockAt)

	meta := model.LockMeta{
		LockID:        lockID,
		InitialLockAt: initialLockAt,
		ExpireTime:    expireTime,
		LockExpiresAt: expireTime,
	}
	c.drafts.Save(draft.WithLock(meta))

	c.log.Info("Reservation lock held",
		"content_id", req.ContentID,
		"room_id", req.RoomID,
		"lock_id", lockID,
		"expire_time", expireTime,
	)
}

// abandonAcquire rolls back a cancelled acquisition so a fresh flow can
// ensure again, without touching the draft.
func (c *Controller) abandonAcquire(cause error) error {
	c.mu.Lock()
	c.state = StateIdle
	c.ensured = false
	c.mu.Unlock()
	return cause
}

func (c *Controller) conflict() error {
	message := "This room is currently being booked by another guest."

	c.mu.Lock()
	if c.cancelled {
		// The flow was torn down mid-acquisition; nobody is left to
		// redirect, and Cancel already cleared the draft.
		c.state = StateIdle
		c.mu.Unlock()
		return apperrors.Conflict(message)
	}
	c.state = StateConflicted
	c.mu.Unlock()

	c.drafts.Clear()
	c.identity.ClearLockState()

	c.log.Info("Reservation lock conflicted, clearing draft")
	c.onConflict(message)
	return apperrors.Conflict(message)
}

// Cancel releases the held lock explicitly, then clears the draft so
// navigation can proceed. Release failure is logged, not surfaced: the draft
// is gone either way and the server TTL covers the leftover lock.
func (c *Controller) Cancel(ctx context.Context) {
	req, ok := c.takeRelease()
	if !ok {
		c.markCancelled()
		c.drafts.Clear()
		return
	}

	if err := c.api.ReleaseLock(ctx, req); err != nil {
		c.log.Warn("Failed to release reservation lock on cancel",
			"content_id", req.ContentID,
			"room_id", req.RoomID,
			"lock_id", req.LockID,
			"error", err,
		)
	}

	c.drafts.Clear()
	c.identity.ClearLockState()
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

// Teardown fires the best-effort beacon release for a held lock. It never
// blocks and never waits for confirmation.
func (c *Controller) Teardown() {
	req, ok := c.takeRelease()
	if !ok {
		c.markCancelled()
		return
	}
	c.api.SendReleaseBeacon(req)
}

// markCancelled flags an in-flight acquisition as abandoned so its late
// result cannot resurrect the flow. A flow that is not mid-acquisition has
// nothing to flag.
func (c *Controller) markCancelled() {
	c.mu.Lock()
	if c.state == StateAcquiring {
		c.cancelled = true
	}
	c.mu.Unlock()
}

// takeRelease claims the single release permitted per lifecycle. Only a held,
// not-yet-released lock yields a request; every later caller gets a no-op.
func (c *Controller) takeRelease() (*model.LockRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateHeld || c.released || c.held == nil {
		return nil, false
	}
	c.released = true
	c.state = StateReleasing
	return c.held, true
}
