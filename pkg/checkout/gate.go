package checkout

import (
	"context"
	"time"
)

// Customer is the opaque projection of the profile service the gate needs.
type Customer struct {
	ID   string
	Name string
}

// CustomerResolver looks up the signed-in customer. The profile service
// itself is somebody else's problem; the gate only cares whether a customer
// came back.
type CustomerResolver interface {
	Resolve(ctx context.Context) (*Customer, error)
}

// Readiness is the gate's verdict on whether payment may proceed.
type Readiness int

const (
	ReadinessLoading Readiness = iota
	ReadinessSignInRequired
	ReadinessRedirecting
	ReadinessReady
)

func (r Readiness) String() string {
	switch r {
	case ReadinessLoading:
		return "loading"
	case ReadinessSignInRequired:
		return "sign_in_required"
	case ReadinessRedirecting:
		return "redirecting"
	case ReadinessReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Gate decides when the checkout flow may take payment: the draft must be
// loaded, the customer resolved, and the lock held.
type Gate struct {
	drafts     DraftStore
	controller *Controller
	customers  CustomerResolver
	now        func() time.Time
}

func NewGate(drafts DraftStore, controller *Controller, customers CustomerResolver) *Gate {
	return &Gate{
		drafts:     drafts,
		controller: controller,
		customers:  customers,
		now:        time.Now,
	}
}

// Check evaluates the three preconditions. A conflicted or missing draft
// reports redirecting: the flow is on its way out, not waiting.
func (g *Gate) Check(ctx context.Context) (Readiness, error) {
	state := g.controller.State()
	if state == StateConflicted || state == StateReleasing {
		return ReadinessRedirecting, nil
	}

	draft, ok := g.drafts.Load()
	if !ok || !draft.Complete() {
		return ReadinessRedirecting, nil
	}

	customer, err := g.customers.Resolve(ctx)
	if err != nil {
		return ReadinessLoading, err
	}
	if customer == nil {
		return ReadinessSignInRequired, nil
	}

	if state != StateHeld {
		return ReadinessLoading, nil
	}
	return ReadinessReady, nil
}

// RemainingTTL is the countdown shown to the shopper: time left on the held
// lock, floored at zero.
func (g *Gate) RemainingTTL() time.Duration {
	draft, ok := g.drafts.Load()
	if !ok || draft.Lock == nil {
		return 0
	}

	remaining := draft.Lock.LockExpiresAt.Sub(g.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Quote summarizes the payable amounts derived from the draft's pricing
// snapshot.
type Quote struct {
	RoomPrice  int64
	CashUsed   int64
	PointsUsed int64
	Payable    int64
}

func (g *Gate) Quote() (Quote, bool) {
	draft, ok := g.drafts.Load()
	if !ok {
		return Quote{}, false
	}
	return Quote{
		RoomPrice:  draft.RoomPrice,
		CashUsed:   draft.CashUsed,
		PointsUsed: draft.PointsUsed,
		Payable:    draft.PayableAmount(),
	}, true
}

// ApplyCash stores a clamped cash usage on the draft by whole-object
// replacement.
func (g *Gate) ApplyCash(amount int64) {
	draft, ok := g.drafts.Load()
	if !ok {
		return
	}
	next := *draft
	next.CashUsed = draft.ClampCashUse(amount)
	g.drafts.Save(&next)
}

// ApplyPoints stores a clamped point usage on the draft.
func (g *Gate) ApplyPoints(amount int64) {
	draft, ok := g.drafts.Load()
	if !ok {
		return
	}
	next := *draft
	next.PointsUsed = draft.ClampPointUse(amount)
	g.drafts.Save(&next)
}
