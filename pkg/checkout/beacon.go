package checkout

import (
	"sync"
	"time"

	"staylock/pkg/logger"
)

// DefaultSettleDelay is how long a flow must survive before its teardown is
// treated as a real departure. Frameworks that mount, unmount and immediately
// remount a checkout view produce a teardown inside this window; releasing
// the lock then would strand the remounted flow.
const DefaultSettleDelay = 100 * time.Millisecond

// UnloadGuard wraps a controller's teardown with the settle rule: teardown
// before the settle timer fires releases nothing, teardown after it releases
// exactly once no matter how many unload triggers fire.
type UnloadGuard struct {
	controller *Controller
	log        *logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	settled bool
	fired   bool
}

func NewUnloadGuard(controller *Controller, log *logger.Logger) *UnloadGuard {
	return &UnloadGuard{
		controller: controller,
		log:        log,
	}
}

// Arm starts the settle timer. Arming an already armed guard is a no-op.
func (g *UnloadGuard) Arm(settleDelay time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil || g.settled {
		return
	}
	g.timer = time.AfterFunc(settleDelay, g.settle)
}

func (g *UnloadGuard) settle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settled = true
}

// Settled reports whether the flow has outlived the settle window.
func (g *UnloadGuard) Settled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settled
}

// Teardown handles an unload trigger. Before settling it only stops the
// timer; after settling it forwards to the controller's beacon release once.
func (g *UnloadGuard) Teardown() {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if !g.settled {
		g.mu.Unlock()
		g.log.Info("Teardown before settle, keeping reservation lock")
		return
	}
	if g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.mu.Unlock()

	g.controller.Teardown()
}
