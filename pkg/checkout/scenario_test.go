package checkout

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	lockserrors "staylock/internal/locks/errors"
	"staylock/internal/locks/events"
	"staylock/internal/locks/handler"
	"staylock/internal/locks/repository"
	"staylock/internal/locks/service"
	"staylock/internal/locks/validator"
	"staylock/pkg/client"
	"staylock/pkg/config"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

// memoryLockRepository gives the authority service real mutual-exclusion
// semantics without a database: one document per key, duplicate inserts fail
// the way the Mongo driver reports them.
type memoryLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.ReservationLock
}

var _ repository.LockRepository = (*memoryLockRepository)(nil)

func newMemoryLockRepository() *memoryLockRepository {
	return &memoryLockRepository{locks: make(map[string]model.ReservationLock)}
}

func (r *memoryLockRepository) Insert(_ context.Context, lock *model.ReservationLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := lock.Key().String()
	if _, exists := r.locks[id]; exists {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	lock.ID = id
	r.locks[id] = *lock
	return nil
}

func (r *memoryLockRepository) FindByKey(_ context.Context, key model.LockKey) (*model.ReservationLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, exists := r.locks[key.String()]
	if !exists {
		return nil, lockserrors.ErrNotFound
	}
	return &lock, nil
}

func (r *memoryLockRepository) Delete(_ context.Context, key model.LockKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.locks[key.String()]; !exists {
		return lockserrors.ErrNotFound
	}
	delete(r.locks, key.String())
	return nil
}

func (r *memoryLockRepository) DeleteExpired(_ context.Context, key model.LockKey, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, exists := r.locks[key.String()]
	if !exists || lock.ExpireTime.After(now) {
		return false, nil
	}
	delete(r.locks, key.String())
	return true, nil
}

func startAuthority(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{LockTTL: 10 * time.Minute, Log: log}
	svc := service.NewLockService(newMemoryLockRepository(), validator.NewLockValidator(log), events.NopPublisher{}, cfg)

	router := httprouter.New()
	handler.NewLockHandler(svc, log).RegisterRoutes(router)
	handler.NewHealthHandler(nil, log).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func authorityConfig(server *httptest.Server) *config.Config {
	return &config.Config{
		LockAuthorityURL:  server.URL,
		LockRPCTimeout:    time.Second,
		LockBeaconTimeout: time.Second,
		Log:               logger.Discard(),
	}
}

func newFlow(t *testing.T, server *httptest.Server) *fixture {
	t.Helper()

	cfg := authorityConfig(server)
	if err := client.NewHttpClient(cfg.LockAuthorityURL, cfg.LockRPCTimeout).WaitForHealthy(2 * time.Second); err != nil {
		t.Fatalf("authority never became healthy: %v", err)
	}

	api := NewAuthorityClient(cfg)
	f := &fixture{
		identity: NewIdentityProvider(),
		drafts:   NewMemoryDraftStore(),
	}
	f.controller = NewController(ControllerConfig{
		API:      api,
		Identity: f.identity,
		Drafts:   f.drafts,
		TTL:      10 * time.Minute,
		Log:      logger.Discard(),
		OnConflict: func(message string) {
			f.conflicts = append(f.conflicts, message)
		},
	})
	return f
}

func TestCompetingFlowsOverHTTP(t *testing.T) {
	server := startAuthority(t)

	// First shopper claims the room.
	first := newFlow(t, server)
	first.drafts.Save(checkoutDraft())
	if err := first.controller.Ensure(context.Background()); err != nil {
		t.Fatalf("first flow must acquire: %v", err)
	}
	if got := first.controller.State(); got != StateHeld {
		t.Fatalf("expected first flow held, got %s", got)
	}

	// Second shopper, same room and dates: refused, cleared, redirected.
	second := newFlow(t, server)
	second.drafts.Save(checkoutDraft())
	if err := second.controller.Ensure(context.Background()); err == nil {
		t.Fatal("second flow must conflict")
	}
	if got := second.controller.State(); got != StateConflicted {
		t.Errorf("expected second flow conflicted, got %s", got)
	}
	if _, ok := second.drafts.Load(); ok {
		t.Error("conflicted flow must lose its draft")
	}
	if len(second.conflicts) != 1 {
		t.Errorf("expected one redirect callback, got %d", len(second.conflicts))
	}

	// First shopper is unaffected and still holds a countdown.
	gate := NewGate(first.drafts, first.controller, signedIn())
	if remaining := gate.RemainingTTL(); remaining <= 9*time.Minute {
		t.Errorf("holder's countdown should be near the full window, got %s", remaining)
	}

	// First shopper cancels; the room opens up for the next flow.
	first.controller.Cancel(context.Background())

	third := newFlow(t, server)
	third.drafts.Save(checkoutDraft())
	if err := third.controller.Ensure(context.Background()); err != nil {
		t.Fatalf("room must be free after cancel: %v", err)
	}
	if got := third.controller.State(); got != StateHeld {
		t.Errorf("expected third flow held, got %s", got)
	}
}

func TestReentryAfterReloadOverHTTP(t *testing.T) {
	server := startAuthority(t)

	first := newFlow(t, server)
	first.drafts.Save(checkoutDraft())
	if err := first.controller.Ensure(context.Background()); err != nil {
		t.Fatalf("first entry must acquire: %v", err)
	}
	held, _ := first.drafts.Load()

	// Reload: a fresh controller, same identity and draft (the session
	// survived, the lock id did not regenerate because the draft kept it).
	reloaded := &fixture{identity: first.identity, drafts: first.drafts}
	reloaded.controller = NewController(ControllerConfig{
		API:      NewAuthorityClient(authorityConfig(server)),
		Identity: reloaded.identity,
		Drafts:   reloaded.drafts,
		TTL:      10 * time.Minute,
		Log:      logger.Discard(),
		OnConflict: func(message string) {
			reloaded.conflicts = append(reloaded.conflicts, message)
		},
	})

	if err := reloaded.controller.Ensure(context.Background()); err != nil {
		t.Fatalf("re-entry by the same owner must not conflict: %v", err)
	}

	after, _ := reloaded.drafts.Load()
	if !after.Lock.InitialLockAt.Equal(held.Lock.InitialLockAt) {
		t.Errorf("re-entry must keep the original window start: had %v, got %v",
			held.Lock.InitialLockAt, after.Lock.InitialLockAt)
	}
	if len(reloaded.conflicts) != 0 {
		t.Errorf("no conflict expected on re-entry, got %v", reloaded.conflicts)
	}
}
