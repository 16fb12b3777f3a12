package checkout

import (
	"sync"

	"staylock/pkg/model"
)

// DraftStore holds the in-progress reservation draft shared by the lifecycle
// controller, the beacon guard and the checkout gate. Writes replace the
// whole draft; readers get a consistent snapshot, never a partially mutated
// object.
type DraftStore interface {
	Load() (*model.ReservationDraft, bool)
	Save(draft *model.ReservationDraft)
	Clear()
}

// MemoryDraftStore is the session-scoped in-memory implementation. It is
// injected into its consumers rather than shared as a package singleton so
// tests and concurrent flows each get their own.
type MemoryDraftStore struct {
	mu    sync.RWMutex
	draft *model.ReservationDraft
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{}
}

func (s *MemoryDraftStore) Load() (*model.ReservationDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return nil, false
	}
	return s.draft, true
}

func (s *MemoryDraftStore) Save(draft *model.ReservationDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
}

// Clear invalidates the draft on abandon or completion.
func (s *MemoryDraftStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}
