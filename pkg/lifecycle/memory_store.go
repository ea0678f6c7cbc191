package lifecycle

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryAccountStore implements AccountStore in process memory, for
// tests and single-instance deployments.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	bySub    map[string]uuid.UUID
	byCust   map[string]uuid.UUID
}

// NewMemoryAccountStore creates an empty in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[uuid.UUID]Account),
		bySub:    make(map[string]uuid.UUID),
		byCust:   make(map[string]uuid.UUID),
	}
}

func (s *MemoryAccountStore) Get(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (s *MemoryAccountStore) FindByCustomerRef(_ context.Context, ref string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCust[ref]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := s.accounts[id]
	return &account, nil
}

func (s *MemoryAccountStore) FindBySubscriptionRef(_ context.Context, ref string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySub[ref]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := s.accounts[id]
	return &account, nil
}

func (s *MemoryAccountStore) Save(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stored by value so callers cannot mutate store state through a
	// retained pointer.
	s.accounts[account.ID] = *account
	if account.ExternalSubscriptionRef != "" {
		s.bySub[account.ExternalSubscriptionRef] = account.ID
	}
	if account.ExternalCustomerRef != "" {
		s.byCust[account.ExternalCustomerRef] = account.ID
	}
	return nil
}

// MemoryEventLedger implements EventLedger in process memory.
type MemoryEventLedger struct {
	mu     sync.RWMutex
	events map[string]ProcessedEvent
}

// NewMemoryEventLedger creates an empty in-memory ledger.
func NewMemoryEventLedger() *MemoryEventLedger {
	return &MemoryEventLedger{
		events: make(map[string]ProcessedEvent),
	}
}

func (l *MemoryEventLedger) Find(_ context.Context, eventID string) (*ProcessedEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	event, ok := l.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &event, nil
}

func (l *MemoryEventLedger) Record(_ context.Context, event ProcessedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.events[event.EventID]; exists {
		return ErrEventAlreadyRecorded
	}
	l.events[event.EventID] = event
	return nil
}
