package memory

import (
	"context"
	"sync"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
)

// CardStore is an in-memory card store. Intended for tests and dev
// environments; prod uses the sqlite store.
type CardStore struct {
	mu       sync.RWMutex
	cards    map[string]*card.AccessCard // by real card id
	byFacade map[string]string           // facade id -> real card id
}

func NewCardStore() *CardStore {
	return &CardStore{
		cards:    make(map[string]*card.AccessCard),
		byFacade: make(map[string]string),
	}
}

func (s *CardStore) Save(_ context.Context, c *card.AccessCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards[c.RealID()] = c
	for _, facade := range c.FacadeIDs() {
		s.byFacade[facade] = c.RealID()
	}
	return nil
}

// Update replaces the stored card with the same real id. Facade ids never
// change after creation, so the index is left alone.
func (s *CardStore) Update(_ context.Context, c *card.AccessCard) error {
	s.mu.Lock()
	s.cards[c.RealID()] = c
	s.mu.Unlock()
	return nil
}

func (s *CardStore) Delete(_ context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		return nil
	}
	for _, facade := range c.FacadeIDs() {
		delete(s.byFacade, facade)
	}
	delete(s.cards, cardID)
	return nil
}

func (s *CardStore) FindByCardID(_ context.Context, cardID string) (*card.AccessCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cards[cardID], nil
}

func (s *CardStore) FindByFacadeID(_ context.Context, facadeID string) (*card.AccessCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cardID, ok := s.byFacade[facadeID]
	if !ok {
		return nil, nil
	}
	return s.cards[cardID], nil
}
