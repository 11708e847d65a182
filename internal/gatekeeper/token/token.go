// Package token issues short-lived opaque tokens bound to a card id,
// validated before any access decision is attempted.
package token

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a token stays valid after issue.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     string
	tokenID   string
	issuedAt  time.Time
	expiresAt time.Time
}

// Service keeps one live token per card id. Issuing a new token for a card
// overwrites the previous one, which becomes invalid immediately. Expiry is
// a wall-clock comparison at validation time; there is no background
// eviction and no sliding expiry.
type Service struct {
	secret string
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	tokens map[string]entry
}

// NewService creates a token service. A non-positive ttl falls back to
// DefaultTTL.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]entry),
	}
}

// Generate issues a fresh opaque token for the card, replacing any previous
// one, and returns the token value with its expiry.
func (s *Service) Generate(cardID string) (string, time.Time) {
	now := s.now().UTC()
	tokenID := uuid.NewString()

	sum := sha256.Sum256([]byte(cardID + s.secret + tokenID + now.Format(time.RFC3339Nano)))
	value := base64.StdEncoding.EncodeToString(sum[:])

	e := entry{
		value:     value,
		tokenID:   tokenID,
		issuedAt:  now,
		expiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.tokens[cardID] = e
	s.mu.Unlock()

	return value, e.expiresAt
}

// Validate reports whether a token exists for the card, matches exactly,
// and has not yet expired (now < expiresAt). A valid token may be reused
// repeatedly until it expires — validation does not consume it.
func (s *Service) Validate(cardID, token string) bool {
	s.mu.Lock()
	e, ok := s.tokens[cardID]
	s.mu.Unlock()

	if !ok || e.value != token {
		return false
	}
	return s.now().UTC().Before(e.expiresAt)
}
