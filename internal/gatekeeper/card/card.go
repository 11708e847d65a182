package card

import (
	"strings"
	"sync"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

// AccessCard is a physical credential: identity, permission, revocation
// state and usage metadata. The real id and facade ids are fixed at
// construction and never change; only the active flag and the last-used
// timestamp mutate. Cards are shared between the HTTP handlers, so the
// mutable fields sit behind a mutex.
type AccessCard struct {
	mu        sync.Mutex
	realID    string
	facadeIDs []string
	perm      Permission
	active    bool
	createdAt time.Time
	lastUsed  time.Time
}

// NewAccessCard builds an active card. A zero now defaults to the current
// time; lastUsed starts equal to createdAt and never precedes it.
func NewAccessCard(realID string, facadeIDs []string, perm Permission, now time.Time) *AccessCard {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ids := make([]string, len(facadeIDs))
	copy(ids, facadeIDs)
	return &AccessCard{
		realID:    realID,
		facadeIDs: ids,
		perm:      perm,
		active:    true,
		createdAt: now,
		lastUsed:  now,
	}
}

// Restore rebuilds a card from persisted state. Used by stores only.
func Restore(realID string, facadeIDs []string, perm Permission, active bool, createdAt, lastUsed time.Time) *AccessCard {
	c := NewAccessCard(realID, facadeIDs, perm, createdAt)
	c.active = active
	if !lastUsed.Before(createdAt) {
		c.lastUsed = lastUsed
	}
	return c
}

// RealID returns the real card identifier. It must not be exposed at system
// boundaries; use the facade ids there.
func (c *AccessCard) RealID() string { return c.realID }

// FacadeIDs returns a copy of the facade identifiers, in derivation order.
func (c *AccessCard) FacadeIDs() []string {
	out := make([]string, len(c.facadeIDs))
	copy(out, c.facadeIDs)
	return out
}

// PrimaryFacadeID is the first facade id — the one handed to external
// callers at creation.
func (c *AccessCard) PrimaryFacadeID() string {
	if len(c.facadeIDs) == 0 {
		return ""
	}
	return c.facadeIDs[0]
}

func (c *AccessCard) Permission() Permission { return c.perm }

func (c *AccessCard) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetActive toggles revocation state. No audit side effect — the caller is
// responsible for logging the revocation or reinstatement.
func (c *AccessCard) SetActive(active bool) {
	c.mu.Lock()
	c.active = active
	c.mu.Unlock()
}

func (c *AccessCard) CreatedAt() time.Time { return c.createdAt }

func (c *AccessCard) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// HasFloorPermission reports active AND floor membership.
func (c *AccessCard) HasFloorPermission(f zone.Floor) bool {
	return c.Active() && c.perm.CanAccessFloor(f)
}

// HasRoomPermission reports active AND room membership.
func (c *AccessCard) HasRoomPermission(room string) bool {
	return c.Active() && c.perm.CanAccessRoom(room)
}

// ValidateAccess checks active AND floor permission AND time validity. On
// success it stamps lastUsed = at; on failure the card is left untouched.
func (c *AccessCard) ValidateAccess(f zone.Floor, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := c.active && c.perm.CanAccessFloor(f) && c.perm.ValidForTime(at)
	if ok {
		c.lastUsed = at
	}
	return ok
}

// WithPermission returns a replacement card carrying the same identity and
// state but a new permission. Permissions are shared and never mutated in
// place, so a permission change always goes through here.
func (c *AccessCard) WithPermission(perm Permission) *AccessCard {
	c.mu.Lock()
	defer c.mu.Unlock()

	repl := &AccessCard{
		realID:    c.realID,
		facadeIDs: append([]string(nil), c.facadeIDs...),
		perm:      perm,
		active:    c.active,
		createdAt: c.createdAt,
		lastUsed:  c.lastUsed,
	}
	return repl
}

// ValidateFacadeID checks a candidate facade id against the card's stored
// facade ids, and — when the candidate parses as the EncryptID format —
// cross-checks its embedded day/year component against at. Candidates that
// contain an underscore but do not parse fall back to membership alone.
func (c *AccessCard) ValidateFacadeID(candidate string, at time.Time) bool {
	known := false
	for _, id := range c.facadeIDs {
		if id == candidate {
			known = true
			break
		}
	}
	if !known {
		return false
	}

	if strings.Contains(candidate, "_") {
		if match, ok := matchesDailyKey(candidate, at); ok {
			return match
		}
	}
	return true
}

// VerifyExternalFacadeID accepts a candidate that exactly matches a freshly
// recomputed time-keyed id for this card, and otherwise falls back to
// ValidateFacadeID. Lookup/obfuscation only — see EncryptID for why this is
// not an authentication mechanism.
func (c *AccessCard) VerifyExternalFacadeID(candidate string, at time.Time) bool {
	if EncryptID(c.realID, at) == candidate {
		return true
	}
	return c.ValidateFacadeID(candidate, at)
}
