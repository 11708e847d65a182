package access

import (
	"sync"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

// FloorService dispatches access checks to the policy registered for each
// tier, enforcing an optional per-floor global time restriction first, and
// records every delegated decision in the audit trail.
//
// Policies and restrictions are hot-swappable at runtime, last writer wins.
type FloorService struct {
	mu           sync.RWMutex
	policies     map[zone.Floor]Policy
	restrictions map[zone.Floor]Window

	audit audit.Logger
}

// NewFloorService registers the three tier policies and the default global
// restrictions (09:00–17:00 on MEDIUM and HIGH).
func NewFloorService(log audit.Logger, low, medium, high Policy) *FloorService {
	s := &FloorService{
		policies:     make(map[zone.Floor]Policy),
		restrictions: make(map[zone.Floor]Window),
		audit:        log,
	}
	s.policies[zone.Low] = low
	s.policies[zone.Medium] = medium
	s.policies[zone.High] = high
	s.restrictions[zone.Medium] = Window{Start: At(9, 0), End: At(17, 0)}
	s.restrictions[zone.High] = Window{Start: At(9, 0), End: At(17, 0)}
	return s
}

// SetPolicy replaces the policy for a tier without a restart.
func (s *FloorService) SetPolicy(f zone.Floor, p Policy) {
	s.mu.Lock()
	s.policies[f] = p
	s.mu.Unlock()
}

// SetRestriction sets the global time restriction for a tier.
func (s *FloorService) SetRestriction(f zone.Floor, w Window) {
	s.mu.Lock()
	s.restrictions[f] = w
	s.mu.Unlock()
}

// ClearRestriction removes the global time restriction for a tier.
func (s *FloorService) ClearRestriction(f zone.Floor) {
	s.mu.Lock()
	delete(s.restrictions, f)
	s.mu.Unlock()
}

// Check decides whether the card may enter the floor at the given time.
//
// Floors with no registered policy never silently default-allow. A global
// restriction denies without consulting the policy. Otherwise the policy
// verdict is conjoined with the card's own validation — which owns the
// permission time-validity check and stamps last-used on success — and the
// result is audited either way with location "Floor: <name>".
func (s *FloorService) Check(c *card.AccessCard, f zone.Floor, at time.Time) bool {
	s.mu.RLock()
	policy, ok := s.policies[f]
	restriction, restricted := s.restrictions[f]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	if restricted && !restriction.Contains(at) {
		return false
	}

	granted := policy.Validate(c, f, at) && c.ValidateAccess(f, at)

	s.audit.Append(audit.NewAccessAttempt(c.RealID(), "Floor: "+f.String(), granted, at))

	return granted
}
