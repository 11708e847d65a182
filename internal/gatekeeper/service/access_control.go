package service

import (
	"context"
	"fmt"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/access"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/store"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/token"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

// Decision reasons, reported to the caller and recorded in the trail.
const (
	ReasonGranted      = "granted"
	ReasonUnknownCard  = "unknown_card"
	ReasonCardRevoked  = "card_revoked"
	ReasonInvalidToken = "invalid_token"
	ReasonFloorDenied  = "floor_denied"
	ReasonRoomDenied   = "room_denied"
)

// Guard is the decision pipeline behind the external grant-access API:
// facade-id resolution, token validation, then the floor policy stack and
// the room check. Every attempt is audited, including ones that never reach
// a policy. A missing card, a revoked card, or a bad token is an
// access-denied outcome, never an error — errors are reserved for store
// failures.
type Guard struct {
	cards  store.CardStore
	tokens *token.Service
	floors *access.FloorService
	audit  audit.Logger
}

func NewGuard(cards store.CardStore, tokens *token.Service, floors *access.FloorService, log audit.Logger) *Guard {
	return &Guard{cards: cards, tokens: tokens, floors: floors, audit: log}
}

// GrantAccess decides whether the credential behind facadeID may enter the
// floor (and room, when given) at the given time. A zero at means now.
func (g *Guard) GrantAccess(ctx context.Context, facadeID string, f zone.Floor, room, tok string, at time.Time) (bool, string, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	location := locationFor(f, room)

	c, err := g.cards.FindByFacadeID(ctx, facadeID)
	if err != nil {
		return false, "", fmt.Errorf("find card: %w", err)
	}
	if c == nil {
		g.deny(facadeID, facadeID, location, ReasonUnknownCard, at)
		return false, ReasonUnknownCard, nil
	}
	if !c.Active() {
		g.deny(c.RealID(), facadeID, location, ReasonCardRevoked, at)
		return false, ReasonCardRevoked, nil
	}
	if !g.tokens.Validate(c.RealID(), tok) {
		g.deny(c.RealID(), facadeID, location, ReasonInvalidToken, at)
		return false, ReasonInvalidToken, nil
	}

	granted := g.floors.Check(c, f, at)
	reason := ReasonGranted
	if !granted {
		reason = ReasonFloorDenied
	}
	if granted && room != "" && !c.HasRoomPermission(room) {
		granted = false
		reason = ReasonRoomDenied
	}

	rec := audit.NewAccessAttempt(c.RealID(), location, granted, at).
		WithDetail("facade_id", facadeID).
		WithDetail("reason", reason)
	g.audit.Append(rec)

	return granted, reason, nil
}

func (g *Guard) deny(cardID, facadeID, location, reason string, at time.Time) {
	rec := audit.NewAccessAttempt(cardID, location, false, at).
		WithDetail("facade_id", facadeID).
		WithDetail("reason", reason)
	g.audit.Append(rec)
}

func locationFor(f zone.Floor, room string) string {
	if room == "" {
		return "Floor: " + f.String()
	}
	return fmt.Sprintf("Floor: %s, Room: %s", f, room)
}
