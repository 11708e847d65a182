package card

import (
	"sort"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

// Permission is a capability predicate: which floors and rooms a card may
// enter, and whether the permission is temporally valid. Implementations are
// immutable; replacing a card's permission means building a new card through
// management, never mutating the permission in place.
//
// CanAccessFloor and CanAccessRoom are pure set-membership checks. A
// permission does not auto-deny floor access outside its validity window —
// callers must conjoin ValidForTime with the floor/room checks.
type Permission interface {
	CanAccessFloor(f zone.Floor) bool
	CanAccessRoom(room string) bool
	ValidForTime(t time.Time) bool
}

// SimplePermission grants unconditional access to a fixed set of floors and
// rooms. An empty set denies everything.
type SimplePermission struct {
	floors map[zone.Floor]struct{}
	rooms  map[string]struct{}
}

func NewSimplePermission(floors []zone.Floor, rooms []string) *SimplePermission {
	p := &SimplePermission{
		floors: make(map[zone.Floor]struct{}, len(floors)),
		rooms:  make(map[string]struct{}, len(rooms)),
	}
	for _, f := range floors {
		p.floors[f] = struct{}{}
	}
	for _, r := range rooms {
		p.rooms[r] = struct{}{}
	}
	return p
}

func (p *SimplePermission) CanAccessFloor(f zone.Floor) bool {
	_, ok := p.floors[f]
	return ok
}

func (p *SimplePermission) CanAccessRoom(room string) bool {
	_, ok := p.rooms[room]
	return ok
}

// ValidForTime is always true for an unconditional permission.
func (p *SimplePermission) ValidForTime(time.Time) bool { return true }

// AllowedFloors returns the floor set in ascending tier order.
func (p *SimplePermission) AllowedFloors() []zone.Floor { return sortedFloors(p.floors) }

// AllowedRooms returns the room set in lexical order.
func (p *SimplePermission) AllowedRooms() []string { return sortedRooms(p.rooms) }

// TimeLimitedPermission grants the same set-based access as
// SimplePermission but only within [validFrom, validUntil], both ends
// inclusive.
type TimeLimitedPermission struct {
	floors     map[zone.Floor]struct{}
	rooms      map[string]struct{}
	validFrom  time.Time
	validUntil time.Time
}

func NewTimeLimitedPermission(floors []zone.Floor, rooms []string, validFrom, validUntil time.Time) *TimeLimitedPermission {
	p := &TimeLimitedPermission{
		floors:     make(map[zone.Floor]struct{}, len(floors)),
		rooms:      make(map[string]struct{}, len(rooms)),
		validFrom:  validFrom,
		validUntil: validUntil,
	}
	for _, f := range floors {
		p.floors[f] = struct{}{}
	}
	for _, r := range rooms {
		p.rooms[r] = struct{}{}
	}
	return p
}

func (p *TimeLimitedPermission) CanAccessFloor(f zone.Floor) bool {
	_, ok := p.floors[f]
	return ok
}

func (p *TimeLimitedPermission) CanAccessRoom(room string) bool {
	_, ok := p.rooms[room]
	return ok
}

// ValidForTime reports validFrom <= t <= validUntil, inclusive both ends.
func (p *TimeLimitedPermission) ValidForTime(t time.Time) bool {
	return !t.Before(p.validFrom) && !t.After(p.validUntil)
}

func (p *TimeLimitedPermission) AllowedFloors() []zone.Floor { return sortedFloors(p.floors) }

func (p *TimeLimitedPermission) AllowedRooms() []string { return sortedRooms(p.rooms) }

// Window returns the validity bounds.
func (p *TimeLimitedPermission) Window() (validFrom, validUntil time.Time) {
	return p.validFrom, p.validUntil
}

func sortedFloors(set map[zone.Floor]struct{}) []zone.Floor {
	out := make([]zone.Floor, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedRooms(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
