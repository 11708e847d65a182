package card

import (
	"errors"
	"fmt"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

var ErrInvalidPermissionSpec = errors.New("invalid permission spec")

// PermissionSpec is the serializable form of a permission, used by the
// persistence layer and the management API. Both bounds present means
// time-limited; both absent means unconditional.
type PermissionSpec struct {
	Floors     []string   `json:"floors"`
	Rooms      []string   `json:"rooms,omitempty"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// Permission builds the permission the spec describes.
func (s PermissionSpec) Permission() (Permission, error) {
	floors := make([]zone.Floor, 0, len(s.Floors))
	for _, name := range s.Floors {
		f, err := zone.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPermissionSpec, err)
		}
		floors = append(floors, f)
	}

	switch {
	case s.ValidFrom == nil && s.ValidUntil == nil:
		return NewSimplePermission(floors, s.Rooms), nil
	case s.ValidFrom != nil && s.ValidUntil != nil:
		if s.ValidUntil.Before(*s.ValidFrom) {
			return nil, fmt.Errorf("%w: valid_until precedes valid_from", ErrInvalidPermissionSpec)
		}
		return NewTimeLimitedPermission(floors, s.Rooms, *s.ValidFrom, *s.ValidUntil), nil
	default:
		return nil, fmt.Errorf("%w: valid_from and valid_until must be set together", ErrInvalidPermissionSpec)
	}
}

// SpecOf reverses Permission for the known permission types.
func SpecOf(p Permission) (PermissionSpec, error) {
	switch perm := p.(type) {
	case *SimplePermission:
		return PermissionSpec{
			Floors: floorNames(perm.AllowedFloors()),
			Rooms:  perm.AllowedRooms(),
		}, nil
	case *TimeLimitedPermission:
		from, until := perm.Window()
		return PermissionSpec{
			Floors:     floorNames(perm.AllowedFloors()),
			Rooms:      perm.AllowedRooms(),
			ValidFrom:  &from,
			ValidUntil: &until,
		}, nil
	default:
		return PermissionSpec{}, fmt.Errorf("%w: unsupported permission type %T", ErrInvalidPermissionSpec, p)
	}
}

func floorNames(floors []zone.Floor) []string {
	out := make([]string, len(floors))
	for i, f := range floors {
		out[i] = f.String()
	}
	return out
}
