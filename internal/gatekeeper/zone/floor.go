package zone

import (
	"errors"
	"fmt"
	"strings"
)

// Floor is a building security tier. The ordinal level is informational
// ordering only; access decisions are made by the per-tier policies, never
// by level arithmetic.
type Floor int

const (
	Low Floor = iota + 1
	Medium
	High
)

var ErrUnknownFloor = errors.New("unknown floor")

// SecurityLevel returns the numeric tier (1..3). Higher means more secure.
func (f Floor) SecurityLevel() int { return int(f) }

func (f Floor) String() string {
	switch f {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return fmt.Sprintf("Floor(%d)", int(f))
	}
}

// Parse resolves a floor name, case-insensitively. Malformed names are
// rejected here, at the boundary, so they never reach policy evaluation.
func Parse(name string) (Floor, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "LOW":
		return Low, nil
	case "MEDIUM":
		return Medium, nil
	case "HIGH":
		return High, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFloor, name)
}

// Floors lists all tiers in ascending security order.
func Floors() []Floor { return []Floor{Low, Medium, High} }
