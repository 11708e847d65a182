package access

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

// Policy is a per-tier decision rule. Validate never mutates the card; the
// last-used stamp happens in the caller via AccessCard.ValidateAccess.
type Policy interface {
	Validate(c *card.AccessCard, f zone.Floor, at time.Time) bool
}

// TimeOfDay is a wall-clock time with minute resolution, used for access
// windows.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func At(hour, minute int) TimeOfDay { return TimeOfDay{Hour: hour, Minute: minute} }

// ParseTimeOfDay accepts "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("bad time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("bad time of day %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("bad time of day %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) secondOfDay() int { return t.Hour*3600 + t.Minute*60 }

// Window is an inclusive [Start, End] time-of-day range. Containment is
// checked at second granularity, so 18:00:30 falls outside a window ending
// at 18:00.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (w Window) Contains(at time.Time) bool {
	sec := at.Hour()*3600 + at.Minute()*60 + at.Second()
	return sec >= w.Start.secondOfDay() && sec <= w.End.secondOfDay()
}

// LowPolicy: active card with floor permission, nothing else. No time or
// day checks.
type LowPolicy struct{}

func (LowPolicy) Validate(c *card.AccessCard, f zone.Floor, _ time.Time) bool {
	return c.Active() && c.HasFloorPermission(f)
}

// MediumPolicy adds a business-hours window on top of the low checks.
type MediumPolicy struct {
	window Window
}

// NewMediumPolicy uses the default 08:00–18:00 window.
func NewMediumPolicy() *MediumPolicy {
	return &MediumPolicy{window: Window{Start: At(8, 0), End: At(18, 0)}}
}

func NewMediumPolicyWindow(w Window) *MediumPolicy {
	return &MediumPolicy{window: w}
}

func (p *MediumPolicy) Validate(c *card.AccessCard, f zone.Floor, at time.Time) bool {
	if !c.Active() || !c.HasFloorPermission(f) {
		return false
	}
	return p.window.Contains(at)
}

// HighPolicy enforces the strictest tier: the floor must actually be HIGH
// (the policy refuses to grant for any other floor even if asked), access
// must fall within the window on an allowed weekday, and each card has a
// daily success quota tracked in the shared usage log.
type HighPolicy struct {
	window   Window
	days     map[time.Weekday]bool
	maxDaily int
	usage    *UsageLog
}

// HighPolicyConfig overrides the defaults: 09:00–17:00, Monday–Friday,
// 5 accesses per card per day.
type HighPolicyConfig struct {
	Window   Window
	Days     []time.Weekday
	MaxDaily int
}

func NewHighPolicy(usage *UsageLog) *HighPolicy {
	return NewHighPolicyConfig(HighPolicyConfig{}, usage)
}

func NewHighPolicyConfig(cfg HighPolicyConfig, usage *UsageLog) *HighPolicy {
	p := &HighPolicy{
		window:   cfg.Window,
		days:     make(map[time.Weekday]bool),
		maxDaily: cfg.MaxDaily,
		usage:    usage,
	}
	if p.window == (Window{}) {
		p.window = Window{Start: At(9, 0), End: At(17, 0)}
	}
	if len(cfg.Days) == 0 {
		cfg.Days = []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		}
	}
	for _, d := range cfg.Days {
		p.days[d] = true
	}
	if p.maxDaily <= 0 {
		p.maxDaily = 5
	}
	return p
}

func (p *HighPolicy) Validate(c *card.AccessCard, f zone.Floor, at time.Time) bool {
	if !c.Active() || !c.HasFloorPermission(f) {
		return false
	}
	if f != zone.High {
		return false
	}
	if !p.window.Contains(at) {
		return false
	}
	if !p.days[at.Weekday()] {
		return false
	}
	// Reserve counts and records under one lock so concurrent requests
	// cannot exceed the quota.
	return p.usage.Reserve(c.RealID(), at, p.maxDaily)
}
