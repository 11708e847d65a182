package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/access"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/zone"
)

// PolicyFile is the YAML override format for floor policies and
// restrictions. Floors absent from the file keep their defaults.
//
//	floors:
//	  MEDIUM:
//	    window: {start: "07:30", end: "19:00"}
//	  HIGH:
//	    window: {start: "09:00", end: "17:00"}
//	    days: [monday, tuesday, wednesday, thursday, friday]
//	    max_daily: 5
//	restrictions:
//	  HIGH: {start: "08:00", end: "18:00"}
type PolicyFile struct {
	Floors       map[string]FloorPolicyConfig `yaml:"floors"`
	Restrictions map[string]WindowConfig      `yaml:"restrictions"`
}

type FloorPolicyConfig struct {
	Window   *WindowConfig `yaml:"window"`
	Days     []string      `yaml:"days"`
	MaxDaily int           `yaml:"max_daily"`
}

type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	return &pf, nil
}

// Apply installs the configured policies and restrictions on the floor
// service. The HIGH policy shares the given usage log for its daily quota.
func (pf *PolicyFile) Apply(svc *access.FloorService, usage *access.UsageLog) error {
	for name, fc := range pf.Floors {
		f, err := zone.Parse(name)
		if err != nil {
			return fmt.Errorf("policy file: %w", err)
		}

		policy, err := buildPolicy(f, fc, usage)
		if err != nil {
			return err
		}
		svc.SetPolicy(f, policy)
	}

	for name, wc := range pf.Restrictions {
		f, err := zone.Parse(name)
		if err != nil {
			return fmt.Errorf("policy file: %w", err)
		}
		w, err := parseWindow(wc)
		if err != nil {
			return fmt.Errorf("policy file restriction %s: %w", name, err)
		}
		svc.SetRestriction(f, w)
	}

	return nil
}

func buildPolicy(f zone.Floor, fc FloorPolicyConfig, usage *access.UsageLog) (access.Policy, error) {
	switch f {
	case zone.Low:
		return access.LowPolicy{}, nil

	case zone.Medium:
		if fc.Window == nil {
			return access.NewMediumPolicy(), nil
		}
		w, err := parseWindow(*fc.Window)
		if err != nil {
			return nil, fmt.Errorf("policy file floor %s: %w", f, err)
		}
		return access.NewMediumPolicyWindow(w), nil

	case zone.High:
		cfg := access.HighPolicyConfig{MaxDaily: fc.MaxDaily}
		if fc.Window != nil {
			w, err := parseWindow(*fc.Window)
			if err != nil {
				return nil, fmt.Errorf("policy file floor %s: %w", f, err)
			}
			cfg.Window = w
		}
		for _, d := range fc.Days {
			wd, err := parseWeekday(d)
			if err != nil {
				return nil, fmt.Errorf("policy file floor %s: %w", f, err)
			}
			cfg.Days = append(cfg.Days, wd)
		}
		return access.NewHighPolicyConfig(cfg, usage), nil
	}

	return nil, fmt.Errorf("policy file: no policy for floor %s", f)
}

func parseWindow(wc WindowConfig) (access.Window, error) {
	start, err := access.ParseTimeOfDay(wc.Start)
	if err != nil {
		return access.Window{}, err
	}
	end, err := access.ParseTimeOfDay(wc.End)
	if err != nil {
		return access.Window{}, err
	}
	return access.Window{Start: start, End: end}, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("bad weekday %q", s)
}
