// This file implements the next-run calculation for recurring jobs.
package workflow

import (
	"fmt"
	"time"
)

// Recurrence frequencies.
const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
)

// Definition is one recurring job: what event to publish and when.
type Definition struct {
	ID         string       `yaml:"id" json:"id"`
	Name       string       `yaml:"name" json:"name"`
	EventType  string       `yaml:"eventType" json:"eventType"`
	Frequency  string       `yaml:"frequency" json:"frequency"`
	Weekday    time.Weekday `yaml:"weekday" json:"weekday"`       // weekly only
	DayOfMonth int          `yaml:"dayOfMonth" json:"dayOfMonth"` // monthly only, 1..28
	Hour       int          `yaml:"hour" json:"hour"`
	Minute     int          `yaml:"minute" json:"minute"`
}

// NextRun computes the first instant strictly after `after` at which the
// definition fires. Pure time arithmetic in after's location.
func NextRun(def Definition, after time.Time) (time.Time, error) {
	if def.Hour < 0 || def.Hour > 23 || def.Minute < 0 || def.Minute > 59 {
		return time.Time{}, fmt.Errorf("workflow %s: invalid time %02d:%02d", def.ID, def.Hour, def.Minute)
	}
	at := func(day time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), def.Hour, def.Minute, 0, 0, after.Location())
	}
	switch def.Frequency {
	case FreqDaily:
		next := at(after)
		if !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil
	case FreqWeekly:
		next := at(after)
		for next.Weekday() != def.Weekday || !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil
	case FreqMonthly:
		if def.DayOfMonth < 1 || def.DayOfMonth > 28 {
			return time.Time{}, fmt.Errorf("workflow %s: dayOfMonth must be 1..28", def.ID)
		}
		next := time.Date(after.Year(), after.Month(), def.DayOfMonth, def.Hour, def.Minute, 0, 0, after.Location())
		if !next.After(after) {
			next = next.AddDate(0, 1, 0)
		}
		return next, nil
	default:
		return time.Time{}, fmt.Errorf("workflow %s: unknown frequency %q", def.ID, def.Frequency)
	}
}

// Scheduler tracks a set of definitions and the last time each fired.
type Scheduler struct {
	defs    []Definition
	lastRun map[string]time.Time
}

// NewScheduler creates a scheduler over a fixed definition set.
func NewScheduler(defs []Definition) *Scheduler {
	return &Scheduler{defs: defs, lastRun: make(map[string]time.Time)}
}

// Due returns every definition whose next run (relative to its last
// firing, or the zero time for never-fired jobs) is at or before now,
// and marks them fired.
func (s *Scheduler) Due(now time.Time) []Definition {
	due := []Definition{}
	for _, def := range s.defs {
		anchor, fired := s.lastRun[def.ID]
		if !fired {
			// Never fired: anchor one period back so the first tick past
			// the scheduled time fires immediately.
			anchor = now.AddDate(0, -1, -7)
		}
		next, err := NextRun(def, anchor)
		if err != nil {
			fmt.Printf("[WORKFLOW] Skipping %s: %v\n", def.ID, err)
			continue
		}
		if !next.After(now) {
			due = append(due, def)
			s.lastRun[def.ID] = now
		}
	}
	return due
}
