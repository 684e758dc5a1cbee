// Package engine implements the pure derivation math that turns workout logs
// into XP, levels, streaks, and tribe aggregates.
package engine

import "time"

// Policy is the tuning table for XP and streak derivation. Constants live
// here rather than inline so deployments can adjust them via configuration.
type Policy struct {
	// SessionBaseXP is the flat bonus for completing a structured A/B session.
	SessionBaseXP int
	// VolumeDivisor converts completed volume (reps x weight) into XP.
	VolumeDivisor float64
	// CustomVibesCapXP caps XP taken from an explicit vibes score.
	CustomVibesCapXP int
	// CaloriesPerXP converts reported calories into XP for custom logs.
	CaloriesPerXP int
	// RiskHour is the local hour after which an unextended streak is at risk.
	RiskHour int
	// HotStreakDays is the streak length treated as "on fire".
	HotStreakDays int
	// TiredGapDays is the gap after which a user reads as tired.
	TiredGapDays int
	// Location fixes calendar-day bucketing to one timezone.
	Location *time.Location
}

// DefaultPolicy returns the tuning values used when config has no overrides.
func DefaultPolicy() Policy {
	return Policy{
		SessionBaseXP:    20,
		VolumeDivisor:    100,
		CustomVibesCapXP: 60,
		CaloriesPerXP:    10,
		RiskHour:         18,
		HotStreakDays:    3,
		TiredGapDays:     3,
		Location:         time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Day returns the calendar-day key for an instant in the policy timezone.
func (p Policy) Day(t time.Time) string {
	return t.In(p.location()).Format("2006-01-02")
}

// Engine evaluates the policy over log collections. All methods are pure
// functions of their inputs.
type Engine struct {
	policy Policy
}

// New constructs an Engine with the supplied policy.
func New(policy Policy) *Engine {
	if policy.VolumeDivisor <= 0 {
		policy.VolumeDivisor = DefaultPolicy().VolumeDivisor
	}
	if policy.CaloriesPerXP <= 0 {
		policy.CaloriesPerXP = DefaultPolicy().CaloriesPerXP
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Engine{policy: policy}
}

// Policy exposes the active tuning table.
func (e *Engine) Policy() Policy {
	return e.policy
}
