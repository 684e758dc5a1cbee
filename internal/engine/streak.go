package engine

import (
	"time"

	"example.com/tribe/internal/domain"
)

// Mood is a presentational signal over recent activity. Never persisted.
type Mood string

const (
	MoodFire   Mood = "fire"
	MoodTired  Mood = "tired"
	MoodNormal Mood = "normal"
)

// Streak counts consecutive calendar days with at least one qualifying log,
// walking back from today. The run may end at today or yesterday: a missing
// workout today is pending, not yet a break. Commitments and tombstones never
// extend a streak. Day equality is midnight-to-midnight in the policy
// timezone, not elapsed-hours arithmetic.
func (e *Engine) Streak(logs []domain.WorkoutLog, now time.Time) int {
	local := now.In(e.policy.location())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.policy.location())
	return e.streakOverDays(e.qualifyingDays(logs), today)
}

// StreakRisk reports whether an active streak will lapse unless the user logs
// today. False when the streak is zero (nothing to lose) or a qualifying log
// already landed today.
func (e *Engine) StreakRisk(logs []domain.WorkoutLog, now time.Time) bool {
	if e.loggedOn(logs, now) {
		return false
	}
	if e.Streak(logs, now) == 0 {
		return false
	}
	return now.In(e.policy.location()).Hour() >= e.policy.RiskHour
}

// Mood heuristically classifies recent activity for urgency UI.
func (e *Engine) Mood(logs []domain.WorkoutLog, now time.Time) Mood {
	if e.loggedOn(logs, now) || e.Streak(logs, now) >= e.policy.HotStreakDays {
		return MoodFire
	}

	last := e.lastQualifying(logs)
	if last == nil {
		return MoodNormal
	}
	gap := e.dayDelta(*last, now)
	if gap >= e.policy.TiredGapDays {
		return MoodTired
	}
	return MoodNormal
}

// loggedOn reports whether a qualifying log landed on the same local day as at.
func (e *Engine) loggedOn(logs []domain.WorkoutLog, at time.Time) bool {
	day := e.policy.Day(at)
	for _, log := range logs {
		if log.Qualifying() && e.policy.Day(log.Date) == day {
			return true
		}
	}
	return false
}

func (e *Engine) qualifyingDays(logs []domain.WorkoutLog) map[string]bool {
	days := make(map[string]bool)
	for _, log := range logs {
		if log.Qualifying() {
			days[e.policy.Day(log.Date)] = true
		}
	}
	return days
}

func (e *Engine) lastQualifying(logs []domain.WorkoutLog) *time.Time {
	var latest *time.Time
	for i := range logs {
		if !logs[i].Qualifying() {
			continue
		}
		if latest == nil || logs[i].Date.After(*latest) {
			t := logs[i].Date
			latest = &t
		}
	}
	return latest
}

// dayDelta counts whole calendar days between two instants in the policy zone.
func (e *Engine) dayDelta(from, to time.Time) int {
	loc := e.policy.location()
	a := from.In(loc)
	b := to.In(loc)
	start := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	end := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, loc)
	return int(end.Sub(start) / (24 * time.Hour))
}
