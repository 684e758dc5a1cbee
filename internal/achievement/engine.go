package achievement

import (
	"time"

	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/engine"
)

// Engine evaluates the badge catalog. It never re-awards: already-held
// badges are filtered, so redundant calls on retries are safe.
type Engine struct {
	derive *engine.Engine
}

// New constructs an Engine sharing the derivation policy.
func New(derive *engine.Engine) *Engine {
	return &Engine{derive: derive}
}

// Check returns the badges newly unlocked by the saved log. Fails closed:
// when history or state is unavailable it returns nothing rather than risk a
// false award. The caller persists the returned badge ids append-only.
func (a *Engine) Check(log domain.WorkoutLog, profile domain.UserProfile, state *domain.GamificationState, logs []domain.WorkoutLog, now time.Time) []domain.Badge {
	if state == nil || logs == nil {
		return nil
	}

	// Predicates reading wall-clock fields (hour of day, week start) must
	// see the policy zone, not whatever offset the log arrived with.
	loc := a.derive.Policy().Location
	log.Date = log.Date.In(loc)

	ev := Evaluation{
		Log:     log,
		Profile: profile,
		State:   *state,
		Logs:    logs,
		Streak:  a.derive.Streak(logs, now),
		XP:      a.derive.LifetimeXP(logs),
		Now:     now.In(loc),
	}

	var unlocked []domain.Badge
	for _, entry := range catalog {
		if state.HasBadge(entry.badge.ID) {
			continue
		}
		if entry.check(ev) {
			unlocked = append(unlocked, entry.badge)
		}
	}
	return unlocked
}
