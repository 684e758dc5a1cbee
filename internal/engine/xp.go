package engine

import (
	"math"

	"example.com/tribe/internal/domain"
)

// Breakdown itemises the XP components of a single log. The parts always sum
// to ComputeLogXP for the same log.
type Breakdown struct {
	Base     int `json:"base"`
	Volume   int `json:"volume"`
	Vibes    int `json:"vibes"`
	Calories int `json:"calories"`
}

// Total sums the breakdown components.
func (b Breakdown) Total() int {
	return b.Base + b.Volume + b.Vibes + b.Calories
}

// ComputeLogXP derives the XP earned by one log. Deterministic: the same log
// always yields the same XP, so downstream recomputation is idempotent.
func (e *Engine) ComputeLogXP(log domain.WorkoutLog) int {
	return e.XPBreakdown(log).Total()
}

// XPBreakdown itemises where a log's XP comes from.
func (e *Engine) XPBreakdown(log domain.WorkoutLog) Breakdown {
	switch log.Type {
	case domain.WorkoutTypeCommitment:
		// Commitments reward on fulfilment, not on intent.
		return Breakdown{}
	case domain.WorkoutTypeCustom:
		if log.Vibes > 0 {
			vibes := log.Vibes
			if vibes > e.policy.CustomVibesCapXP {
				vibes = e.policy.CustomVibesCapXP
			}
			return Breakdown{Vibes: vibes}
		}
		if log.Calories > 0 {
			return Breakdown{Calories: log.Calories / e.policy.CaloriesPerXP}
		}
		return Breakdown{}
	default:
		return Breakdown{
			Base:   e.policy.SessionBaseXP,
			Volume: int(log.CompletedVolume() / e.policy.VolumeDivisor),
		}
	}
}

// BreakdownAll maps each non-deleted log to its XP breakdown.
func (e *Engine) BreakdownAll(logs []domain.WorkoutLog) map[string]Breakdown {
	out := make(map[string]Breakdown, len(logs))
	for _, log := range logs {
		if log.Deleted {
			continue
		}
		out[log.ID] = e.XPBreakdown(log)
	}
	return out
}

// levelUnit scales the quadratic level curve: reaching level n requires
// levelUnit * (n-1)^2 lifetime XP.
const levelUnit = 100

// LevelProgress converts lifetime XP into a level and the percentage earned
// toward the next threshold. XP 0 is level 1 at 0%.
func LevelProgress(lifetimeXP int) (level int, progress int) {
	if lifetimeXP < 0 {
		lifetimeXP = 0
	}
	level = int(math.Sqrt(float64(lifetimeXP)/levelUnit)) + 1
	floor := levelUnit * (level - 1) * (level - 1)
	ceil := levelUnit * level * level
	progress = (lifetimeXP - floor) * 100 / (ceil - floor)
	return level, progress
}

// LifetimeXP sums XP over every non-deleted log.
func (e *Engine) LifetimeXP(logs []domain.WorkoutLog) int {
	total := 0
	for _, log := range logs {
		if log.Deleted {
			continue
		}
		total += e.ComputeLogXP(log)
	}
	return total
}
