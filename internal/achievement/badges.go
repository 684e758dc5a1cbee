// Package achievement evaluates badge unlock predicates against new logs.
package achievement

import (
	"time"

	"example.com/tribe/internal/domain"
)

// Evaluation bundles everything a badge predicate may inspect: the freshly
// saved log plus the user's cumulative history and derived streak.
type Evaluation struct {
	Log     domain.WorkoutLog
	Profile domain.UserProfile
	State   domain.GamificationState
	Logs    []domain.WorkoutLog
	Streak  int
	XP      int // lifetime XP including the new log
	Now     time.Time
}

// rule pairs a badge with its unlock predicate.
type rule struct {
	badge domain.Badge
	check func(Evaluation) bool
}

// catalog is the fixed badge table. Order is presentation order; evaluation
// is independent per entry.
var catalog = []rule{
	{
		badge: domain.Badge{ID: "first-workout", Title: "First Steps", Description: "Log your first workout", Icon: "footprints"},
		check: func(ev Evaluation) bool {
			count := 0
			for _, log := range ev.Logs {
				if log.Qualifying() {
					count++
				}
			}
			return count >= 1
		},
	},
	{
		badge: domain.Badge{ID: "streak-3", Title: "Warming Up", Description: "3-day streak", Icon: "flame"},
		check: func(ev Evaluation) bool { return ev.Streak >= 3 },
	},
	{
		badge: domain.Badge{ID: "streak-7", Title: "Full Week", Description: "7-day streak", Icon: "calendar"},
		check: func(ev Evaluation) bool { return ev.Streak >= 7 },
	},
	{
		badge: domain.Badge{ID: "streak-10", Title: "Double Digits", Description: "10-day streak", Icon: "medal"},
		check: func(ev Evaluation) bool { return ev.Streak >= 10 },
	},
	{
		badge: domain.Badge{ID: "streak-30", Title: "Habit Formed", Description: "30-day streak", Icon: "trophy"},
		check: func(ev Evaluation) bool { return ev.Streak >= 30 },
	},
	{
		badge: domain.Badge{ID: "volume-1000", Title: "Heavy Lifter", Description: "1000kg total volume in one session", Icon: "dumbbell"},
		check: func(ev Evaluation) bool { return ev.Log.CompletedVolume() >= 1000 },
	},
	{
		badge: domain.Badge{ID: "xp-1000", Title: "Seasoned", Description: "Earn 1000 lifetime XP", Icon: "star"},
		check: func(ev Evaluation) bool { return ev.XP >= 1000 },
	},
	{
		badge: domain.Badge{ID: "weekly-goal", Title: "Goal Getter", Description: "Hit your weekly workout goal", Icon: "target"},
		check: func(ev Evaluation) bool {
			goal := ev.Profile.EffectiveWeeklyGoal()
			start := weekStart(ev.Now)
			count := 0
			for _, log := range ev.Logs {
				if log.Qualifying() && !log.Date.Before(start) {
					count++
				}
			}
			return count >= goal
		},
	},
	{
		badge: domain.Badge{ID: "early-bird", Title: "Early Bird", Description: "Work out before 7am", Icon: "sunrise"},
		check: func(ev Evaluation) bool {
			return ev.Log.Qualifying() && ev.Log.Date.Hour() < 7
		},
	},
	{
		badge: domain.Badge{ID: "explorer", Title: "Explorer", Description: "Log a custom activity", Icon: "compass"},
		check: func(ev Evaluation) bool {
			return ev.Log.Type == domain.WorkoutTypeCustom && !ev.Log.Deleted
		},
	},
}

// Catalog exposes the badge table for display surfaces.
func Catalog() []domain.Badge {
	out := make([]domain.Badge, 0, len(catalog))
	for _, entry := range catalog {
		out = append(out, entry.badge)
	}
	return out
}

func weekStart(at time.Time) time.Time {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}
