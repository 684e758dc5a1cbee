package engine

import (
	"time"

	"example.com/tribe/internal/domain"
)

// TeamStats aggregates tribe member logs over the current week, month, and
// year. Weeks start on Sunday, matching streak-day semantics. Commitments are
// excluded from all counts. The result is derived on demand; callers cache it
// briefly and invalidate whenever any member's log set changes.
func (e *Engine) TeamStats(
	tribeID string,
	members []domain.TribeMember,
	profiles map[string]domain.UserProfile,
	logsByUser map[string][]domain.WorkoutLog,
	now time.Time,
) domain.TeamStats {
	loc := e.policy.location()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)

	stats := domain.TeamStats{
		TribeID:   tribeID,
		UserStats: make(map[string]domain.MemberContribution, len(members)),
	}

	allDays := make(map[string]bool)
	weeklyGoalSum := 0

	for _, member := range members {
		goal := domain.DefaultWeeklyGoal
		if profile, ok := profiles[member.UserID]; ok {
			goal = profile.EffectiveWeeklyGoal()
		}
		weeklyGoalSum += goal

		contribution := domain.MemberContribution{}
		for _, log := range logsByUser[member.UserID] {
			if log.Deleted {
				continue
			}
			xp := e.ComputeLogXP(log)
			stats.TotalXP += xp

			if !log.Qualifying() {
				continue
			}
			allDays[e.policy.Day(log.Date)] = true

			logDay := log.Date.In(loc)
			if !logDay.Before(yearStart) {
				stats.YearlyCount++
			}
			if !logDay.Before(monthStart) {
				stats.MonthlyCount++
			}
			if !logDay.Before(weekStart) {
				stats.WeeklyCount++
				stats.WeeklyXP += xp
				contribution.XP += xp
				contribution.Workouts++
			}
		}
		stats.UserStats[member.DisplayName] = contribution
	}

	stats.WeeklyTarget = weeklyGoalSum
	stats.MonthlyTarget = weeklyGoalSum * 4
	stats.YearlyTarget = weeklyGoalSum * 52

	stats.TeamStreak = e.streakOverDays(allDays, today)
	return stats
}

// streakOverDays walks consecutive days (ending today or yesterday) present
// in the day set.
func (e *Engine) streakOverDays(days map[string]bool, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	cursor := today
	if !days[e.policy.Day(cursor)] {
		cursor = cursor.AddDate(0, 0, -1)
		if !days[e.policy.Day(cursor)] {
			return 0
		}
	}
	streak := 0
	for days[e.policy.Day(cursor)] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
