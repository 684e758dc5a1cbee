package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/engine"
)

func testEngine() *Engine {
	return New(engine.New(engine.DefaultPolicy()))
}

func badgeIDs(badges []domain.Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, badge := range badges {
		ids = append(ids, badge.ID)
	}
	return ids
}

func TestCheckFirstWorkout(t *testing.T) {
	a := testEngine()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	log := domain.WorkoutLog{ID: "l1", UserID: "user-1", Date: now, Type: domain.WorkoutTypeCustom, Vibes: 30}

	state := &domain.GamificationState{UserID: "user-1"}
	badges := a.Check(log, domain.UserProfile{UserID: "user-1"}, state, []domain.WorkoutLog{log}, now)

	require.Contains(t, badgeIDs(badges), "first-workout")
	require.Contains(t, badgeIDs(badges), "explorer")
}

func TestCheckIdempotent(t *testing.T) {
	a := testEngine()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	log := domain.WorkoutLog{ID: "l1", UserID: "user-1", Date: now, Type: domain.WorkoutTypeCustom, Vibes: 30}
	logs := []domain.WorkoutLog{log}
	profile := domain.UserProfile{UserID: "user-1"}

	state := &domain.GamificationState{UserID: "user-1"}
	first := a.Check(log, profile, state, logs, now)
	require.NotEmpty(t, first)
	for _, badge := range first {
		state.AwardBadge(badge.ID)
	}

	second := a.Check(log, profile, state, logs, now)
	for _, badge := range second {
		require.NotContains(t, badgeIDs(first), badge.ID, "a held badge must never be returned again")
	}
	require.Empty(t, second)
}

func TestCheckFailsClosedWithoutHistory(t *testing.T) {
	a := testEngine()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	log := domain.WorkoutLog{ID: "l1", UserID: "user-1", Date: now, Type: domain.WorkoutTypeCustom, Vibes: 30}

	require.Nil(t, a.Check(log, domain.UserProfile{}, nil, []domain.WorkoutLog{log}, now))
	require.Nil(t, a.Check(log, domain.UserProfile{}, &domain.GamificationState{}, nil, now))
}

func TestCheckStreakMilestones(t *testing.T) {
	a := testEngine()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	logs := make([]domain.WorkoutLog, 0, 7)
	for i := 0; i < 7; i++ {
		logs = append(logs, domain.WorkoutLog{
			ID:     string(rune('a' + i)),
			UserID: "user-1",
			Date:   now.AddDate(0, 0, -i),
			Type:   domain.WorkoutTypeCustom,
			Vibes:  20,
		})
	}

	state := &domain.GamificationState{UserID: "user-1"}
	ids := badgeIDs(a.Check(logs[0], domain.UserProfile{UserID: "user-1"}, state, logs, now))

	require.Contains(t, ids, "streak-3")
	require.Contains(t, ids, "streak-7")
	require.NotContains(t, ids, "streak-10")
	require.NotContains(t, ids, "streak-30")
}

func TestCheckSessionVolume(t *testing.T) {
	a := testEngine()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	log := domain.WorkoutLog{
		ID:     "heavy",
		UserID: "user-1",
		Date:   now,
		Type:   domain.WorkoutTypeA,
		Exercises: []domain.Exercise{
			{Name: "Deadlift", Sets: []domain.Set{
				{Reps: 5, Weight: 120, Completed: true},
				{Reps: 5, Weight: 120, Completed: true},
			}},
		},
	}

	state := &domain.GamificationState{UserID: "user-1"}
	ids := badgeIDs(a.Check(log, domain.UserProfile{UserID: "user-1"}, state, []domain.WorkoutLog{log}, now))

	require.Contains(t, ids, "volume-1000")
}

func TestCatalogHasUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, badge := range Catalog() {
		require.False(t, seen[badge.ID], "duplicate badge id %s", badge.ID)
		seen[badge.ID] = true
	}
}

func TestCheckEarlyBirdUsesPolicyClock(t *testing.T) {
	a := testEngine()

	// 06:30 on the log's own clock is 11:30 in the policy zone: no award.
	date := time.Date(2026, time.March, 10, 6, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	log := domain.WorkoutLog{ID: "l1", UserID: "user-1", Date: date, Type: domain.WorkoutTypeCustom, Vibes: 30}

	state := &domain.GamificationState{UserID: "user-1"}
	badges := a.Check(log, domain.UserProfile{UserID: "user-1"}, state, []domain.WorkoutLog{log}, date)
	require.NotContains(t, badgeIDs(badges), "early-bird")

	// 09:30 on the log's own clock is 04:30 in the policy zone: awarded.
	date = time.Date(2026, time.March, 11, 9, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	log = domain.WorkoutLog{ID: "l2", UserID: "user-1", Date: date, Type: domain.WorkoutTypeCustom, Vibes: 30}
	badges = a.Check(log, domain.UserProfile{UserID: "user-1"}, state, []domain.WorkoutLog{log}, date)
	require.Contains(t, badgeIDs(badges), "early-bird")
}
