package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/tribe/internal/domain"
)

func testEngine() *Engine {
	return New(DefaultPolicy())
}

func structuredLog(id string, date time.Time) domain.WorkoutLog {
	return domain.WorkoutLog{
		ID:     id,
		UserID: "user-1",
		Date:   date,
		Type:   domain.WorkoutTypeA,
		Exercises: []domain.Exercise{
			{Name: "Squat", Sets: []domain.Set{
				{Reps: 5, Weight: 100, Completed: true},
				{Reps: 5, Weight: 100, Completed: true},
				{Reps: 5, Weight: 100, Completed: false},
			}},
		},
		DurationMin: 45,
	}
}

func TestComputeLogXPCommitmentEarnsNothing(t *testing.T) {
	e := testEngine()
	log := domain.WorkoutLog{ID: "c-1", UserID: "user-1", Date: time.Now(), Type: domain.WorkoutTypeCommitment}
	require.Equal(t, 0, e.ComputeLogXP(log))
}

func TestComputeLogXPCustomVibesCapped(t *testing.T) {
	e := testEngine()
	log := domain.WorkoutLog{
		ID:     "v-1",
		UserID: "user-1",
		Date:   time.Now(),
		Type:   domain.WorkoutTypeCustom,
		Vibes:  80,
	}
	require.Equal(t, 60, e.ComputeLogXP(log))
}

func TestComputeLogXPCustomCaloriesFallback(t *testing.T) {
	e := testEngine()
	log := domain.WorkoutLog{
		ID:       "k-1",
		UserID:   "user-1",
		Date:     time.Now(),
		Type:     domain.WorkoutTypeCustom,
		Calories: 350,
	}
	require.Equal(t, 35, e.ComputeLogXP(log))
}

func TestComputeLogXPStructuredVolume(t *testing.T) {
	e := testEngine()
	log := structuredLog("a-1", time.Now())

	// 10 completed reps x 100kg = 1000kg volume -> 10 XP, plus the session base.
	require.Equal(t, 30, e.ComputeLogXP(log))
}

func TestXPBreakdownConservation(t *testing.T) {
	e := testEngine()
	now := time.Now()
	logs := []domain.WorkoutLog{
		structuredLog("a-1", now),
		{ID: "v-1", UserID: "user-1", Date: now, Type: domain.WorkoutTypeCustom, Vibes: 80},
		{ID: "k-1", UserID: "user-1", Date: now, Type: domain.WorkoutTypeCustom, Calories: 123},
		{ID: "c-1", UserID: "user-1", Date: now, Type: domain.WorkoutTypeCommitment},
	}

	breakdowns := e.BreakdownAll(logs)
	require.Len(t, breakdowns, len(logs))
	for _, log := range logs {
		require.Equal(t, e.ComputeLogXP(log), breakdowns[log.ID].Total(), "breakdown must sum to the log XP for %s", log.ID)
	}
}

func TestBreakdownAllSkipsTombstones(t *testing.T) {
	e := testEngine()
	deleted := structuredLog("gone", time.Now())
	deleted.Deleted = true

	breakdowns := e.BreakdownAll([]domain.WorkoutLog{deleted})
	require.Empty(t, breakdowns)
}

func TestLevelProgressZeroXP(t *testing.T) {
	level, progress := LevelProgress(0)
	require.Equal(t, 1, level)
	require.Equal(t, 0, progress)
}

func TestLevelProgressMonotonic(t *testing.T) {
	prevLevel, prevFloor := 1, 0
	for xp := 0; xp <= 5000; xp += 50 {
		level, progress := LevelProgress(xp)
		require.GreaterOrEqual(t, level, prevLevel, "level must never regress at xp=%d", xp)
		require.GreaterOrEqual(t, progress, 0)
		require.Less(t, progress, 100)
		if level == prevLevel {
			require.GreaterOrEqual(t, progress, prevFloor)
			prevFloor = progress
		} else {
			prevFloor = 0
		}
		prevLevel = level
	}
}

func TestLifetimeXPExcludesDeleted(t *testing.T) {
	e := testEngine()
	now := time.Now()
	kept := structuredLog("kept", now)
	dropped := structuredLog("dropped", now)
	dropped.Deleted = true

	require.Equal(t, e.ComputeLogXP(kept), e.LifetimeXP([]domain.WorkoutLog{kept, dropped}))
}
