//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/syncqueue"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	logEntry := domain.WorkoutLog{
		ID:     uuid.NewString(),
		UserID: userID,
		Date:   time.Now().UTC().Truncate(time.Second),
		Type:   domain.WorkoutTypeA,
		Exercises: []domain.Exercise{
			{Name: "Squat", Sets: []domain.Set{{Reps: 5, Weight: 100, Completed: true}}},
		},
		DurationMin: 45,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Logs().Save(ctx, logEntry))

	stored, err := repo.Logs().Get(ctx, logEntry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, logEntry.Exercises, stored.Exercises)
	require.Equal(t, domain.WorkoutTypeA, stored.Type)

	listed, err := repo.Logs().ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	missing, err := repo.Logs().Get(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDeleteTombstonesLog(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	logEntry := domain.WorkoutLog{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		Date:      time.Now().UTC(),
		Type:      domain.WorkoutTypeCustom,
		Vibes:     40,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Logs().Save(ctx, logEntry))
	require.NoError(t, repo.Logs().Delete(ctx, logEntry.ID))

	stored, err := repo.Logs().Get(ctx, logEntry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.True(t, stored.Deleted)

	require.ErrorIs(t, repo.Logs().Delete(ctx, uuid.NewString()), domain.ErrLogNotFound)
}

func TestProfileUpsertAndTribeMembers(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	tribeID := uuid.NewString()
	profile := domain.UserProfile{
		UserID:      uuid.NewString(),
		DisplayName: "Ada",
		TribeID:     tribeID,
		WeeklyGoal:  4,
		OnboardingDone: map[string]bool{
			"onboarding-set-goal": true,
		},
		ManualQuestDays: map[string]string{
			"manual-hydrate": "2024-05-14",
		},
		CustomChallenges: []domain.CustomChallenge{
			{ID: "ch-1", Title: "Run 10 times", Type: domain.ChallengeWeekly, Target: 10, Progress: 3},
		},
	}
	require.NoError(t, repo.Profiles().Save(ctx, profile))

	stored, err := repo.Profiles().Get(ctx, profile.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, profile.OnboardingDone, stored.OnboardingDone)
	require.Equal(t, profile.ManualQuestDays, stored.ManualQuestDays)
	require.Equal(t, profile.CustomChallenges, stored.CustomChallenges)

	profile.WeeklyGoal = 5
	require.NoError(t, repo.Profiles().Save(ctx, profile))
	stored, err = repo.Profiles().Get(ctx, profile.UserID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.WeeklyGoal)

	members, err := repo.Profiles().TribeMembers(ctx, tribeID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "Ada", members[0].DisplayName)
}

func TestGamificationStateUpsert(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	state := domain.GamificationState{
		UserID:     uuid.NewString(),
		Points:     100,
		LifetimeXP: 250,
		LogXP:      map[string]int{"log-1": 30, "log-2": 25},
		Badges:     []string{"first-workout"},
	}
	require.NoError(t, repo.Gamification().Save(ctx, state))

	stored, err := repo.Gamification().Get(ctx, state.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, 250, stored.LifetimeXP)
	require.Equal(t, map[string]int{"log-1": 30, "log-2": 25}, stored.LogXP)
	require.True(t, stored.HasBadge("first-workout"))

	stored.AddReward(50, 50)
	require.NoError(t, repo.Gamification().Save(ctx, *stored))
	stored, err = repo.Gamification().Get(ctx, state.UserID)
	require.NoError(t, err)
	require.Equal(t, 300, stored.LifetimeXP)
}

func TestQueueStoreOrderingAndQuarantine(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	store := NewQueueStore(pool)

	deviceID := uuid.NewString()
	// Identical timestamps: append order must still hold via the sequence.
	base := time.Now().UTC().Truncate(time.Second)
	for _, op := range []syncqueue.Operation{syncqueue.OpSaveLog, syncqueue.OpUpdateLog, syncqueue.OpDeleteLog} {
		require.NoError(t, store.Append(ctx, syncqueue.Entry{
			ID:         uuid.NewString(),
			DeviceID:   deviceID,
			Operation:  op,
			Payload:    []byte(`{}`),
			EnqueuedAt: base,
		}))
	}

	entries, err := store.List(ctx, deviceID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, syncqueue.OpSaveLog, entries[0].Operation)
	require.Equal(t, syncqueue.OpDeleteLog, entries[2].Operation)

	quarantined := entries[1]
	at := time.Now().UTC()
	quarantined.Attempts = 5
	quarantined.QuarantinedAt = &at
	require.NoError(t, store.Update(ctx, quarantined))

	entries, err = store.List(ctx, deviceID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, store.Remove(ctx, entries[0].ID))
	entries, err = store.List(ctx, deviceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func startDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tribe"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
