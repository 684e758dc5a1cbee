// Package postgres provides pgx-backed persistence for logs, profiles, and
// gamification state.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tribe/internal/domain"
)

// Repository bundles the three store implementations over one pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Logs returns the log store.
func (r *Repository) Logs() domain.LogRepository { return (*logStore)(r) }

// Profiles returns the profile store.
func (r *Repository) Profiles() domain.ProfileRepository { return (*profileStore)(r) }

// Gamification returns the gamification state store.
func (r *Repository) Gamification() domain.GamificationRepository { return (*stateStore)(r) }

type logStore Repository

const logColumns = `log_id, user_id, COALESCE(tribe_id, ''), log_date, workout_type, exercises, duration_min, calories, vibes, custom_activity, deleted, created_at, updated_at`

func scanLog(row pgx.Row) (*domain.WorkoutLog, error) {
	var (
		logEntry domain.WorkoutLog
		workout  string
		raw      []byte
	)
	err := row.Scan(
		&logEntry.ID,
		&logEntry.UserID,
		&logEntry.TribeID,
		&logEntry.Date,
		&workout,
		&raw,
		&logEntry.DurationMin,
		&logEntry.Calories,
		&logEntry.Vibes,
		&logEntry.CustomActivity,
		&logEntry.Deleted,
		&logEntry.CreatedAt,
		&logEntry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	logEntry.Type = domain.WorkoutType(workout)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &logEntry.Exercises); err != nil {
			return nil, fmt.Errorf("decoding exercises for %s: %w", logEntry.ID, err)
		}
	}
	return &logEntry, nil
}

func (s *logStore) Get(ctx context.Context, logID string) (*domain.WorkoutLog, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+logColumns+` FROM workout_logs WHERE log_id=$1`, logID)
	logEntry, err := scanLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return logEntry, err
}

func (s *logStore) ListByUser(ctx context.Context, userID string) ([]domain.WorkoutLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+logColumns+` FROM workout_logs WHERE user_id=$1 ORDER BY log_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLogs(rows)
}

func (s *logStore) ListByTribe(ctx context.Context, tribeID string) (map[string][]domain.WorkoutLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+logColumns+` FROM workout_logs WHERE tribe_id=$1 ORDER BY log_date DESC`, tribeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs, err := collectLogs(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.WorkoutLog)
	for _, logEntry := range logs {
		out[logEntry.UserID] = append(out[logEntry.UserID], logEntry)
	}
	return out, nil
}

func (s *logStore) Save(ctx context.Context, logEntry domain.WorkoutLog) error {
	exercises, err := json.Marshal(logEntry.Exercises)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO workout_logs (log_id, user_id, tribe_id, log_date, workout_type, exercises, duration_min, calories, vibes, custom_activity, deleted, created_at, updated_at)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (log_id) DO UPDATE SET
			tribe_id=EXCLUDED.tribe_id,
			log_date=EXCLUDED.log_date,
			workout_type=EXCLUDED.workout_type,
			exercises=EXCLUDED.exercises,
			duration_min=EXCLUDED.duration_min,
			calories=EXCLUDED.calories,
			vibes=EXCLUDED.vibes,
			custom_activity=EXCLUDED.custom_activity,
			deleted=EXCLUDED.deleted,
			updated_at=EXCLUDED.updated_at`,
		logEntry.ID,
		logEntry.UserID,
		logEntry.TribeID,
		logEntry.Date,
		string(logEntry.Type),
		exercises,
		logEntry.DurationMin,
		logEntry.Calories,
		logEntry.Vibes,
		logEntry.CustomActivity,
		logEntry.Deleted,
		logEntry.CreatedAt,
		logEntry.UpdatedAt,
	)
	return err
}

func (s *logStore) Delete(ctx context.Context, logID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE workout_logs SET deleted=TRUE, updated_at=NOW() WHERE log_id=$1`, logID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLogNotFound
	}
	return nil
}

func collectLogs(rows pgx.Rows) ([]domain.WorkoutLog, error) {
	var out []domain.WorkoutLog
	for rows.Next() {
		logEntry, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *logEntry)
	}
	return out, rows.Err()
}

type profileStore Repository

func (s *profileStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, display_name, avatar_id, COALESCE(tribe_id, ''), fitness_level, weekly_goal,
		       custom_challenges, templates, onboarding_done, manual_quest_days, created_at, updated_at
		FROM user_profiles WHERE user_id=$1`, userID)

	var (
		profile    domain.UserProfile
		challenges []byte
		templates  []byte
		onboarding []byte
		questDays  []byte
	)
	err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarID,
		&profile.TribeID,
		&profile.FitnessLevel,
		&profile.WeeklyGoal,
		&challenges,
		&templates,
		&onboarding,
		&questDays,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw []byte
		dst interface{}
	}{
		{challenges, &profile.CustomChallenges},
		{templates, &profile.Templates},
		{onboarding, &profile.OnboardingDone},
		{questDays, &profile.ManualQuestDays},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, fmt.Errorf("decoding profile %s: %w", userID, err)
			}
		}
	}
	return &profile, nil
}

func (s *profileStore) Save(ctx context.Context, profile domain.UserProfile) error {
	challenges, err := json.Marshal(profile.CustomChallenges)
	if err != nil {
		return err
	}
	templates, err := json.Marshal(profile.Templates)
	if err != nil {
		return err
	}
	onboarding, err := json.Marshal(profile.OnboardingDone)
	if err != nil {
		return err
	}
	questDays, err := json.Marshal(profile.ManualQuestDays)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, display_name, avatar_id, tribe_id, fitness_level, weekly_goal,
			custom_challenges, templates, onboarding_done, manual_quest_days, created_at, updated_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,COALESCE(NULLIF($11, '0001-01-01'::timestamptz), NOW()),COALESCE(NULLIF($12, '0001-01-01'::timestamptz), NOW()))
		ON CONFLICT (user_id) DO UPDATE SET
			display_name=EXCLUDED.display_name,
			avatar_id=EXCLUDED.avatar_id,
			tribe_id=EXCLUDED.tribe_id,
			fitness_level=EXCLUDED.fitness_level,
			weekly_goal=EXCLUDED.weekly_goal,
			custom_challenges=EXCLUDED.custom_challenges,
			templates=EXCLUDED.templates,
			onboarding_done=EXCLUDED.onboarding_done,
			manual_quest_days=EXCLUDED.manual_quest_days,
			updated_at=EXCLUDED.updated_at`,
		profile.UserID,
		profile.DisplayName,
		profile.AvatarID,
		profile.TribeID,
		profile.FitnessLevel,
		profile.WeeklyGoal,
		challenges,
		templates,
		onboarding,
		questDays,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (s *profileStore) TribeMembers(ctx context.Context, tribeID string) ([]domain.TribeMember, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, display_name, avatar_id FROM user_profiles WHERE tribe_id=$1 ORDER BY display_name`, tribeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TribeMember
	for rows.Next() {
		var member domain.TribeMember
		if err := rows.Scan(&member.UserID, &member.DisplayName, &member.AvatarID); err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

type stateStore Repository

func (s *stateStore) Get(ctx context.Context, userID string) (*domain.GamificationState, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, points, lifetime_xp, log_xp, badges, inventory, active_theme, unlocked_themes, updated_at
		FROM gamification_states WHERE user_id=$1`, userID)

	var (
		state     domain.GamificationState
		logXP     []byte
		badges    []byte
		inventory []byte
		themes    []byte
	)
	err := row.Scan(&state.UserID, &state.Points, &state.LifetimeXP, &logXP, &badges, &inventory, &state.ActiveTheme, &themes, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw []byte
		dst interface{}
	}{
		{logXP, &state.LogXP},
		{badges, &state.Badges},
		{inventory, &state.Inventory},
		{themes, &state.UnlockedThemes},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, fmt.Errorf("decoding state %s: %w", userID, err)
			}
		}
	}
	return &state, nil
}

func (s *stateStore) Save(ctx context.Context, state domain.GamificationState) error {
	logXP, err := json.Marshal(state.LogXP)
	if err != nil {
		return err
	}
	badges, err := json.Marshal(state.Badges)
	if err != nil {
		return err
	}
	inventory, err := json.Marshal(state.Inventory)
	if err != nil {
		return err
	}
	themes, err := json.Marshal(state.UnlockedThemes)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO gamification_states (user_id, points, lifetime_xp, log_xp, badges, inventory, active_theme, unlocked_themes, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,COALESCE(NULLIF($9, '0001-01-01'::timestamptz), NOW()))
		ON CONFLICT (user_id) DO UPDATE SET
			points=EXCLUDED.points,
			lifetime_xp=EXCLUDED.lifetime_xp,
			log_xp=EXCLUDED.log_xp,
			badges=EXCLUDED.badges,
			inventory=EXCLUDED.inventory,
			active_theme=EXCLUDED.active_theme,
			unlocked_themes=EXCLUDED.unlocked_themes,
			updated_at=EXCLUDED.updated_at`,
		state.UserID,
		state.Points,
		state.LifetimeXP,
		logXP,
		badges,
		inventory,
		state.ActiveTheme,
		themes,
		state.UpdatedAt,
	)
	return err
}
