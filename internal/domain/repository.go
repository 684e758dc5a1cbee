package domain

import "context"

// LogRepository captures workout log persistence. Save is an upsert keyed by
// log ID so retries are safe; Delete records a tombstone rather than erasing
// the row.
type LogRepository interface {
	Get(ctx context.Context, logID string) (*WorkoutLog, error)
	ListByUser(ctx context.Context, userID string) ([]WorkoutLog, error)
	ListByTribe(ctx context.Context, tribeID string) (map[string][]WorkoutLog, error)
	Save(ctx context.Context, log WorkoutLog) error
	Delete(ctx context.Context, logID string) error
}

// ProfileRepository captures user profile and tribe membership persistence.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Save(ctx context.Context, profile UserProfile) error
	TribeMembers(ctx context.Context, tribeID string) ([]TribeMember, error)
}

// GamificationRepository persists derived reward state. Used exclusively by
// the derivation and achievement paths.
type GamificationRepository interface {
	Get(ctx context.Context, userID string) (*GamificationState, error)
	Save(ctx context.Context, state GamificationState) error
}
