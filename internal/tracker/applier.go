package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/tribe/internal/domain"
)

// The service is the replay target for queued offline mutations. Replay goes
// through the same paths as online writes so derived state stays consistent.

// ApplySaveLog replays a queued save.
func (s *Service) ApplySaveLog(ctx context.Context, log domain.WorkoutLog) error {
	_, err := s.SaveLog(ctx, log)
	return err
}

// ApplyUpdateLog replays a queued edit. A log the server never saw falls back
// to a save; offline clients can edit before their create has synced.
func (s *Service) ApplyUpdateLog(ctx context.Context, log domain.WorkoutLog) error {
	_, err := s.UpdateLog(ctx, log)
	if errors.Is(err, domain.ErrLogNotFound) {
		_, err = s.SaveLog(ctx, log)
	}
	return err
}

// ApplyDeleteLog replays a queued deletion. Deleting a log the server never
// saw is a no-op, not an error; the offline create it targeted may itself
// have been quarantined.
func (s *Service) ApplyDeleteLog(ctx context.Context, logID string, at time.Time) error {
	err := s.DeleteLog(ctx, logID)
	if errors.Is(err, domain.ErrLogNotFound) {
		return nil
	}
	return err
}

// ApplyUpdateProfile replays a queued profile update with last-write-wins.
func (s *Service) ApplyUpdateProfile(ctx context.Context, profile domain.UserProfile) error {
	existing, err := s.profiles.Get(ctx, profile.UserID)
	if err != nil {
		return fmt.Errorf("loading profile %s: %w", profile.UserID, err)
	}
	if existing != nil && !profile.UpdatedAt.IsZero() && existing.UpdatedAt.After(profile.UpdatedAt) {
		return nil
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("saving profile %s: %w", profile.UserID, err)
	}
	s.invalidate(profile.UserID, profile.TribeID)
	return nil
}
