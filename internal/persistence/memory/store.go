// Package memory provides in-memory repositories for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"example.com/tribe/internal/domain"
)

// Store implements the domain repositories over in-process maps.
type Store struct {
	mu       sync.RWMutex
	logs     map[string]domain.WorkoutLog
	profiles map[string]domain.UserProfile
	states   map[string]domain.GamificationState
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		logs:     make(map[string]domain.WorkoutLog),
		profiles: make(map[string]domain.UserProfile),
		states:   make(map[string]domain.GamificationState),
	}
}

// Logs returns the store's log repository view.
func (s *Store) Logs() domain.LogRepository { return (*logView)(s) }

// Profiles returns the store's profile repository view.
func (s *Store) Profiles() domain.ProfileRepository { return (*profileView)(s) }

// Gamification returns the store's gamification repository view.
func (s *Store) Gamification() domain.GamificationRepository { return (*stateView)(s) }

type logView Store

// Get implements domain.LogRepository.
func (v *logView) Get(ctx context.Context, logID string) (*domain.WorkoutLog, error) {
	return (*Store)(v).getLog(ctx, logID)
}

// ListByUser implements domain.LogRepository.
func (v *logView) ListByUser(ctx context.Context, userID string) ([]domain.WorkoutLog, error) {
	return (*Store)(v).listByUser(ctx, userID)
}

// ListByTribe implements domain.LogRepository.
func (v *logView) ListByTribe(ctx context.Context, tribeID string) (map[string][]domain.WorkoutLog, error) {
	return (*Store)(v).listByTribe(ctx, tribeID)
}

// Save implements domain.LogRepository.
func (v *logView) Save(ctx context.Context, log domain.WorkoutLog) error {
	return (*Store)(v).saveLog(ctx, log)
}

// Delete implements domain.LogRepository.
func (v *logView) Delete(ctx context.Context, logID string) error {
	return (*Store)(v).deleteLog(ctx, logID)
}

type profileView Store

// Get implements domain.ProfileRepository.
func (v *profileView) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return (*Store)(v).getProfile(ctx, userID)
}

// Save implements domain.ProfileRepository.
func (v *profileView) Save(ctx context.Context, profile domain.UserProfile) error {
	return (*Store)(v).saveProfile(ctx, profile)
}

// TribeMembers implements domain.ProfileRepository.
func (v *profileView) TribeMembers(ctx context.Context, tribeID string) ([]domain.TribeMember, error) {
	return (*Store)(v).tribeMembers(ctx, tribeID)
}

type stateView Store

// Get implements domain.GamificationRepository.
func (v *stateView) Get(ctx context.Context, userID string) (*domain.GamificationState, error) {
	return (*Store)(v).getState(ctx, userID)
}

// Save implements domain.GamificationRepository.
func (v *stateView) Save(ctx context.Context, state domain.GamificationState) error {
	return (*Store)(v).saveState(ctx, state)
}

func (s *Store) getLog(ctx context.Context, logID string) (*domain.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[logID]
	if !ok {
		return nil, nil
	}
	return &log, nil
}

// listByUser includes tombstoned logs; derivation filters them so late
// edits to deleted logs stay visible to the conflict policy.
func (s *Store) listByUser(ctx context.Context, userID string) ([]domain.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WorkoutLog, 0)
	for _, log := range s.logs {
		if log.UserID == userID {
			out = append(out, log)
		}
	}
	return out, nil
}

func (s *Store) listByTribe(ctx context.Context, tribeID string) (map[string][]domain.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]domain.WorkoutLog)
	for _, log := range s.logs {
		if log.TribeID == tribeID {
			out[log.UserID] = append(out[log.UserID], log)
		}
	}
	return out, nil
}

// saveLog is an upsert by log id.
func (s *Store) saveLog(ctx context.Context, log domain.WorkoutLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = log
	return nil
}

// deleteLog records a tombstone.
func (s *Store) deleteLog(ctx context.Context, logID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[logID]
	if !ok {
		return domain.ErrLogNotFound
	}
	log.Deleted = true
	log.UpdatedAt = time.Now().UTC()
	s.logs[logID] = log
	return nil
}

func (s *Store) getProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (s *Store) saveProfile(ctx context.Context, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *Store) tribeMembers(ctx context.Context, tribeID string) ([]domain.TribeMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TribeMember, 0)
	for _, profile := range s.profiles {
		if profile.TribeID == tribeID {
			out = append(out, domain.TribeMember{
				UserID:      profile.UserID,
				DisplayName: profile.DisplayName,
				AvatarID:    profile.AvatarID,
			})
		}
	}
	return out, nil
}

func (s *Store) getState(ctx context.Context, userID string) (*domain.GamificationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *Store) saveState(ctx context.Context, state domain.GamificationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID] = state
	return nil
}
