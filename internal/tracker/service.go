// Package tracker orchestrates log mutations and derived-state recomputation.
package tracker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/tribe/internal/achievement"
	"example.com/tribe/internal/cache"
	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/engine"
	"example.com/tribe/internal/events"
	"example.com/tribe/internal/observability"
	"example.com/tribe/internal/quest"
)

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Logs         domain.LogRepository
	Profiles     domain.ProfileRepository
	Gamification domain.GamificationRepository
	Derive       *engine.Engine
	Quests       *quest.Engine
	Badges       *achievement.Engine
	Cache        *cache.Cache
	Emitter      events.Emitter
	Logger       *log.Logger
}

// Service coordinates the derivation, quest, and achievement engines over
// the log store. Mutations go through here so every write is followed by
// cache invalidation and recomputation instead of ad hoc cache patching.
type Service struct {
	logs         domain.LogRepository
	profiles     domain.ProfileRepository
	gamification domain.GamificationRepository
	derive       *engine.Engine
	quests       *quest.Engine
	badges       *achievement.Engine
	cache        *cache.Cache
	emitter      events.Emitter
	logger       *log.Logger
	now          func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	s := &Service{
		logs:         deps.Logs,
		profiles:     deps.Profiles,
		gamification: deps.Gamification,
		derive:       deps.Derive,
		quests:       deps.Quests,
		badges:       deps.Badges,
		cache:        deps.Cache,
		emitter:      deps.Emitter,
		logger:       deps.Logger,
		now:          time.Now,
	}
	if s.emitter == nil {
		s.emitter = events.Noop{}
	}
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[tracker] ", log.LstdFlags)
	}
	return s
}

// SaveLog validates and stores a workout log, then recomputes derived state.
// A commitment already standing for the same day is superseded in place:
// the new log takes over its id so the day never holds both. Mutation errors
// propagate; derivation failures after the durable write are reported but do
// not fail the save.
func (s *Service) SaveLog(ctx context.Context, logEntry domain.WorkoutLog) (*domain.WorkoutLog, error) {
	if strings.TrimSpace(logEntry.ID) == "" {
		logEntry.ID = uuid.NewString()
	}
	if err := logEntry.Validate(); err != nil {
		return nil, err
	}

	userLogs, err := s.logs.ListByUser(ctx, logEntry.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing logs for %s: %w", logEntry.UserID, err)
	}

	day := s.derive.Policy().Day(logEntry.Date)
	for _, existing := range userLogs {
		if existing.Deleted || existing.Type != domain.WorkoutTypeCommitment {
			continue
		}
		if s.derive.Policy().Day(existing.Date) != day {
			continue
		}
		if logEntry.Type == domain.WorkoutTypeCommitment && existing.ID != logEntry.ID {
			// At most one commitment per day: replace rather than duplicate.
			logEntry.ID = existing.ID
			logEntry.CreatedAt = existing.CreatedAt
		}
		if logEntry.Type != domain.WorkoutTypeCommitment {
			// A real log upgrades the day's commitment in place.
			logEntry.ID = existing.ID
			logEntry.CreatedAt = existing.CreatedAt
		}
		break
	}

	now := s.now().UTC()
	if logEntry.CreatedAt.IsZero() {
		logEntry.CreatedAt = now
	}
	logEntry.UpdatedAt = now

	if err := s.logs.Save(ctx, logEntry); err != nil {
		return nil, fmt.Errorf("saving log %s: %w", logEntry.ID, err)
	}
	observability.RecordLogSaved(string(logEntry.Type))

	s.afterLogMutation(ctx, logEntry)
	return &logEntry, nil
}

// UpdateLog replaces a stored log, honouring the conflict policy: a delete
// tombstone wins over a concurrent edit, and an older write never clobbers a
// newer one (last-write-wins by update timestamp).
func (s *Service) UpdateLog(ctx context.Context, logEntry domain.WorkoutLog) (*domain.WorkoutLog, error) {
	if err := logEntry.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.logs.Get(ctx, logEntry.ID)
	if err != nil {
		return nil, fmt.Errorf("loading log %s: %w", logEntry.ID, err)
	}
	if existing == nil {
		return nil, domain.ErrLogNotFound
	}
	if existing.Deleted {
		// Tombstone wins: do not resurrect.
		return existing, nil
	}
	if !logEntry.UpdatedAt.IsZero() && existing.UpdatedAt.After(logEntry.UpdatedAt) {
		return existing, nil
	}

	logEntry.CreatedAt = existing.CreatedAt
	logEntry.UpdatedAt = s.now().UTC()
	if err := s.logs.Save(ctx, logEntry); err != nil {
		return nil, fmt.Errorf("saving log %s: %w", logEntry.ID, err)
	}

	s.afterLogMutation(ctx, logEntry)
	return &logEntry, nil
}

// DeleteLog tombstones a log and invalidates derived aggregates.
func (s *Service) DeleteLog(ctx context.Context, logID string) error {
	existing, err := s.logs.Get(ctx, logID)
	if err != nil {
		return fmt.Errorf("loading log %s: %w", logID, err)
	}
	if existing == nil {
		return domain.ErrLogNotFound
	}
	if existing.Deleted {
		return nil
	}

	if err := s.logs.Delete(ctx, logID); err != nil {
		return fmt.Errorf("deleting log %s: %w", logID, err)
	}

	s.settleLogXP(ctx, existing.UserID, logID, 0)
	s.invalidate(existing.UserID, existing.TribeID)
	s.emit(ctx, events.TopicLogEvents, "log.deleted", existing.UserID, events.LogDeleted{
		LogID:      logID,
		UserID:     existing.UserID,
		TribeID:    existing.TribeID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// afterLogMutation runs the recomputation pipeline behind a durable write:
// quest progress, achievements, XP credit, cache invalidation, events.
// Failures here are logged, not propagated; the log itself is already safe.
func (s *Service) afterLogMutation(ctx context.Context, logEntry domain.WorkoutLog) {
	now := s.now()
	xp := s.derive.ComputeLogXP(logEntry)

	profile := s.profileOrDefault(ctx, logEntry.UserID)
	rewards, changed := s.quests.ApplyLogProgress(&profile, logEntry)
	if changed {
		if err := s.profiles.Save(ctx, profile); err != nil {
			s.logger.Printf("saving quest progress for %s: %v", logEntry.UserID, err)
		}
		for _, reward := range rewards {
			s.award(ctx, logEntry.UserID, reward.XP, reward.Points)
			observability.RecordQuestCompleted(string(quest.TypeAutomatic))
		}
	}
	if changed || logEntry.Qualifying() {
		// Qualifying saves move the day's derived quest progress even when
		// nothing on the profile changed.
		s.emit(ctx, events.TopicGamificationEvents, "quest.updated", logEntry.UserID, events.QuestUpdated{
			UserID:     logEntry.UserID,
			OccurredAt: now.UTC(),
		})
	}

	s.settleLogXP(ctx, logEntry.UserID, logEntry.ID, xp)

	s.checkAchievements(ctx, logEntry, profile, now)

	s.invalidate(logEntry.UserID, logEntry.TribeID)
	s.emit(ctx, events.TopicLogEvents, "log.saved", logEntry.UserID, events.LogSaved{
		LogID:      logEntry.ID,
		UserID:     logEntry.UserID,
		TribeID:    logEntry.TribeID,
		Type:       string(logEntry.Type),
		XP:         xp,
		OccurredAt: now.UTC(),
	})
}

// checkAchievements evaluates badge predicates and persists new unlocks.
// Fails closed on any fetch error: no history, no awards.
func (s *Service) checkAchievements(ctx context.Context, logEntry domain.WorkoutLog, profile domain.UserProfile, now time.Time) {
	logs, err := s.logs.ListByUser(ctx, logEntry.UserID)
	if err != nil {
		s.logger.Printf("achievement history fetch for %s: %v", logEntry.UserID, err)
		return
	}
	state, err := s.gamification.Get(ctx, logEntry.UserID)
	if err != nil {
		s.logger.Printf("achievement state fetch for %s: %v", logEntry.UserID, err)
		return
	}
	if state == nil {
		state = &domain.GamificationState{UserID: logEntry.UserID}
	}

	unlocked := s.badges.Check(logEntry, profile, state, logs, now)
	if len(unlocked) == 0 {
		return
	}

	for _, badge := range unlocked {
		if state.AwardBadge(badge.ID) {
			observability.RecordBadgeUnlocked(badge.ID)
			s.emit(ctx, events.TopicGamificationEvents, "badge.unlocked", logEntry.UserID, events.BadgeUnlocked{
				UserID:     logEntry.UserID,
				BadgeID:    badge.ID,
				OccurredAt: now.UTC(),
			})
		}
	}
	state.UpdatedAt = now.UTC()
	if err := s.gamification.Save(ctx, *state); err != nil {
		s.logger.Printf("persisting badges for %s: %v", logEntry.UserID, err)
		return
	}
	s.cache.Invalidate(cache.GamificationKey(logEntry.UserID))
}

// settleLogXP reconciles the state's credit for one log with the log's
// current XP, so lifetime XP tracks the live log set instead of the number
// of pipeline passes. Deletes settle to zero and take the credit back out.
func (s *Service) settleLogXP(ctx context.Context, userID, logID string, xp int) {
	state, err := s.gamification.Get(ctx, userID)
	if err != nil {
		s.logger.Printf("state fetch for %s: %v", userID, err)
		return
	}
	if state == nil {
		state = &domain.GamificationState{UserID: userID}
	}
	delta := state.CreditLog(logID, xp)
	if delta == 0 {
		return
	}
	state.UpdatedAt = s.now().UTC()
	if err := s.gamification.Save(ctx, *state); err != nil {
		s.logger.Printf("state save for %s: %v", userID, err)
		return
	}
	observability.RecordXPAwarded(delta)
	s.cache.Invalidate(cache.GamificationKey(userID))
}

// award credits XP and points through the state path and drops the cached copy.
func (s *Service) award(ctx context.Context, userID string, xp, points int) {
	state, err := s.gamification.Get(ctx, userID)
	if err != nil {
		s.logger.Printf("state fetch for %s: %v", userID, err)
		return
	}
	if state == nil {
		state = &domain.GamificationState{UserID: userID}
	}
	state.AddReward(xp, points)
	state.UpdatedAt = s.now().UTC()
	if err := s.gamification.Save(ctx, *state); err != nil {
		s.logger.Printf("state save for %s: %v", userID, err)
		return
	}
	observability.RecordXPAwarded(xp)
	s.cache.Invalidate(cache.GamificationKey(userID))
}

func (s *Service) profileOrDefault(ctx context.Context, userID string) domain.UserProfile {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.logger.Printf("profile fetch for %s: %v", userID, err)
	}
	if profile == nil {
		return domain.UserProfile{UserID: userID}
	}
	return *profile
}

func (s *Service) invalidate(userID, tribeID string) {
	s.cache.Invalidate(cache.GamificationKey(userID))
	if tribeID != "" {
		s.cache.Invalidate(cache.TeamStatsKey(tribeID))
	}
}

func (s *Service) emit(ctx context.Context, topic, eventType, key string, payload interface{}) {
	if err := s.emitter.Emit(ctx, topic, eventType, key, payload); err != nil {
		s.logger.Printf("emit %s failed: %v", eventType, err)
	}
}
