package tracker

import (
	"context"
	"fmt"

	"example.com/tribe/internal/cache"
	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/engine"
	"example.com/tribe/internal/events"
	"example.com/tribe/internal/observability"
	"example.com/tribe/internal/quest"
)

// GetLog returns a stored log, including tombstones. Callers that need to
// hide deleted entries filter on the Deleted flag.
func (s *Service) GetLog(ctx context.Context, logID string) (*domain.WorkoutLog, error) {
	logEntry, err := s.logs.Get(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("loading log %s: %w", logID, err)
	}
	if logEntry == nil {
		return nil, domain.ErrLogNotFound
	}
	return logEntry, nil
}

// ListLogs returns a user's live logs, newest first.
func (s *Service) ListLogs(ctx context.Context, userID string) ([]domain.WorkoutLog, error) {
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing logs for %s: %w", userID, err)
	}
	live := make([]domain.WorkoutLog, 0, len(logs))
	for _, l := range logs {
		if !l.Deleted {
			live = append(live, l)
		}
	}
	return live, nil
}

// GetStreak returns the user's current streak. Store failures degrade to
// zero rather than surfacing an error; a streak readout is never worth a 500.
func (s *Service) GetStreak(ctx context.Context, userID string) int {
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Printf("streak fetch for %s: %v", userID, err)
		return 0
	}
	return s.derive.Streak(logs, s.now())
}

// GetStreakRisk reports whether the user's streak will lapse tonight.
func (s *Service) GetStreakRisk(ctx context.Context, userID string) bool {
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Printf("streak risk fetch for %s: %v", userID, err)
		return false
	}
	return s.derive.StreakRisk(logs, s.now())
}

// GetMood returns the user's derived mood, defaulting to normal on failure.
func (s *Service) GetMood(ctx context.Context, userID string) engine.Mood {
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Printf("mood fetch for %s: %v", userID, err)
		return engine.MoodNormal
	}
	return s.derive.Mood(logs, s.now())
}

// GetGamification returns the user's gamification state with the derived
// level attached, serving from cache when fresh.
func (s *Service) GetGamification(ctx context.Context, userID string) (*domain.GamificationState, int, error) {
	key := cache.GamificationKey(userID)
	if cached, ok := s.cache.Get(key); ok {
		observability.RecordCacheHit("gamification")
		state := cached.(domain.GamificationState)
		level, _ := engine.LevelProgress(state.EffectiveLifetimeXP())
		return &state, level, nil
	}
	observability.RecordCacheMiss("gamification")

	state, err := s.gamification.Get(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading gamification state for %s: %w", userID, err)
	}
	if state == nil {
		state = &domain.GamificationState{UserID: userID}
	}
	s.cache.Set(key, *state)
	level, _ := engine.LevelProgress(state.EffectiveLifetimeXP())
	return state, level, nil
}

// GetTeamStats aggregates a tribe's stats, serving from cache when fresh.
func (s *Service) GetTeamStats(ctx context.Context, tribeID string) (*domain.TeamStats, error) {
	key := cache.TeamStatsKey(tribeID)
	if cached, ok := s.cache.Get(key); ok {
		observability.RecordCacheHit("teamstats")
		stats := cached.(domain.TeamStats)
		return &stats, nil
	}
	observability.RecordCacheMiss("teamstats")

	members, err := s.profiles.TribeMembers(ctx, tribeID)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", tribeID, err)
	}
	logsByUser, err := s.logs.ListByTribe(ctx, tribeID)
	if err != nil {
		return nil, fmt.Errorf("listing logs of %s: %w", tribeID, err)
	}

	profiles := make(map[string]domain.UserProfile, len(members))
	for _, member := range members {
		profile, err := s.profiles.Get(ctx, member.UserID)
		if err != nil {
			s.logger.Printf("profile fetch for %s: %v", member.UserID, err)
			continue
		}
		if profile != nil {
			profiles[member.UserID] = *profile
		}
	}

	stats := s.derive.TeamStats(tribeID, members, profiles, logsByUser, s.now())
	s.cache.Set(key, stats)
	return &stats, nil
}

// GetDailyQuests returns today's quest list for a user.
func (s *Service) GetDailyQuests(ctx context.Context, userID string) ([]quest.Quest, error) {
	profile := s.profileOrDefault(ctx, userID)
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing logs for %s: %w", userID, err)
	}
	return s.quests.DailyQuests(profile, logs, s.now()), nil
}

// GetOnboardingQuests returns the user's outstanding onboarding quests.
func (s *Service) GetOnboardingQuests(ctx context.Context, userID string) []quest.Quest {
	profile := s.profileOrDefault(ctx, userID)
	return s.quests.OnboardingQuests(profile)
}

// CompleteManualQuest marks a manual or onboarding quest done and credits
// its reward. Repeat completions within the quest's window award nothing.
func (s *Service) CompleteManualQuest(ctx context.Context, userID, questID string) (*quest.Reward, error) {
	profile := s.profileOrDefault(ctx, userID)

	reward := s.quests.CompleteManual(&profile, questID, s.now())
	if reward == nil {
		reward = s.quests.CompleteOnboarding(&profile, questID)
	}
	if reward == nil {
		return nil, nil
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile for %s: %w", userID, err)
	}
	s.award(ctx, userID, reward.XP, reward.Points)
	observability.RecordQuestCompleted(string(quest.TypeManual))
	s.emit(ctx, events.TopicGamificationEvents, "quest.updated", userID, events.QuestUpdated{
		UserID:     userID,
		QuestID:    questID,
		Completed:  true,
		OccurredAt: s.now().UTC(),
	})
	return reward, nil
}

// LogBreakdowns returns per-log XP breakdowns for a user's live logs.
func (s *Service) LogBreakdowns(ctx context.Context, userID string) (map[string]engine.Breakdown, error) {
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing logs for %s: %w", userID, err)
	}
	return s.derive.BreakdownAll(logs), nil
}
