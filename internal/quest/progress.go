package quest

import (
	"time"

	"example.com/tribe/internal/domain"
)

// CompleteManual marks a manual quest done for today, exactly once per day.
// Returns the reward on the first completion and nil on any repeat, so
// callers can never double-award. The supplied profile is mutated; the caller
// persists it and routes the reward through the gamification state path.
func (e *Engine) CompleteManual(profile *domain.UserProfile, questID string, now time.Time) *Reward {
	day := e.Day(now)

	var quest *Quest
	for _, candidate := range e.manualQuests(*profile, day) {
		if candidate.ID == questID {
			q := candidate
			quest = &q
			break
		}
	}
	if quest == nil {
		return nil
	}

	if !profile.MarkManualQuest(questID, day) {
		return nil
	}
	return &Reward{XP: quest.RewardXP, Points: quest.RewardPoints}
}

// CompleteOnboarding flags a one-time quest as done, once ever. Subsequent
// calls return nil regardless of future profile state.
func (e *Engine) CompleteOnboarding(profile *domain.UserProfile, questID string) *Reward {
	var quest *Quest
	for _, candidate := range onboardingCatalog {
		if candidate.ID == questID {
			q := candidate
			quest = &q
			break
		}
	}
	if quest == nil {
		return nil
	}

	if !profile.MarkOnboardingDone(questID) {
		return nil
	}
	return &Reward{XP: quest.RewardXP, Points: quest.RewardPoints}
}

// ApplyLogProgress advances custom challenges and onboarding flags after a
// qualifying log save. Progress clamps at the target and completed
// challenges never regress. Returns the rewards earned by anything that
// finished, plus whether the profile changed and needs persisting.
func (e *Engine) ApplyLogProgress(profile *domain.UserProfile, log domain.WorkoutLog) ([]Reward, bool) {
	if !log.Qualifying() {
		return nil, false
	}

	var rewards []Reward
	changed := false

	for i := range profile.CustomChallenges {
		challenge := &profile.CustomChallenges[i]
		if !challenge.Active(log.Date) {
			continue
		}
		challenge.Progress++
		if challenge.Progress >= challenge.Target {
			challenge.Progress = challenge.Target
			challenge.Completed = true
			rewards = append(rewards, Reward{XP: 25, Points: 10})
		}
		changed = true
	}

	if reward := e.CompleteOnboarding(profile, "onboarding-first-workout"); reward != nil {
		rewards = append(rewards, *reward)
		changed = true
	}

	return rewards, changed
}
