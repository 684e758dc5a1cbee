// Package quest generates day-scoped quests and tracks their progress.
package quest

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"example.com/tribe/internal/domain"
)

// Type distinguishes how a quest is completed.
type Type string

const (
	// TypeAutomatic quests progress as a side effect of log saves.
	TypeAutomatic Type = "automatic"
	// TypeManual quests require an explicit completion call.
	TypeManual Type = "manual"
	// TypeOnboarding quests surface once and disappear permanently when done.
	TypeOnboarding Type = "onboarding"
)

// Quest is ephemeral: regenerated deterministically each day and never
// persisted beyond manual-completion marks on the profile.
type Quest struct {
	ID           string `json:"quest_id"`
	Title        string `json:"title"`
	Type         Type   `json:"type"`
	Target       int    `json:"target"`
	Progress     int    `json:"progress"`
	Completed    bool   `json:"completed"`
	RewardXP     int    `json:"reward_xp"`
	RewardPoints int    `json:"reward_points"`
}

// Reward is what a completed quest pays out.
type Reward struct {
	XP     int `json:"earned_xp"`
	Points int `json:"earned_points"`
}

// manualPool is the rotation of manual quests; a per-user-per-day hash picks
// a stable subset so re-rendering never reshuffles the list mid-day.
var manualPool = []Quest{
	{ID: "manual-hydrate", Title: "Drink 2L of water", Type: TypeManual, Target: 1, RewardXP: 10, RewardPoints: 5},
	{ID: "manual-stretch", Title: "Stretch for 10 minutes", Type: TypeManual, Target: 1, RewardXP: 10, RewardPoints: 5},
	{ID: "manual-walk", Title: "Take a 20 minute walk", Type: TypeManual, Target: 1, RewardXP: 15, RewardPoints: 5},
	{ID: "manual-sleep", Title: "Get 8 hours of sleep", Type: TypeManual, Target: 1, RewardXP: 15, RewardPoints: 5},
	{ID: "manual-protein", Title: "Hit your protein target", Type: TypeManual, Target: 1, RewardXP: 10, RewardPoints: 5},
}

// manualPerDay is how many manual quests appear alongside the automatic set.
const manualPerDay = 2

var onboardingCatalog = []Quest{
	{ID: "onboarding-first-workout", Title: "Log your first workout", Type: TypeOnboarding, Target: 1, RewardXP: 50, RewardPoints: 25},
	{ID: "onboarding-join-tribe", Title: "Join a tribe", Type: TypeOnboarding, Target: 1, RewardXP: 30, RewardPoints: 15},
	{ID: "onboarding-set-goal", Title: "Set your weekly goal", Type: TypeOnboarding, Target: 1, RewardXP: 20, RewardPoints: 10},
}

// Engine derives quest sets from profiles and log snapshots.
type Engine struct {
	location *time.Location
}

// New constructs an Engine bucketing days in the given timezone.
func New(location *time.Location) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{location: location}
}

// Day formats the calendar-day key used for quest scoping.
func (e *Engine) Day(at time.Time) string {
	return at.In(e.location).Format("2006-01-02")
}

// DailyQuests returns the deterministic quest set for (user, day). The same
// day and profile always yield the same ids and targets; progress reflects
// the supplied log snapshot.
func (e *Engine) DailyQuests(profile domain.UserProfile, logs []domain.WorkoutLog, now time.Time) []Quest {
	day := e.Day(now)

	quests := e.automaticQuests(logs, now)
	quests = append(quests, e.manualQuests(profile, day)...)
	quests = append(quests, e.challengeQuests(profile, now)...)
	return quests
}

func (e *Engine) automaticQuests(logs []domain.WorkoutLog, now time.Time) []Quest {
	day := e.Day(now)
	workouts := 0
	minutes := 0
	for _, log := range logs {
		if !log.Qualifying() || e.Day(log.Date) != day {
			continue
		}
		workouts++
		minutes += log.DurationMin
	}

	logQuest := Quest{
		ID:       "daily-log",
		Title:    "Log a workout today",
		Type:     TypeAutomatic,
		Target:   1,
		Progress: clamp(workouts, 1),
		RewardXP: 20, RewardPoints: 10,
	}
	logQuest.Completed = logQuest.Progress >= logQuest.Target

	durationQuest := Quest{
		ID:       "daily-duration",
		Title:    "Train for 30 minutes",
		Type:     TypeAutomatic,
		Target:   30,
		Progress: clamp(minutes, 30),
		RewardXP: 15, RewardPoints: 5,
	}
	durationQuest.Completed = durationQuest.Progress >= durationQuest.Target

	return []Quest{logQuest, durationQuest}
}

func (e *Engine) manualQuests(profile domain.UserProfile, day string) []Quest {
	picks := pickManual(profile.UserID, day, manualPerDay)
	for i := range picks {
		if profile.ManualQuestDays[picks[i].ID] == day {
			picks[i].Progress = picks[i].Target
			picks[i].Completed = true
		}
	}
	return picks
}

// challengeQuests projects active custom challenges into the daily list.
func (e *Engine) challengeQuests(profile domain.UserProfile, now time.Time) []Quest {
	var out []Quest
	for _, challenge := range profile.CustomChallenges {
		if !challenge.InWindow(now) {
			continue
		}
		out = append(out, Quest{
			ID:        "challenge-" + challenge.ID,
			Title:     challenge.Title,
			Type:      TypeAutomatic,
			Target:    challenge.Target,
			Progress:  challenge.Progress,
			Completed: challenge.Completed,
			RewardXP:  25, RewardPoints: 10,
		})
	}
	return out
}

// OnboardingQuests returns one-time quests not yet flagged done. Completion
// of join-tribe and set-goal is inferred from profile state; first-workout is
// flagged by ApplyLogProgress.
func (e *Engine) OnboardingQuests(profile domain.UserProfile) []Quest {
	var out []Quest
	for _, quest := range onboardingCatalog {
		if profile.OnboardingDone[quest.ID] {
			continue
		}
		switch quest.ID {
		case "onboarding-join-tribe":
			if profile.TribeID != "" {
				quest.Progress, quest.Completed = quest.Target, true
			}
		case "onboarding-set-goal":
			if profile.WeeklyGoal > 0 {
				quest.Progress, quest.Completed = quest.Target, true
			}
		}
		out = append(out, quest)
	}
	return out
}

// pickManual selects n quests from the pool, seeded by user and day so the
// choice is stable within a day but rotates across days.
func pickManual(userID, day string, n int) []Quest {
	hash := fnv.New64a()
	fmt.Fprintf(hash, "%s|%s", userID, day)
	seed := hash.Sum64()

	indexes := make([]int, len(manualPool))
	for i := range indexes {
		indexes[i] = i
	}
	// Deterministic Fisher-Yates driven by the seed.
	state := seed
	for i := len(indexes) - 1; i > 0; i-- {
		state = state*6364136223846793005 + 1442695040888963407
		j := int(state % uint64(i+1))
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}

	if n > len(indexes) {
		n = len(indexes)
	}
	chosen := indexes[:n]
	sort.Ints(chosen)

	out := make([]Quest, 0, n)
	for _, idx := range chosen {
		out = append(out, manualPool[idx])
	}
	return out
}

func clamp(value, target int) int {
	if value > target {
		return target
	}
	return value
}
