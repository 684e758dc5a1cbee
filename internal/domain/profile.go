package domain

import "time"

// DefaultWeeklyGoal is assumed when a profile has no explicit target.
const DefaultWeeklyGoal = 3

// ChallengeType scopes a custom challenge window.
type ChallengeType string

const (
	ChallengeDaily   ChallengeType = "daily"
	ChallengeWeekly  ChallengeType = "weekly"
	ChallengeMonthly ChallengeType = "monthly"
)

// CustomChallenge is a user-created goal tracked by the quest engine.
// Progress only moves forward and the record is immutable once completed.
type CustomChallenge struct {
	ID        string        `json:"challenge_id"`
	Title     string        `json:"title"`
	Type      ChallengeType `json:"type"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Target    int           `json:"target"`
	Progress  int           `json:"progress"`
	Unit      string        `json:"unit"`
	Completed bool          `json:"completed"`
}

// InWindow reports whether the challenge window covers the given instant.
func (c CustomChallenge) InWindow(at time.Time) bool {
	if !c.StartDate.IsZero() && at.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && at.After(c.EndDate) {
		return false
	}
	return true
}

// Active reports whether progress may still accrue.
func (c CustomChallenge) Active(at time.Time) bool {
	return !c.Completed && c.InWindow(at)
}

// WorkoutTemplate is a reusable exercise plan owned by the user.
type WorkoutTemplate struct {
	ID        string      `json:"template_id"`
	Name      string      `json:"name"`
	Type      WorkoutType `json:"type"`
	Exercises []Exercise  `json:"exercises"`
}

// TribeMember is the minimal member view used by tribe-scoped aggregation.
type TribeMember struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarID    string `json:"avatar_id"`
}

// UserProfile holds identity and preferences. Owned exclusively by the user;
// read by tribe aggregation.
type UserProfile struct {
	UserID           string            `json:"user_id"`
	DisplayName      string            `json:"display_name"`
	AvatarID         string            `json:"avatar_id"`
	TribeID          string            `json:"tribe_id,omitempty"`
	FitnessLevel     string            `json:"fitness_level"`
	WeeklyGoal       int               `json:"weekly_goal"`
	CustomChallenges []CustomChallenge `json:"custom_challenges,omitempty"`
	Templates        []WorkoutTemplate `json:"templates,omitempty"`
	// OnboardingDone records one-time quest ids that must never resurface.
	OnboardingDone map[string]bool `json:"onboarding_done,omitempty"`
	// ManualQuestDays maps a manual quest id to the local day (2006-01-02)
	// it was last completed, enforcing one reward per quest per day.
	ManualQuestDays map[string]string `json:"manual_quest_days,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// EffectiveWeeklyGoal defensively defaults a missing weekly target.
func (p UserProfile) EffectiveWeeklyGoal() int {
	if p.WeeklyGoal <= 0 {
		return DefaultWeeklyGoal
	}
	return p.WeeklyGoal
}

// MarkManualQuest records a same-day completion. Returns false when the quest
// was already completed for that day.
func (p *UserProfile) MarkManualQuest(questID, day string) bool {
	if p.ManualQuestDays == nil {
		p.ManualQuestDays = make(map[string]string)
	}
	if p.ManualQuestDays[questID] == day {
		return false
	}
	p.ManualQuestDays[questID] = day
	return true
}

// MarkOnboardingDone flags a one-time quest as finished. Returns false when
// the flag was already set.
func (p *UserProfile) MarkOnboardingDone(questID string) bool {
	if p.OnboardingDone == nil {
		p.OnboardingDone = make(map[string]bool)
	}
	if p.OnboardingDone[questID] {
		return false
	}
	p.OnboardingDone[questID] = true
	return true
}
