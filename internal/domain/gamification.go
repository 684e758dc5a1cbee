package domain

import "time"

// Badge describes an unlockable achievement.
type Badge struct {
	ID          string `json:"badge_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// GamificationState is per-user derived reward state. It is mutated only by
// the derivation and achievement engines, never directly by callers.
type GamificationState struct {
	UserID         string         `json:"user_id"`
	Points         int            `json:"points"`
	LifetimeXP     int            `json:"lifetime_xp"`
	LogXP          map[string]int `json:"log_xp,omitempty"`
	Badges         []string       `json:"badges,omitempty"`
	Inventory      []string       `json:"inventory,omitempty"`
	ActiveTheme    string         `json:"active_theme,omitempty"`
	UnlockedThemes []string       `json:"unlocked_themes,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EffectiveLifetimeXP defensively falls back to spendable points for states
// written before lifetime XP was tracked separately.
func (s GamificationState) EffectiveLifetimeXP() int {
	if s.LifetimeXP == 0 && s.Points > 0 {
		return s.Points
	}
	return s.LifetimeXP
}

// HasBadge reports whether the badge was already unlocked.
func (s GamificationState) HasBadge(badgeID string) bool {
	for _, id := range s.Badges {
		if id == badgeID {
			return true
		}
	}
	return false
}

// AwardBadge appends a badge id exactly once. Badges are never removed.
func (s *GamificationState) AwardBadge(badgeID string) bool {
	if s.HasBadge(badgeID) {
		return false
	}
	s.Badges = append(s.Badges, badgeID)
	return true
}

// AddReward credits XP and spendable points.
func (s *GamificationState) AddReward(xp, points int) {
	s.LifetimeXP = s.EffectiveLifetimeXP() + xp
	s.Points += points
}

// CreditLog settles the XP credited for a single log against its current
// value. The previous credit for the id is debited first: a retried save
// settles to zero, an edit moves only the difference, and xp 0 (commitment
// or tombstone) takes the log's credit back out. Returns the applied change.
func (s *GamificationState) CreditLog(logID string, xp int) int {
	delta := xp - s.LogXP[logID]
	if delta == 0 {
		return 0
	}
	if xp == 0 {
		delete(s.LogXP, logID)
	} else {
		if s.LogXP == nil {
			s.LogXP = make(map[string]int)
		}
		s.LogXP[logID] = xp
	}
	s.AddReward(delta, delta)
	return delta
}

// MemberContribution is one member's share of the current week.
type MemberContribution struct {
	XP       int `json:"xp"`
	Workouts int `json:"workouts"`
}

// TeamStats is the tribe-scoped aggregate. It is purely derived from member
// logs, cached with a short TTL, and never stored as ground truth.
type TeamStats struct {
	TribeID       string                        `json:"tribe_id"`
	TotalXP       int                           `json:"total_xp"`
	WeeklyXP      int                           `json:"weekly_xp"`
	UserStats     map[string]MemberContribution `json:"user_stats"`
	TeamStreak    int                           `json:"team_streak"`
	WeeklyCount   int                           `json:"weekly_count"`
	WeeklyTarget  int                           `json:"weekly_target"`
	MonthlyCount  int                           `json:"monthly_count"`
	MonthlyTarget int                           `json:"monthly_target"`
	YearlyCount   int                           `json:"yearly_count"`
	YearlyTarget  int                           `json:"yearly_target"`
}
