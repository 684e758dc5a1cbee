package api

import (
	"encoding/json"
	"time"

	"example.com/tribe/internal/auth"
	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/engine"
	"example.com/tribe/internal/quest"
)

// LogRequest is the payload for POST /v1/logs and PUT /v1/logs/{id}. The
// user id always comes from the bearer token, never from the body.
type LogRequest struct {
	LogID          string            `json:"log_id,omitempty"`
	TribeID        string            `json:"tribe_id,omitempty"`
	Date           time.Time         `json:"date"`
	Type           string            `json:"type"`
	Exercises      []domain.Exercise `json:"exercises,omitempty"`
	DurationMin    int               `json:"duration_min"`
	Calories       int               `json:"calories,omitempty"`
	Vibes          int               `json:"vibes,omitempty"`
	CustomActivity string            `json:"custom_activity,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at,omitempty"`
}

func (r LogRequest) toLog(claims *auth.Claims) domain.WorkoutLog {
	tribeID := r.TribeID
	if tribeID == "" {
		tribeID = claims.TribeID
	}
	return domain.WorkoutLog{
		ID:             r.LogID,
		UserID:         claims.Subject,
		TribeID:        tribeID,
		Date:           r.Date,
		Type:           domain.WorkoutType(r.Type),
		Exercises:      r.Exercises,
		DurationMin:    r.DurationMin,
		Calories:       r.Calories,
		Vibes:          r.Vibes,
		CustomActivity: r.CustomActivity,
		UpdatedAt:      r.UpdatedAt,
	}
}

// LogView exposes a stored log.
type LogView struct {
	LogID          string            `json:"log_id"`
	UserID         string            `json:"user_id"`
	TribeID        string            `json:"tribe_id,omitempty"`
	Date           time.Time         `json:"date"`
	Type           string            `json:"type"`
	Exercises      []domain.Exercise `json:"exercises,omitempty"`
	DurationMin    int               `json:"duration_min"`
	Calories       int               `json:"calories,omitempty"`
	Vibes          int               `json:"vibes,omitempty"`
	CustomActivity string            `json:"custom_activity,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func toLogView(logEntry domain.WorkoutLog) LogView {
	return LogView{
		LogID:          logEntry.ID,
		UserID:         logEntry.UserID,
		TribeID:        logEntry.TribeID,
		Date:           logEntry.Date,
		Type:           string(logEntry.Type),
		Exercises:      logEntry.Exercises,
		DurationMin:    logEntry.DurationMin,
		Calories:       logEntry.Calories,
		Vibes:          logEntry.Vibes,
		CustomActivity: logEntry.CustomActivity,
		CreatedAt:      logEntry.CreatedAt,
		UpdatedAt:      logEntry.UpdatedAt,
	}
}

// ListLogsResponse packages list results.
type ListLogsResponse struct {
	Items []LogView `json:"items"`
}

// BreakdownResponse maps log ids to their XP itemisation.
type BreakdownResponse struct {
	Breakdowns map[string]engine.Breakdown `json:"breakdowns"`
}

// StreakResponse reports the current streak and whether it lapses tonight.
type StreakResponse struct {
	UserID string `json:"user_id"`
	Streak int    `json:"streak"`
	AtRisk bool   `json:"at_risk"`
}

// MoodResponse reports the derived mood.
type MoodResponse struct {
	UserID string `json:"user_id"`
	Mood   string `json:"mood"`
}

// GamificationResponse merges the stored state with the derived level.
type GamificationResponse struct {
	State domain.GamificationState `json:"state"`
	Level int                      `json:"level"`
}

// QuestsResponse groups today's quests with outstanding onboarding ones.
type QuestsResponse struct {
	Daily      []quest.Quest `json:"daily"`
	Onboarding []quest.Quest `json:"onboarding"`
}

// CompleteQuestResponse reports whether a completion call paid out.
type CompleteQuestResponse struct {
	QuestID string        `json:"quest_id"`
	Awarded bool          `json:"awarded"`
	Reward  *quest.Reward `json:"reward,omitempty"`
}

// SyncOperation is one buffered client mutation.
type SyncOperation struct {
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
}

// SyncRequest uploads a device's offline queue for replay.
type SyncRequest struct {
	DeviceID   string          `json:"device_id"`
	Operations []SyncOperation `json:"operations"`
}

// SyncResponse acknowledges an accepted sync batch.
type SyncResponse struct {
	DeviceID string `json:"device_id"`
	Accepted int    `json:"accepted"`
}
